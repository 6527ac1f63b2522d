// Package config loads TimeMachine's global, user-level defaults. These are
// not part of any tracked directory's on-disk format (spec.md's
// .timemachine/ layout is stable and carries no user config); they only
// tune engine behavior such as scanner concurrency and compression level.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	// DefaultCompressionLevel is the zstd level used by the Content Store.
	DefaultCompressionLevel = 3

	// DefaultDirWorkers is the default number of directory-walk workers.
	DefaultDirWorkers = 4

	// DefaultFileWorkers is the default number of file-hashing workers.
	DefaultFileWorkers = 8

	// DefaultCleanupThresholdBytes is the auto-cleanup threshold from
	// spec.md §4.5 (100 MiB).
	DefaultCleanupThresholdBytes = 100 * 1024 * 1024
)

// Config holds engine-wide tunables.
type Config struct {
	CompressionLevel       int    `mapstructure:"compression_level"`
	Workers                Workers `mapstructure:"workers"`
	CleanupThresholdBytes  int64  `mapstructure:"cleanup_threshold_bytes"`
	Logging                LoggingConfig `mapstructure:"logging"`
}

// Workers configures the Scanner's worker pools. Zero means auto-tune
// from detected system resources (see internal/tuner).
type Workers struct {
	Dir  int `mapstructure:"dir"`
	File int `mapstructure:"file"`
}

// LoggingConfig configures the shared logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// ConfigDir returns $XDG_CONFIG_HOME/timemachine.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "timemachine")
}

// Load reads configuration from $XDG_CONFIG_HOME/timemachine/config.yaml and
// TIMEMACHINE_-prefixed environment variables, falling back to defaults when
// no config file is present. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())

	v.SetEnvPrefix("TIMEMACHINE")
	v.AutomaticEnv()

	v.SetDefault("compression_level", DefaultCompressionLevel)
	v.SetDefault("workers.dir", DefaultDirWorkers)
	v.SetDefault("workers.file", DefaultFileWorkers)
	v.SetDefault("cleanup_threshold_bytes", DefaultCleanupThresholdBytes)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists yet. Returns nil
// if a config file is already present.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	path := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file: %w", err)
	}

	contents := fmt.Sprintf(`# TimeMachine configuration.
# These are global defaults; they never live inside a tracked directory's
# .timemachine/ subtree.

# zstd compression level used by the content store.
compression_level: %d

# Scanner worker pool sizes. 0 means auto-tune from detected CPU/RAM.
workers:
  dir: 0
  file: 0

# Auto-cleanup threshold in bytes (see "delete" in the documentation).
cleanup_threshold_bytes: %d

logging:
  level: info
  path: ""
`, DefaultCompressionLevel, DefaultCleanupThresholdBytes)

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
