package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masiedu4/timemachine/internal/config"
	"github.com/masiedu4/timemachine/internal/engine"
	"github.com/masiedu4/timemachine/internal/logging"
)

var (
	cfgFile      string
	jsonOutput   bool
	logLevelFlag string
	logPathFlag  string

	rootCmd = &cobra.Command{
		Use:   "timemachine",
		Short: "Directory-scoped file versioning",
		Long: `TimeMachine records point-in-time snapshots of a directory's file tree,
detects changes, restores prior snapshots, and reclaims space as old
snapshots are removed.

Examples:
  timemachine init .
  timemachine snapshot .
  timemachine status .
  timemachine list . --detailed
  timemachine restore . 3 --dry-run
  timemachine delete . 2 --cleanup`,
		PersistentPreRunE: setupLogging,
		// exitError already reports failures with the tmerrors kind
		// attached; cobra's own default error/usage printing would just
		// repeat the message and dump help text underneath it.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/timemachine/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logPathFlag, "log-path", "", "log file path")

	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.path", rootCmd.PersistentFlags().Lookup("log-path"))
}

// initConfig loads the global config file and environment variables into
// viper before any command runs.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.SetEnvPrefix("TIMEMACHINE")
	viper.AutomaticEnv()

	viper.SetDefault("compression_level", config.DefaultCompressionLevel)
	viper.SetDefault("workers.dir", config.DefaultDirWorkers)
	viper.SetDefault("workers.file", config.DefaultFileWorkers)
	viper.SetDefault("cleanup_threshold_bytes", config.DefaultCleanupThresholdBytes)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.path", "")

	_ = viper.ReadInConfig()
}

// setupLogging initializes the shared logger from the merged viper config
// before any subcommand's RunE executes.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := viper.GetString("logging.level")
	if level == "" {
		level = "info"
	}
	path := viper.GetString("logging.path")

	return logging.Init(logging.Config{
		Level: level,
		Path:  path,
	})
}

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

// loadConfig assembles an engine config.Config from viper's merged state.
func loadConfig() config.Config {
	return config.Config{
		CompressionLevel: viper.GetInt("compression_level"),
		Workers: config.Workers{
			Dir:  viper.GetInt("workers.dir"),
			File: viper.GetInt("workers.file"),
		},
		CleanupThresholdBytes: viper.GetInt64("cleanup_threshold_bytes"),
		Logging: config.LoggingConfig{
			Level: viper.GetString("logging.level"),
			Path:  viper.GetString("logging.path"),
		},
	}
}

// newEngine constructs an engine.Engine bound to root using the merged
// configuration, or returns the engine's error unchanged (callers report
// it through exitError).
func newEngine(root string) (*engine.Engine, error) {
	e, err := engine.New(root, loadConfig())
	if err != nil {
		return nil, err
	}
	return e, nil
}

