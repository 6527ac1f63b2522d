package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masiedu4/timemachine/internal/logging"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tm.log")

	require.NoError(t, logging.Init(logging.Config{Level: "debug", Path: path}))
	defer logging.Close()

	logger := logging.Get("content")
	logger.Info("object stored", "hash", "abc123")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "object stored")
}

func TestInitRejectsInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	err := logging.Init(logging.Config{Level: "not-a-level", Path: filepath.Join(dir, "x.log")})
	require.Error(t, err)
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	logger := logging.Get("pre-init-component")
	require.NotNil(t, logger)
	logger.Info("should not panic")
}
