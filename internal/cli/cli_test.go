package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesense/filesense/internal/config"
)

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	_ = logger.Sync()

	logger, err = newLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	_ = logger.Sync()
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := newLogger(config.LoggingConfig{Level: "chatty", Format: "json"})
	assert.Error(t, err)
}

func TestRootCommandWiring(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "scan", "search", "status"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}
