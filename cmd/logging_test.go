package cmd

import (
	"testing"

	"rifa/config"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	defer log.SetFormatter(&log.TextFormatter{})

	cfg := config.NewTestConfig()

	cfg.LogLevel, cfg.LogFormat = "debug", "json"
	require.NoError(t, SetupLogging(cfg))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.LogLevel, cfg.LogFormat = "warn", "text"
	require.NoError(t, SetupLogging(cfg))
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	cfg.LogLevel = "loud"
	assert.Error(t, SetupLogging(cfg))

	cfg.LogLevel, cfg.LogFormat = "info", "xml"
	assert.Error(t, SetupLogging(cfg))
}
