package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers.PoolSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, time.Hour, cfg.Timeouts.RunTimeout)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.ShutdownTimeout)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COMPOSER_WORKERS", "16")
	t.Setenv("COMPOSER_LOG_LEVEL", "debug")
	t.Setenv("COMPOSER_LOG_FORMAT", "json")
	t.Setenv("COMPOSER_TIMEOUT_RUN", "90s")
	t.Setenv("COMPOSER_METRICS_ADDR", ":9091")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Workers.PoolSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 90*time.Second, cfg.Timeouts.RunTimeout)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
}

func TestValidate(t *testing.T) {
	t.Run("zero workers", func(t *testing.T) {
		t.Setenv("COMPOSER_WORKERS", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "COMPOSER_WORKERS")
	})

	t.Run("bad level", func(t *testing.T) {
		t.Setenv("COMPOSER_LOG_LEVEL", "verbose")
		_, err := Load()
		assert.ErrorContains(t, err, "COMPOSER_LOG_LEVEL")
	})

	t.Run("bad format", func(t *testing.T) {
		t.Setenv("COMPOSER_LOG_FORMAT", "xml")
		_, err := Load()
		assert.ErrorContains(t, err, "COMPOSER_LOG_FORMAT")
	})

	t.Run("non-positive run timeout", func(t *testing.T) {
		t.Setenv("COMPOSER_TIMEOUT_RUN", "0s")
		_, err := Load()
		assert.ErrorContains(t, err, "COMPOSER_TIMEOUT_RUN")
	})
}

func TestSlogLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		cfg := &Config{Log: LogConfig{Level: name}}
		got, err := cfg.SlogLevel()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}
