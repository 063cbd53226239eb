// Package config loads the process configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the composer process.
type Config struct {
	// Worker pool configuration
	Workers WorkerConfig

	// Logging configuration
	Log LogConfig

	// Timeouts
	Timeouts TimeoutConfig

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `env:"COMPOSER_METRICS_ADDR"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	PoolSize int `env:"COMPOSER_WORKERS" envDefault:"4"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"COMPOSER_LOG_LEVEL" envDefault:"info"`
	Format string `env:"COMPOSER_LOG_FORMAT" envDefault:"text"`
}

// TimeoutConfig holds run timeout configuration.
type TimeoutConfig struct {
	RunTimeout      time.Duration `env:"COMPOSER_TIMEOUT_RUN" envDefault:"3600s"`
	ShutdownTimeout time.Duration `env:"COMPOSER_TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("COMPOSER_WORKERS must be at least 1, got %d", c.Workers.PoolSize)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("COMPOSER_LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("COMPOSER_LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	if c.Timeouts.RunTimeout <= 0 {
		return fmt.Errorf("COMPOSER_TIMEOUT_RUN must be positive, got %s", c.Timeouts.RunTimeout)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	return ParseLevel(c.Log.Level)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q, want debug, info, warn, or error", name)
	}
}
