package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/ctxlog"
	"github.com/Jm20010201/tesseract-planning/internal/describe"
	"github.com/Jm20010201/tesseract-planning/internal/metrics"
	"github.com/Jm20010201/tesseract-planning/internal/registry"
)

// AppConfig holds all the necessary configuration for an App instance to run.
type AppConfig struct {
	// DescriptionsPath is searched recursively for .hcl pipeline descriptions.
	DescriptionsPath string
	// ProfilesPath optionally names a YAML profile set seeded into each run.
	ProfilesPath string
	// Pipeline selects which loaded pipeline to execute. Empty is allowed
	// when exactly one pipeline is loaded.
	Pipeline    string
	LogFormat   string
	LogLevel    string
	WorkerCount int
	MetricsAddr string
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	registry  *registry.Registry
	pipelines []*describe.Pipeline
	profiles  command.ProfileMap
	collector metrics.Collector
	promReg   *prometheus.Registry
	metrics   *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry.
func NewApp(outW io.Writer, appConfig *AppConfig) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	pipelines, err := describe.LoadRecursively(ctx, appConfig.DescriptionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline descriptions: %w", err)
	}
	logger.Debug("Pipeline descriptions loaded.", "count", len(pipelines))

	profiles := command.ProfileMap{}
	if appConfig.ProfilesPath != "" {
		profiles, err = command.LoadProfiles(appConfig.ProfilesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile set: %w", err)
		}
		logger.Debug("Profile set loaded.", "count", len(profiles))
	}

	app := &App{
		outW:      outW,
		logger:    logger,
		registry:  registry.Default(),
		pipelines: pipelines,
		profiles:  profiles,
		collector: metrics.Nop{},
	}
	if appConfig.MetricsAddr != "" {
		app.promReg = prometheus.NewRegistry()
		app.collector = metrics.NewPrometheus(app.promReg)
	}
	return app, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Pipelines returns the loaded pipeline descriptions.
func (a *App) Pipelines() []*describe.Pipeline {
	return a.pipelines
}

// pipeline selects the pipeline named in the config.
func (a *App) pipeline(name string) (*describe.Pipeline, error) {
	if name == "" {
		if len(a.pipelines) == 1 {
			return a.pipelines[0], nil
		}
		return nil, fmt.Errorf("loaded %d pipelines, select one by name", len(a.pipelines))
	}
	for _, p := range a.pipelines {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no pipeline named %q", name)
}
