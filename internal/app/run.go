package app

import (
	"context"
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/ctxlog"
)

// Seeds are the values the host provides to a run, keyed by context key. The
// standard planning pipelines expect the program, environment, and profile
// set to arrive this way.
type Seeds map[string]any

// Run executes the selected pipeline against the given seeds and returns the
// run context for post-run introspection along with the graph's summary info.
func (a *App) Run(ctx context.Context, appConfig *AppConfig, seeds Seeds) (*composer.Context, *composer.NodeInfo, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.MetricsAddr != "" {
		a.startMetricsServer(appConfig.MetricsAddr)
		defer a.closeMetricsServer()
	}

	pipeline, err := a.pipeline(appConfig.Pipeline)
	if err != nil {
		return nil, nil, err
	}

	a.logger.Debug("Building task graph from description...", "pipeline", pipeline.Name)
	graph, err := pipeline.Build(a.registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build task graph: %w", err)
	}
	a.logger.Debug("Task graph built.", "node_count", graph.Len())

	ec := composer.NewContext()
	if len(a.profiles) > 0 {
		ec.Set("profiles", a.profiles)
	}
	for key, value := range seeds {
		ec.Set(key, value)
	}

	a.logger.Info("🚀 Starting concurrent execution...", "pipeline", pipeline.Name, "run", ec.RunID())
	exec := composer.NewExecutor(
		composer.WithWorkers(appConfig.WorkerCount),
		composer.WithCollector(a.collector),
	)
	info, err := exec.Execute(ctx, graph, ec,
		func(i *composer.NodeInfo) { a.logger.Info("🏁 Pipeline succeeded.", "graph", i.Name) },
		func(i *composer.NodeInfo) { a.logger.Error("Pipeline failed.", "node", i.Name, "message", i.Message) },
	)
	if err != nil {
		return ec, nil, fmt.Errorf("execution failed: %w", err)
	}

	a.logger.Debug("App.Run method finished.", "status", info.Status)
	return ec, info, nil
}
