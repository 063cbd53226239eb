package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jm20010201/tesseract-planning/internal/app"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/config"
)

var (
	runDescriptions string
	runPipeline     string
	runProfiles     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a described pipeline",
	Long: `Loads pipeline descriptions from the given path, builds the selected
pipeline's task graph, and executes it. Worker count, logging, timeouts, and
the metrics endpoint are configured through COMPOSER_* environment variables.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runDescriptions, "descriptions", "d", ".", "path searched recursively for .hcl pipeline descriptions")
	runCmd.Flags().StringVarP(&runPipeline, "pipeline", "p", "", "name of the pipeline to execute")
	runCmd.Flags().StringVar(&runProfiles, "profiles", "", "YAML profile set seeded into the run")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appConfig := &app.AppConfig{
		DescriptionsPath: runDescriptions,
		ProfilesPath:     runProfiles,
		Pipeline:         runPipeline,
		LogFormat:        cfg.Log.Format,
		LogLevel:         cfg.Log.Level,
		WorkerCount:      cfg.Workers.PoolSize,
		MetricsAddr:      cfg.MetricsAddr,
	}

	composerApp, err := app.NewApp(os.Stdout, appConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeouts.RunTimeout)
	defer cancel()

	ec, info, err := composerApp.Run(ctx, appConfig, nil)
	if err != nil {
		return err
	}

	for _, id := range ec.InfoIDs() {
		nodeInfo, err := ec.Info(id)
		if err != nil {
			continue
		}
		fmt.Fprintf(os.Stdout, "%-30s %-8s %s\n", id, nodeInfo.Status, nodeInfo.Message)
	}
	if info.Status != composer.StatusSuccess {
		return fmt.Errorf("pipeline finished with status %s", info.Status)
	}
	return nil
}
