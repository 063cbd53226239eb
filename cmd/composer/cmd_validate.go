package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jm20010201/tesseract-planning/internal/describe"
	"github.com/Jm20010201/tesseract-planning/internal/registry"
)

var validateDescriptions string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check pipeline descriptions without executing them",
	Long: `Loads every description under the given path and builds each pipeline's
task graph, reporting cycles, unknown task kinds, and unbound required ports.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateDescriptions, "descriptions", "d", ".", "path searched recursively for .hcl pipeline descriptions")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	pipelines, err := describe.LoadRecursively(context.Background(), validateDescriptions)
	if err != nil {
		return err
	}
	if len(pipelines) == 0 {
		return fmt.Errorf("no pipelines found under %s", validateDescriptions)
	}

	reg := registry.Default()
	failed := 0
	for _, p := range pipelines {
		if _, err := p.Build(reg); err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "FAIL %-30s %v\n", p.Name, err)
			continue
		}
		fmt.Fprintf(os.Stdout, "OK   %-30s %d tasks\n", p.Name, len(p.Tasks))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pipelines invalid", failed, len(pipelines))
	}
	return nil
}
