package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jarondonp/waypoint/internal/config"
	"github.com/jarondonp/waypoint/internal/cpm"
	"github.com/jarondonp/waypoint/internal/depgraph"
	"github.com/jarondonp/waypoint/internal/report"
	"github.com/jarondonp/waypoint/internal/task"
)

var criticalCmd = &cobra.Command{
	Use:   "critical <project.toml>",
	Short: "Show critical path method offsets, slack, and waves",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		project, err := task.Load(args[0])
		if err != nil {
			return err
		}
		if err := task.Validate(project.Tasks, cfg.Strict); err != nil {
			return err
		}

		graph := depgraph.Validate(project.Tasks)
		if graph.HasCycle {
			return fmt.Errorf("circular dependency: %s", graph.CycleString())
		}

		analysis := cpm.Analyze(graph.Sorted, cpm.Options{
			DefaultEstimateMins: cfg.DefaultEstimateMins,
		})
		fmt.Fprint(cmd.OutOrStdout(), report.Critical(analysis))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(criticalCmd)
}
