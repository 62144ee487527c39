package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jarondonp/waypoint/internal/config"
	"github.com/jarondonp/waypoint/internal/depgraph"
	"github.com/jarondonp/waypoint/internal/task"
)

var validateCmd = &cobra.Command{
	Use:   "validate <project.toml>",
	Short: "Check a project plan for cycles and broken references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		project, err := task.Load(args[0])
		if err != nil {
			return err
		}
		if _, err := project.Start(); err != nil {
			return err
		}
		if err := task.Validate(project.Tasks, cfg.Strict); err != nil {
			return err
		}

		ok := true
		graph := depgraph.Validate(project.Tasks)
		if graph.HasCycle {
			fmt.Fprintf(os.Stderr, "✗ circular dependency: %s\n", graph.CycleString())
			ok = false
		} else {
			fmt.Fprintln(os.Stderr, "✓ dependency graph is acyclic")
		}
		for _, ref := range graph.Dangling {
			fmt.Fprintf(os.Stderr, "✗ dangling reference: %s\n", ref)
			ok = false
		}
		if len(graph.Dangling) == 0 {
			fmt.Fprintln(os.Stderr, "✓ all dependency references resolve")
		}

		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
