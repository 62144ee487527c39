package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jarondonp/waypoint/internal/config"
	"github.com/jarondonp/waypoint/internal/engine"
	"github.com/jarondonp/waypoint/internal/report"
	"github.com/jarondonp/waypoint/internal/task"
)

// watchDebounce coalesces editor write bursts into a single replan.
const watchDebounce = 250 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <project.toml>",
	Short: "Replan automatically whenever the project file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]

	if err := replan(cmd, path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "plan error: %v\n", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory rather than the file: editors often replace the
	// file on save, which would drop a direct file watch.
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (ctrl-c to stop)\n", path)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-fire:
			if err := replan(cmd, path); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "plan error: %v\n", err)
			}
		}
	}
}

// replan loads the project file and prints a fresh schedule.
func replan(cmd *cobra.Command, path string) error {
	cfg := config.Load()

	project, err := task.Load(path)
	if err != nil {
		return err
	}
	start, err := project.Start()
	if err != nil {
		return err
	}

	opts := engine.Options{
		ProjectStart:        start,
		BufferDays:          cfg.BufferDays,
		HoursPerDay:         cfg.HoursPerDay,
		DefaultEstimateMins: cfg.DefaultEstimateMins,
		Strict:              cfg.Strict,
	}
	res, err := engine.Plan(project.Tasks, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "-- replanned at %s --\n", time.Now().Format(time.TimeOnly))
	fmt.Fprint(cmd.OutOrStdout(), report.Schedule(res))
	return nil
}
