package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jarondonp/waypoint/internal/baseline"
	"github.com/jarondonp/waypoint/internal/config"
	"github.com/jarondonp/waypoint/internal/engine"
	"github.com/jarondonp/waypoint/internal/report"
	"github.com/jarondonp/waypoint/internal/store"
	"github.com/jarondonp/waypoint/internal/task"
	"github.com/jarondonp/waypoint/internal/telemetry"
)

var planCmd = &cobra.Command{
	Use:   "plan <project.toml>",
	Short: "Compute a dependency-respecting schedule and critical path",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().String("format", "text", "output format: text, json, or yaml")
	planCmd.Flags().Bool("save", false, "persist the computed schedule to the task store")
	planCmd.Flags().String("baseline", "", "compare against a frozen baseline by name")
	planCmd.Flags().String("freeze", "", "freeze this run as a named baseline")
	planCmd.Flags().String("telemetry", "", "append JSONL run events to this file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	project, err := task.Load(args[0])
	if err != nil {
		return err
	}
	start, err := project.Start()
	if err != nil {
		return err
	}

	emitter, err := openTelemetry(cmd)
	if err != nil {
		return err
	}
	defer emitter.Close()

	projectName := project.Project.Name
	if projectName == "" {
		projectName = filepath.Base(args[0])
	}
	_ = emitter.Emit(telemetry.Event{
		Timestamp: time.Now().UTC(),
		Kind:      telemetry.KindPlanStart,
		Project:   projectName,
		Data:      map[string]any{"tasks": len(project.Tasks)},
	})

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
	emitPlanEvents(emitter, projectName, res)

	if err := renderResult(cmd, res); err != nil {
		return err
	}

	return persistPlan(ctx, cmd, cfg, projectName, project, res, emitter)
}

// renderResult writes the result in the requested format.
func renderResult(cmd *cobra.Command, res engine.Result) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text":
		fmt.Fprint(cmd.OutOrStdout(), report.Schedule(res))
	case "json":
		out, err := report.EncodeJSON(res)
		if err != nil {
			return err
		}
		cmd.OutOrStdout().Write(out)
	case "yaml":
		out, err := report.EncodeYAML(res)
		if err != nil {
			return err
		}
		cmd.OutOrStdout().Write(out)
	default:
		return fmt.Errorf("unknown format %q (want text, json, or yaml)", format)
	}
	return nil
}

// persistPlan handles --save, --freeze, and --baseline, opening the store
// only when at least one of them is requested.
func persistPlan(ctx context.Context, cmd *cobra.Command, cfg config.Config,
	projectName string, project *task.Project, res engine.Result, emitter *telemetry.Emitter) error {

	save, _ := cmd.Flags().GetBool("save")
	freeze, _ := cmd.Flags().GetString("freeze")
	baseName, _ := cmd.Flags().GetString("baseline")
	if !save && freeze == "" && baseName == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if save {
		if _, err := st.SaveProject(ctx, projectName, project.Project.StartDate, project.Tasks); err != nil {
			return err
		}
		if err := st.SaveSchedule(ctx, projectName, res.Tasks); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "schedule saved for project %q\n", projectName)
	}
	if freeze != "" {
		if err := st.SaveBaseline(ctx, projectName, freeze, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "baseline %q frozen\n", freeze)
	}
	if baseName != "" {
		base, err := st.LoadBaseline(ctx, projectName, baseName)
		if err != nil {
			return err
		}
		rep := baseline.Compare(baseName, base, res)
		fmt.Fprint(cmd.OutOrStdout(), report.Drift(rep))
		_ = emitter.Emit(telemetry.Event{
			Timestamp: time.Now().UTC(),
			Kind:      telemetry.KindBaselineCompared,
			Project:   projectName,
			Data:      map[string]any{"baseline": baseName, "summary": rep.Summary},
		})
	}
	return nil
}

// openTelemetry returns an emitter for the --telemetry flag, or a nil
// no-op emitter when the flag is unset.
func openTelemetry(cmd *cobra.Command) (*telemetry.Emitter, error) {
	path, _ := cmd.Flags().GetString("telemetry")
	if path == "" {
		return nil, nil
	}
	return telemetry.NewEmitter(path)
}

// emitPlanEvents translates a planning result into the JSONL event trail.
func emitPlanEvents(emitter *telemetry.Emitter, project string, res engine.Result) {
	now := time.Now().UTC()
	if res.HasCycle() {
		_ = emitter.Emit(telemetry.Event{
			Timestamp: now,
			Kind:      telemetry.KindCycleDetected,
			Project:   project,
			Data:      map[string]any{"cycle": res.Cycle},
		})
		return
	}
	for _, ref := range res.DanglingRefs {
		_ = emitter.Emit(telemetry.Event{
			Timestamp: now,
			Kind:      telemetry.KindDanglingRef,
			Project:   project,
			Data:      map[string]any{"ref": ref},
		})
	}
	for _, id := range res.RejectedOverrides {
		_ = emitter.Emit(telemetry.Event{
			Timestamp: now,
			Kind:      telemetry.KindOverrideRejected,
			Project:   project,
			TaskID:    id,
		})
	}
	for _, t := range res.Tasks {
		_ = emitter.Emit(telemetry.Event{
			Timestamp: now,
			Kind:      telemetry.KindTaskScheduled,
			Project:   project,
			TaskID:    t.ID,
			Data:      map[string]any{"start": t.StartDate, "due": t.DueDate},
		})
	}
	_ = emitter.Emit(telemetry.Event{
		Timestamp: now,
		Kind:      telemetry.KindPlanDone,
		Project:   project,
		Data: map[string]any{
			"critical_path": res.CriticalPath,
			"warnings":      len(res.Warnings),
		},
	})
}
