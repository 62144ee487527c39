package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jarondonp/waypoint/internal/engine"
	"github.com/jarondonp/waypoint/internal/task"
	"github.com/jarondonp/waypoint/internal/telemetry"
)

func formatCmd(t *testing.T, format string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	c := &cobra.Command{}
	c.Flags().String("format", "text", "")
	if err := c.Flags().Set("format", format); err != nil {
		t.Fatalf("set format: %v", err)
	}
	var buf bytes.Buffer
	c.SetOut(&buf)
	return c, &buf
}

func sampleResult() engine.Result {
	return engine.Result{
		Tasks: []task.Task{
			{ID: "design", Title: "Design", StartDate: "2025-01-01", DueDate: "2025-01-01"},
			{ID: "build", Title: "Build", StartDate: "2025-01-02", DueDate: "2025-01-02", DependsOn: []string{"design"}},
		},
		CriticalPath: []string{"design", "build"},
		Warnings:     []string{},
		Suggestions:  []string{"critical path contains 2 of 2 task(s)"},
	}
}

func TestRenderResult(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		c, buf := formatCmd(t, "text")
		if err := renderResult(c, sampleResult()); err != nil {
			t.Fatalf("renderResult: %v", err)
		}
		if !strings.Contains(buf.String(), "design -> build") {
			t.Errorf("text output missing critical path:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		c, buf := formatCmd(t, "json")
		if err := renderResult(c, sampleResult()); err != nil {
			t.Fatalf("renderResult: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v\nraw: %s", err, buf.String())
		}
		if _, ok := decoded["critical_path"]; !ok {
			t.Errorf("missing critical_path key: %v", decoded)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		c, buf := formatCmd(t, "yaml")
		if err := renderResult(c, sampleResult()); err != nil {
			t.Fatalf("renderResult: %v", err)
		}
		if !strings.Contains(buf.String(), "critical_path") {
			t.Errorf("yaml output missing critical_path:\n%s", buf.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		c, _ := formatCmd(t, "xml")
		if err := renderResult(c, sampleResult()); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestEmitPlanEvents(t *testing.T) {
	t.Parallel()

	readEvents := func(t *testing.T, path string) []telemetry.Event {
		t.Helper()
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer f.Close()
		var events []telemetry.Event
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var evt telemetry.Event
			if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
				t.Fatalf("invalid JSONL line: %v", err)
			}
			events = append(events, evt)
		}
		return events
	}

	t.Run("clean run emits per-task events and a done marker", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "events.jsonl")
		em, err := telemetry.NewEmitter(path)
		if err != nil {
			t.Fatalf("NewEmitter: %v", err)
		}
		emitPlanEvents(em, "site", sampleResult())
		em.Close()

		events := readEvents(t, path)
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}
		if events[0].Kind != telemetry.KindTaskScheduled || events[0].TaskID != "design" {
			t.Errorf("first event = %+v", events[0])
		}
		if events[2].Kind != telemetry.KindPlanDone {
			t.Errorf("last event = %+v", events[2])
		}
	})

	t.Run("cycle emits a single cycle event", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "events.jsonl")
		em, err := telemetry.NewEmitter(path)
		if err != nil {
			t.Fatalf("NewEmitter: %v", err)
		}
		res := engine.Result{
			Tasks: []task.Task{{ID: "a", DependsOn: []string{"a"}}},
			Cycle: []string{"a", "a"},
		}
		emitPlanEvents(em, "site", res)
		em.Close()

		events := readEvents(t, path)
		if len(events) != 1 || events[0].Kind != telemetry.KindCycleDetected {
			t.Fatalf("events = %+v, want one cycle_detected", events)
		}
	})

	t.Run("nil emitter is a no-op", func(t *testing.T) {
		t.Parallel()
		emitPlanEvents(nil, "site", sampleResult())
	})
}
