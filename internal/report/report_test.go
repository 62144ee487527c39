package report

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jarondonp/waypoint/internal/baseline"
	"github.com/jarondonp/waypoint/internal/cpm"
	"github.com/jarondonp/waypoint/internal/engine"
	"github.com/jarondonp/waypoint/internal/task"
)

func sampleResult() engine.Result {
	return engine.Result{
		Tasks: []task.Task{
			{ID: "design", Title: "Design mockups", StartDate: "2025-01-01", DueDate: "2025-01-01"},
			{ID: "build", Title: "Implement", StartDate: "2025-01-02", DueDate: "2025-01-03"},
		},
		CriticalPath: []string{"design", "build"},
		Warnings:     []string{"1 task(s) have no estimate, assuming 60 min each"},
		Suggestions:  []string{"critical path contains 2 of 2 task(s)"},
	}
}

func TestSchedule(t *testing.T) {
	t.Parallel()
	out := Schedule(sampleResult())

	for _, want := range []string{
		"Schedule",
		"design", "Design mockups", "2025-01-01 .. 2025-01-01",
		"build", "2025-01-02 .. 2025-01-03",
		"Critical path",
		"design -> build",
		"! 1 task(s) have no estimate",
		"* critical path contains 2 of 2 task(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScheduleCycle(t *testing.T) {
	t.Parallel()
	res := engine.Result{
		Tasks: []task.Task{
			{ID: "a", DependsOn: []string{"b"}},
			{ID: "b", DependsOn: []string{"a"}},
		},
		Cycle:    []string{"a", "b", "a"},
		Warnings: []string{"circular dependency detected: a -> b -> a"},
	}
	out := Schedule(res)

	if !strings.Contains(out, "scheduling aborted") {
		t.Errorf("missing abort notice:\n%s", out)
	}
	if !strings.Contains(out, "a -> b -> a") {
		t.Errorf("missing cycle warning:\n%s", out)
	}
	if strings.Contains(out, "Critical path") {
		t.Errorf("cycle output should not render a schedule:\n%s", out)
	}
}

func TestCritical(t *testing.T) {
	t.Parallel()
	res := &cpm.Result{
		Tasks: map[string]*cpm.Schedule{
			"a": {TaskID: "a", ES: 0, EF: 120, LS: 0, LF: 120, Slack: 0, Critical: true, Wave: 0},
			"b": {TaskID: "b", ES: 120, EF: 180, LS: 120, LF: 180, Slack: 0, Critical: true, Wave: 1},
		},
		CriticalPath: []string{"a", "b"},
		TotalMins:    180,
		Order:        []string{"a", "b"},
		Waves: []cpm.Wave{
			{Index: 0, TaskIDs: []string{"a"}, Critical: true},
			{Index: 1, TaskIDs: []string{"b"}, Critical: true},
		},
	}
	out := Critical(res)

	for _, want := range []string{
		"Critical path analysis",
		"total duration: 180 min",
		"slack",
		"Waves",
		"* wave 0: a",
		"* wave 1: b",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDrift(t *testing.T) {
	t.Parallel()
	rep := baseline.Report{
		Name: "v1",
		Drifts: []baseline.Drift{
			{TaskID: "build", StartDeltaDays: 2, DueDeltaDays: 3, WasCritical: false, NowCritical: true},
			{TaskID: "docs", Added: true},
			{TaskID: "spike", Removed: true},
			{TaskID: "stable"},
		},
		Summary: `1 task(s) slipped against baseline "v1", worst by 3 day(s)`,
	}
	out := Drift(rep)

	for _, want := range []string{
		"Baseline drift: v1",
		"~ build start +2 day(s), due +3 day(s)",
		"[now critical]",
		"+ docs (new task)",
		"- spike (removed)",
		"worst by 3 day(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "stable") {
		t.Errorf("unchanged task should not be listed:\n%s", out)
	}
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()
	blob, err := EncodeJSON(sampleResult())
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if blob[len(blob)-1] != '\n' {
		t.Error("output should end with a newline")
	}

	var decoded struct {
		Tasks []struct {
			ID      string `json:"id"`
			DueDate string `json:"due_date"`
		} `json:"tasks"`
		CriticalPath []string `json:"critical_path"`
	}
	if err := json.Unmarshal(blob, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Tasks) != 2 || decoded.Tasks[1].DueDate != "2025-01-03" {
		t.Errorf("tasks = %+v", decoded.Tasks)
	}
	if len(decoded.CriticalPath) != 2 {
		t.Errorf("critical_path = %v", decoded.CriticalPath)
	}
}

func TestEncodeYAML(t *testing.T) {
	t.Parallel()
	blob, err := EncodeYAML(sampleResult())
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(blob, &generic); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	// Field names follow the JSON contract, not Go identifiers.
	if _, ok := generic["critical_path"]; !ok {
		t.Errorf("missing critical_path key: %v", generic)
	}
	if _, ok := generic["CriticalPath"]; ok {
		t.Error("Go identifier leaked into YAML output")
	}
}
