// Package baseline compares a fresh planning result against a previously
// frozen snapshot of the same shape, computing per-task calendar drift and
// critical-path churn. It is a pure advisory view; freezing and loading
// snapshots is the store's concern.
package baseline

import (
	"fmt"

	"github.com/jarondonp/waypoint/internal/engine"
	"github.com/jarondonp/waypoint/internal/task"
)

// Drift describes how one task moved relative to the baseline. Deltas are
// calendar days; positive means the task slipped later.
type Drift struct {
	TaskID         string `json:"task_id"`
	Title          string `json:"title"`
	StartDeltaDays int    `json:"start_delta_days"`
	DueDeltaDays   int    `json:"due_delta_days"`
	WasCritical    bool   `json:"was_critical"`
	NowCritical    bool   `json:"now_critical"`

	// Added and Removed mark tasks present in only one of the two plans.
	Added   bool `json:"added,omitempty"`
	Removed bool `json:"removed,omitempty"`
}

// Report is the full comparison between a baseline and the current plan.
type Report struct {
	Name    string  `json:"name"`
	Drifts  []Drift `json:"drifts"`
	Summary string  `json:"summary"`
}

// Compare diffs current against base. Drifts are listed in the current
// plan's task order, with removed tasks appended in baseline order.
func Compare(name string, base, current engine.Result) Report {
	baseByID := make(map[string]task.Task, len(base.Tasks))
	for _, t := range base.Tasks {
		baseByID[t.ID] = t
	}
	wasCritical := idSet(base.CriticalPath)
	nowCritical := idSet(current.CriticalPath)

	rep := Report{Name: name}
	slipped, maxSlip := 0, 0
	seen := make(map[string]bool, len(current.Tasks))

	for _, t := range current.Tasks {
		seen[t.ID] = true
		d := Drift{
			TaskID:      t.ID,
			Title:       t.Title,
			WasCritical: wasCritical[t.ID],
			NowCritical: nowCritical[t.ID],
		}
		b, ok := baseByID[t.ID]
		if !ok {
			d.Added = true
			rep.Drifts = append(rep.Drifts, d)
			continue
		}
		d.StartDeltaDays = deltaDays(b.StartDate, t.StartDate)
		d.DueDeltaDays = deltaDays(b.DueDate, t.DueDate)
		if d.DueDeltaDays > 0 {
			slipped++
			if d.DueDeltaDays > maxSlip {
				maxSlip = d.DueDeltaDays
			}
		}
		rep.Drifts = append(rep.Drifts, d)
	}
	for _, t := range base.Tasks {
		if !seen[t.ID] {
			rep.Drifts = append(rep.Drifts, Drift{
				TaskID:      t.ID,
				Title:       t.Title,
				WasCritical: wasCritical[t.ID],
				Removed:     true,
			})
		}
	}

	if slipped == 0 {
		rep.Summary = fmt.Sprintf("no slippage against baseline %q", name)
	} else {
		rep.Summary = fmt.Sprintf("%d task(s) slipped against baseline %q, worst by %d day(s)",
			slipped, name, maxSlip)
	}
	return rep
}

// deltaDays returns the whole-day difference between two calendar dates.
// Unparseable or empty dates contribute zero drift.
func deltaDays(from, to string) int {
	a, err := task.ParseDate(from)
	if err != nil {
		return 0
	}
	b, err := task.ParseDate(to)
	if err != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

func idSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
