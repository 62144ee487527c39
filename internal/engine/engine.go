// Package engine sequences the planning pipeline: validate the dependency
// graph, assign calendar dates, run critical-path analysis, and assemble
// warnings and suggestions. It is the only entry point external callers
// use. Every invocation is a pure computation over its input; repeated
// calls with identical input produce identical output.
package engine

import (
	"fmt"
	"time"

	"github.com/jarondonp/waypoint/internal/cpm"
	"github.com/jarondonp/waypoint/internal/depgraph"
	"github.com/jarondonp/waypoint/internal/schedule"
	"github.com/jarondonp/waypoint/internal/task"
)

// Options configures one planning run.
type Options struct {
	ProjectStart        time.Time
	BufferDays          int
	HoursPerDay         int
	DefaultEstimateMins int

	// Strict upgrades dangling dependency references from a warning to a
	// hard validation error.
	Strict bool
}

// DefaultOptions returns the engine defaults: one-day dependency buffer,
// 8-hour working days, 60-minute default estimate, lenient validation.
func DefaultOptions(start time.Time) Options {
	return Options{
		ProjectStart:        start,
		BufferDays:          1,
		HoursPerDay:         8,
		DefaultEstimateMins: 60,
	}
}

// Result is the engine's output contract. When a cycle is detected Tasks
// holds the unscheduled input, CriticalPath is empty, and Warnings names
// the cycle; the caller must treat that as a valid outcome, not a crash.
type Result struct {
	Tasks        []task.Task `json:"tasks"`
	CriticalPath []string    `json:"critical_path"`
	Warnings     []string    `json:"warnings"`
	Suggestions  []string    `json:"suggestions"`

	// Cycle holds the witness path when scheduling was aborted on a
	// circular dependency. Cycles are data, not errors.
	Cycle []string `json:"cycle,omitempty"`

	// Decisions is the scheduler's diagnostic trail, one line per
	// scheduling decision.
	Decisions []string `json:"decisions,omitempty"`

	// DanglingRefs lists "task -> dep" references to unknown ids that were
	// ignored during planning. Also surfaced in Warnings.
	DanglingRefs []string `json:"dangling_refs,omitempty"`

	// RejectedOverrides lists task ids whose pinned start date fell before
	// the dependency-derived candidate and was discarded.
	RejectedOverrides []string `json:"rejected_overrides,omitempty"`

	// CPM carries the full analysis for report layers. Excluded from the
	// serialized contract; baselines compare the fields above.
	CPM *cpm.Result `json:"-"`
}

// HasCycle reports whether this result came from an aborted run.
func (r Result) HasCycle() bool {
	return len(r.Cycle) > 0
}

// Plan runs the full pipeline over the task set. It returns an error only
// for programming-contract violations (malformed input); expected business
// conditions such as cycles and missing estimates are reported in the
// Result's warning list.
func Plan(tasks []task.Task, opts Options) (Result, error) {
	if err := task.Validate(tasks, opts.Strict); err != nil {
		return Result{}, err
	}
	if opts.HoursPerDay <= 0 {
		return Result{}, fmt.Errorf("invalid hours_per_day %d", opts.HoursPerDay)
	}

	var res Result

	graph := depgraph.Validate(tasks)
	for _, ref := range graph.Dangling {
		res.DanglingRefs = append(res.DanglingRefs, ref.String())
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("task %s depends on unknown task %s; constraint ignored", ref.TaskID, ref.DepID))
	}

	if graph.HasCycle {
		res.Tasks = task.Clone(tasks)
		res.CriticalPath = []string{}
		res.Cycle = append([]string{}, graph.Cycle...)
		res.Warnings = append(res.Warnings,
			"circular dependency detected: "+graph.CycleString())
		return res, nil
	}

	sched := schedule.Assign(graph.Sorted, schedule.Options{
		ProjectStart:        opts.ProjectStart,
		BufferDays:          opts.BufferDays,
		HoursPerDay:         opts.HoursPerDay,
		DefaultEstimateMins: opts.DefaultEstimateMins,
	})
	res.Decisions = sched.Decisions
	for _, t := range graph.Sorted {
		if a, ok := sched.Assignments[t.ID]; ok && a.ManualRejected {
			res.RejectedOverrides = append(res.RejectedOverrides, t.ID)
		}
	}

	analysis := cpm.Analyze(graph.Sorted, cpm.Options{
		DefaultEstimateMins: opts.DefaultEstimateMins,
	})
	res.CPM = analysis
	res.CriticalPath = append([]string{}, analysis.CriticalPath...)

	// Report tasks in original input order, enriched with the computed
	// calendar dates.
	res.Tasks = task.Clone(tasks)
	for i := range res.Tasks {
		if a, ok := sched.Assignments[res.Tasks[i].ID]; ok {
			res.Tasks[i].StartDate = task.FormatDate(a.Start)
			res.Tasks[i].DueDate = task.FormatDate(a.Due)
		}
	}

	if missing := countMissingEstimates(tasks); missing > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d task(s) have no estimate; defaulted to %d minutes",
				missing, opts.DefaultEstimateMins))
	}

	dayMins := opts.HoursPerDay * 60
	totalDays := (analysis.TotalMins + dayMins - 1) / dayMins
	res.Suggestions = append(res.Suggestions,
		fmt.Sprintf("critical path contains %d of %d task(s)", len(res.CriticalPath), len(tasks)),
		fmt.Sprintf("total project duration: %d working day(s)", totalDays))

	return res, nil
}

func countMissingEstimates(tasks []task.Task) int {
	n := 0
	for _, t := range tasks {
		if t.EstimateMins <= 0 {
			n++
		}
	}
	return n
}
