// Package schedule assigns concrete calendar start and due dates to a
// topologically sorted task list. A task never starts before every
// dependency has finished plus a buffer day; a manually pinned start date
// is honored only when it does not violate that constraint. Durations in
// minutes convert to whole working days with a fixed hours-per-day
// divisor; weekends and holidays are not modeled.
package schedule

import (
	"fmt"
	"time"

	"github.com/jarondonp/waypoint/internal/task"
)

// Options configures a scheduling pass.
type Options struct {
	// ProjectStart is the calendar date tasks without dependencies start
	// on. Any time-of-day component is discarded.
	ProjectStart time.Time

	// BufferDays is the mandatory gap between a dependency's due date and
	// the dependent's start.
	BufferDays int

	// HoursPerDay converts minutes of work into nominal working days.
	HoursPerDay int

	// DefaultEstimateMins substitutes for tasks without an estimate.
	DefaultEstimateMins int
}

// DefaultOptions returns production defaults: a one-day dependency buffer,
// 8-hour working days, and one hour per unestimated task.
func DefaultOptions(start time.Time) Options {
	return Options{
		ProjectStart:        start,
		BufferDays:          1,
		HoursPerDay:         8,
		DefaultEstimateMins: 60,
	}
}

// Assignment records the computed window for one task.
type Assignment struct {
	TaskID string
	Start  time.Time
	Due    time.Time

	// Days is the task's working-day footprint: ceil(minutes / day).
	// The window occupies Days calendar days inclusive, so
	// Due = Start + (Days - 1).
	Days int

	// ManualHonored is true when the task's pinned start date was used.
	// ManualRejected is true when a pinned date fell before the
	// dependency-derived candidate and was discarded.
	ManualHonored  bool
	ManualRejected bool
}

// Result is the output of a scheduling pass: the task list enriched with
// calendar dates, the per-task assignments, and a human-readable decision
// trail (one line per scheduling decision) for diagnostics and tests.
type Result struct {
	Tasks       []task.Task
	Assignments map[string]Assignment
	Decisions   []string
}

// Assign walks the tasks in topological order and computes each task's
// calendar window. The input must already be validated acyclic; Assign
// has no cycle protection of its own. The input slice is not mutated.
func Assign(sorted []task.Task, opts Options) Result {
	res := Result{
		Tasks:       task.Clone(sorted),
		Assignments: make(map[string]Assignment, len(sorted)),
	}
	projectStart := task.Midnight(opts.ProjectStart)
	dayMins := opts.HoursPerDay * 60

	for i := range res.Tasks {
		t := &res.Tasks[i]
		a := Assignment{TaskID: t.ID}

		// Candidate start: project start, or the latest dependency due
		// date plus the buffer. Dependencies are guaranteed scheduled
		// already by topological order; ids not in the set carry no
		// constraint.
		candidate := projectStart
		for _, dep := range t.DependsOn {
			da, ok := res.Assignments[dep]
			if !ok {
				continue
			}
			if next := da.Due.AddDate(0, 0, opts.BufferDays); next.After(candidate) {
				candidate = next
			}
		}

		start := candidate
		if t.StartDate != "" {
			manual, err := task.ParseDate(t.StartDate)
			switch {
			case err != nil:
				res.log("task %s: unparseable manual start %q ignored", t.ID, t.StartDate)
			case !manual.Before(candidate):
				start = manual
				a.ManualHonored = true
				res.log("task %s: manual start %s honored (candidate %s)",
					t.ID, task.FormatDate(manual), task.FormatDate(candidate))
			default:
				a.ManualRejected = true
				res.log("task %s: manual start %s rejected, before dependency-derived %s",
					t.ID, task.FormatDate(manual), task.FormatDate(candidate))
			}
		}

		mins := t.EstimateMins
		if mins <= 0 {
			mins = opts.DefaultEstimateMins
		}
		a.Days = (mins + dayMins - 1) / dayMins

		a.Start = start
		a.Due = start
		if a.Days > 1 {
			a.Due = start.AddDate(0, 0, a.Days-1)
		}

		t.StartDate = task.FormatDate(a.Start)
		t.DueDate = task.FormatDate(a.Due)
		res.Assignments[t.ID] = a
		res.log("task %s: scheduled %s..%s (%d working day(s))",
			t.ID, t.StartDate, t.DueDate, a.Days)
	}
	return res
}

func (r *Result) log(format string, args ...any) {
	r.Decisions = append(r.Decisions, fmt.Sprintf(format, args...))
}
