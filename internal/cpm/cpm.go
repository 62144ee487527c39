// Package cpm implements the Critical Path Method over a validated task
// graph: forward and backward passes compute earliest/latest start and
// finish offsets in minutes relative to a zero epoch, per-task slack, and
// the zero-slack critical path. Offsets are abstract work minutes, not
// calendar dates; calendar assignment is the scheduler's concern.
package cpm

import (
	"sort"

	"github.com/jarondonp/waypoint/internal/task"
)

// Schedule holds the computed CPM values for a single task. All offsets
// are minutes from the project's zero epoch.
type Schedule struct {
	TaskID string `json:"task_id"`
	ES     int    `json:"earliest_start"`
	EF     int    `json:"earliest_finish"`
	LS     int    `json:"latest_start"`
	LF     int    `json:"latest_finish"`
	Slack  int    `json:"slack"`

	// Critical is true when Slack is zero: any delay to this task delays
	// the whole project.
	Critical bool `json:"critical"`

	// Wave groups tasks that share an earliest start and can proceed in
	// parallel.
	Wave int `json:"wave"`
}

// Wave is a group of tasks with the same earliest start offset.
type Wave struct {
	Index    int      `json:"index"`
	TaskIDs  []string `json:"task_ids"`
	Critical bool     `json:"critical"`
}

// Result is the complete critical-path analysis for one task set.
type Result struct {
	Tasks map[string]*Schedule `json:"tasks"`

	// CriticalPath lists zero-slack task ids in topological order, which
	// keeps repeated runs and diffs stable.
	CriticalPath []string `json:"critical_path"`

	// TotalMins is the end-to-end project duration: the maximum earliest
	// finish across all tasks.
	TotalMins int `json:"total_mins"`

	Waves []Wave   `json:"waves"`
	Order []string `json:"order"`
}

// Options configures the analysis.
type Options struct {
	// DefaultEstimateMins substitutes for tasks without an estimate. The
	// scheduler uses the same default so the critical path and the
	// calendar dates describe one consistent plan.
	DefaultEstimateMins int
}

// DefaultOptions returns the production default: one hour per unestimated task.
func DefaultOptions() Options {
	return Options{DefaultEstimateMins: 60}
}

// Analyze runs the forward and backward passes over tasks already in
// topological order (dependencies before dependents, as produced by the
// depgraph validator). The analysis assumes acyclicity; run the validator
// first. Dependency ids absent from the set carry no constraint.
//
// Both passes are single iterative sweeps over the topological order, so
// each task is computed exactly once even when reached via multiple paths
// and deep chains cannot overflow the stack.
func Analyze(sorted []task.Task, opts Options) *Result {
	res := &Result{
		Tasks: make(map[string]*Schedule, len(sorted)),
		Order: make([]string, 0, len(sorted)),
	}
	if len(sorted) == 0 {
		return res
	}

	durations := make(map[string]int, len(sorted))
	dependents := make(map[string][]string, len(sorted))
	for _, t := range sorted {
		res.Order = append(res.Order, t.ID)
		res.Tasks[t.ID] = &Schedule{TaskID: t.ID}
		d := t.EstimateMins
		if d <= 0 {
			d = opts.DefaultEstimateMins
		}
		durations[t.ID] = d
	}
	for _, t := range sorted {
		for _, dep := range t.DependsOn {
			if _, ok := res.Tasks[dep]; ok {
				dependents[dep] = append(dependents[dep], t.ID)
			}
		}
	}

	// Forward pass: ES = max(EF of dependencies), EF = ES + duration.
	for _, t := range sorted {
		s := res.Tasks[t.ID]
		for _, dep := range t.DependsOn {
			if ds, ok := res.Tasks[dep]; ok && ds.EF > s.ES {
				s.ES = ds.EF
			}
		}
		s.EF = s.ES + durations[t.ID]
		if s.EF > res.TotalMins {
			res.TotalMins = s.EF
		}
	}

	// Backward pass in reverse topological order. Sinks finish at the
	// overall project duration; everything else must finish before its
	// earliest-constrained dependent starts.
	for i := len(sorted) - 1; i >= 0; i-- {
		id := sorted[i].ID
		s := res.Tasks[id]
		if len(dependents[id]) == 0 {
			s.LF = res.TotalMins
		} else {
			s.LF = res.TotalMins
			for _, dep := range dependents[id] {
				if ls := res.Tasks[dep].LS; ls < s.LF {
					s.LF = ls
				}
			}
		}
		s.LS = s.LF - durations[id]
		s.Slack = s.LS - s.ES
		s.Critical = s.Slack == 0
	}

	for _, id := range res.Order {
		if res.Tasks[id].Critical {
			res.CriticalPath = append(res.CriticalPath, id)
		}
	}

	res.Waves = computeWaves(res)
	return res
}

// computeWaves groups tasks by earliest start offset, preserving
// topological order within each wave.
func computeWaves(res *Result) []Wave {
	groups := make(map[int][]string)
	var starts []int
	for _, id := range res.Order {
		es := res.Tasks[id].ES
		if _, seen := groups[es]; !seen {
			starts = append(starts, es)
		}
		groups[es] = append(groups[es], id)
	}
	// Topological order only guarantees ordering along chains, so sort
	// the start offsets explicitly.
	sort.Ints(starts)

	waves := make([]Wave, len(starts))
	for i, es := range starts {
		ids := groups[es]
		critical := false
		for _, id := range ids {
			res.Tasks[id].Wave = i
			if res.Tasks[id].Critical {
				critical = true
			}
		}
		waves[i] = Wave{Index: i, TaskIDs: ids, Critical: critical}
	}
	return waves
}
