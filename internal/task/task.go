// Package task defines the planning unit consumed by the scheduling engine
// and the TOML project-file format it is loaded from.
package task

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyID is returned when a task has no id.
var ErrEmptyID = errors.New("task has empty id")

// ErrDuplicateID is returned when two tasks share the same id.
var ErrDuplicateID = errors.New("duplicate task id")

// ErrBadDate is returned when a date field cannot be parsed as YYYY-MM-DD.
var ErrBadDate = errors.New("malformed date")

// ErrUnknownDependency is returned under strict validation when a task
// references an id that is not present in the task set.
var ErrUnknownDependency = errors.New("unknown dependency id")

// DateLayout is the calendar-date format used throughout the engine.
// Dates carry no time component and are normalized to UTC midnight.
const DateLayout = "2006-01-02"

// Task is a single unit of work. EstimateMins of 0 means no estimate was
// provided; the engine substitutes its default and emits a warning.
// StartDate is an optional manual pin; DueDate is engine output and is
// overwritten by scheduling even when present on input.
type Task struct {
	ID           string   `toml:"id" json:"id"`
	Title        string   `toml:"title" json:"title"`
	DependsOn    []string `toml:"depends_on" json:"dependencies,omitempty"`
	EstimateMins int      `toml:"estimate_mins" json:"estimated_duration,omitempty"`
	StartDate    string   `toml:"start_date" json:"start_date,omitempty"`
	DueDate      string   `toml:"due_date" json:"due_date,omitempty"`

	// Auxiliary fields passed through unchanged; the engine does not
	// read them. Priority derivation happens upstream.
	Impact             int     `toml:"impact" json:"impact,omitempty"`
	Effort             int     `toml:"effort" json:"effort,omitempty"`
	CalculatedPriority float64 `toml:"calculated_priority" json:"calculated_priority,omitempty"`
}

// ParseDate parses a YYYY-MM-DD string into a UTC-midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return t.UTC(), nil
}

// FormatDate renders a time as a YYYY-MM-DD calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Midnight truncates a time to UTC midnight, discarding any time-of-day
// component so calendar arithmetic is free of timezone drift.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Clone returns a deep copy of the task slice, including DependsOn slices,
// so scheduling passes never mutate caller-owned input.
func Clone(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t
		if len(t.DependsOn) > 0 {
			out[i].DependsOn = make([]string, len(t.DependsOn))
			copy(out[i].DependsOn, t.DependsOn)
		}
	}
	return out
}

// Index builds a map from task id to its position in the slice.
func Index(tasks []Task) map[string]int {
	m := make(map[string]int, len(tasks))
	for i, t := range tasks {
		m[t.ID] = i
	}
	return m
}

// Validate checks the structural invariants the engine assumes: non-empty
// unique ids and parseable dates. Self-references and dependency cycles are
// deliberately NOT rejected here; the graph validator reports them
// structurally so callers receive a warning instead of a hard error.
// When strict is true, dependencies on unknown ids are also rejected;
// otherwise they are left for the graph walk to surface as warnings.
func Validate(tasks []Task, strict bool) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return fmt.Errorf("%w (title %q)", ErrEmptyID, t.Title)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = true
		if t.StartDate != "" {
			if _, err := ParseDate(t.StartDate); err != nil {
				return fmt.Errorf("task %s start_date: %w", t.ID, err)
			}
		}
	}
	if strict {
		for _, t := range tasks {
			for _, dep := range t.DependsOn {
				if !seen[dep] {
					return fmt.Errorf("%w: task %s depends on %s", ErrUnknownDependency, t.ID, dep)
				}
			}
		}
	}
	return nil
}
