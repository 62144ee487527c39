// Package depgraph validates the dependency relation over a task set:
// it detects cycles via depth-first traversal and produces a topological
// ordering when the graph is acyclic. Failure is reported structurally,
// never as an error value, so callers can surface a cycle as a warning
// rather than a crash.
package depgraph

import (
	"strings"

	"github.com/jarondonp/waypoint/internal/task"
)

// Ref identifies a dependency reference from a task to an id that does
// not exist in the task set.
type Ref struct {
	TaskID string
	DepID  string
}

func (r Ref) String() string {
	return r.TaskID + " -> " + r.DepID
}

// Result is the outcome of validating a task set. Exactly one of the two
// shapes applies: HasCycle false with Sorted holding a valid topological
// order, or HasCycle true with Cycle holding the witness path and Sorted
// degrading to the original input so callers always receive some list.
type Result struct {
	HasCycle bool

	// Cycle is the witness path when HasCycle is true: consecutive ids are
	// connected by a dependency edge, and the first id equals the last.
	Cycle []string

	// Sorted lists every task with dependencies before dependents, or the
	// unmodified input order when a cycle was found.
	Sorted []task.Task

	// Dangling lists references to ids absent from the task set. These are
	// skipped by the traversal; policy (warn vs. reject) is the caller's.
	Dangling []Ref
}

// CycleString renders the witness path for human diagnosis, e.g. "a -> b -> a".
func (r Result) CycleString() string {
	return strings.Join(r.Cycle, " -> ")
}

// DFS colors. A gray node is on the current traversal stack; reaching a
// gray dependency is a cycle.
const (
	white = iota
	gray
	black
)

// frame is one entry of the explicit DFS stack: a task index plus a cursor
// into its dependency list. Using an explicit stack bounds stack usage on
// pathological chains of thousands of sequential tasks.
type frame struct {
	idx  int
	next int
}

// Validate builds the implicit graph from each task's dependency list and
// runs an iterative depth-first traversal from every unvisited task, in
// input order. Tasks are appended to the output post-order, after all their
// dependencies, which yields a deterministic topological order for a given
// input. The first cycle encountered aborts the traversal.
func Validate(tasks []task.Task) Result {
	byID := task.Index(tasks)
	color := make([]int, len(tasks))

	var (
		sorted   = make([]task.Task, 0, len(tasks))
		dangling []Ref
		path     []string
		stack    []frame
	)

	for i := range tasks {
		if color[i] != white {
			continue
		}
		stack = append(stack[:0], frame{idx: i})
		path = append(path[:0], tasks[i].ID)
		color[i] = gray

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			t := tasks[f.idx]

			if f.next < len(t.DependsOn) {
				dep := t.DependsOn[f.next]
				f.next++

				j, ok := byID[dep]
				if !ok {
					dangling = append(dangling, Ref{TaskID: t.ID, DepID: dep})
					continue
				}
				switch color[j] {
				case gray:
					return Result{
						HasCycle: true,
						Cycle:    witness(path, dep),
						Sorted:   tasks,
						Dangling: dangling,
					}
				case white:
					color[j] = gray
					stack = append(stack, frame{idx: j})
					path = append(path, dep)
				}
				continue
			}

			color[f.idx] = black
			sorted = append(sorted, t)
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
		}
	}

	return Result{Sorted: sorted, Dangling: dangling}
}

// witness slices the current traversal path from the first occurrence of
// the repeated id to the current point, then closes the loop so the
// sequence starts and ends at the same id. A self-dependency produces the
// degenerate two-element witness [id, id].
func witness(path []string, repeat string) []string {
	start := 0
	for i, id := range path {
		if id == repeat {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(path)-start+1)
	cycle = append(cycle, path[start:]...)
	return append(cycle, repeat)
}
