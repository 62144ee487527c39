// Package report renders planning results for terminal output and encodes
// them for machine consumers. Rendering is read-only over the engine's
// result; it never recomputes schedule data.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jarondonp/waypoint/internal/baseline"
	"github.com/jarondonp/waypoint/internal/cpm"
	"github.com/jarondonp/waypoint/internal/engine"
)

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleCritical = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleHint     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)

// Schedule renders the full planning result: the schedule table, the
// critical path, warnings, and suggestions.
func Schedule(res engine.Result) string {
	var b strings.Builder

	if res.HasCycle() {
		b.WriteString(styleWarn.Render("scheduling aborted") + "\n")
		for _, w := range res.Warnings {
			b.WriteString(styleWarn.Render("! "+w) + "\n")
		}
		return b.String()
	}

	critical := make(map[string]bool, len(res.CriticalPath))
	for _, id := range res.CriticalPath {
		critical[id] = true
	}

	b.WriteString(styleHeader.Render("Schedule") + "\n")
	idW, titleW := columnWidths(res)
	for _, t := range res.Tasks {
		line := fmt.Sprintf("  %-*s  %-*s  %s .. %s", idW, t.ID, titleW, t.Title, t.StartDate, t.DueDate)
		if critical[t.ID] {
			line += "  " + styleCritical.Render("critical")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(styleHeader.Render("Critical path") + "\n")
	if len(res.CriticalPath) == 0 {
		b.WriteString(styleHint.Render("  (none)") + "\n")
	} else {
		b.WriteString("  " + styleCritical.Render(strings.Join(res.CriticalPath, " -> ")) + "\n")
	}

	for _, w := range res.Warnings {
		b.WriteString(styleWarn.Render("! "+w) + "\n")
	}
	for _, s := range res.Suggestions {
		b.WriteString(styleHint.Render("* "+s) + "\n")
	}
	return b.String()
}

// Critical renders the per-task CPM table: earliest/latest offsets, slack,
// and wave membership, followed by the wave groupings.
func Critical(res *cpm.Result) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Critical path analysis") + "\n")
	b.WriteString(fmt.Sprintf("  total duration: %d min\n", res.TotalMins))

	b.WriteString(fmt.Sprintf("  %-16s %6s %6s %6s %6s %6s %5s\n",
		"task", "ES", "EF", "LS", "LF", "slack", "wave"))
	for _, id := range res.Order {
		s := res.Tasks[id]
		line := fmt.Sprintf("  %-16s %6d %6d %6d %6d %6d %5d",
			id, s.ES, s.EF, s.LS, s.LF, s.Slack, s.Wave)
		if s.Critical {
			line = styleCritical.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(styleHeader.Render("Waves") + "\n")
	for _, w := range res.Waves {
		marker := " "
		if w.Critical {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("  %s wave %d: %s\n", marker, w.Index, strings.Join(w.TaskIDs, ", ")))
	}
	return b.String()
}

// Drift renders a baseline comparison.
func Drift(rep baseline.Report) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Baseline drift: "+rep.Name) + "\n")
	for _, d := range rep.Drifts {
		switch {
		case d.Added:
			b.WriteString(styleHint.Render(fmt.Sprintf("  + %s (new task)", d.TaskID)) + "\n")
		case d.Removed:
			b.WriteString(styleHint.Render(fmt.Sprintf("  - %s (removed)", d.TaskID)) + "\n")
		case d.DueDeltaDays != 0 || d.StartDeltaDays != 0:
			line := fmt.Sprintf("  ~ %s start %+d day(s), due %+d day(s)", d.TaskID, d.StartDeltaDays, d.DueDeltaDays)
			if d.NowCritical && !d.WasCritical {
				line += " [now critical]"
			}
			if d.DueDeltaDays > 0 {
				b.WriteString(styleWarn.Render(line) + "\n")
			} else {
				b.WriteString(styleOK.Render(line) + "\n")
			}
		}
	}
	b.WriteString("  " + rep.Summary + "\n")
	return b.String()
}

// EncodeJSON serializes a result using the engine's output contract.
func EncodeJSON(res engine.Result) ([]byte, error) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: encode json: %w", err)
	}
	return append(out, '\n'), nil
}

// EncodeYAML serializes a result as YAML for task-service consumers.
func EncodeYAML(res engine.Result) ([]byte, error) {
	// Round-trip through the JSON contract so field names match the
	// engine's serialized shape instead of Go identifiers.
	blob, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("report: encode yaml: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(blob, &generic); err != nil {
		return nil, fmt.Errorf("report: encode yaml: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("report: encode yaml: %w", err)
	}
	return out, nil
}

// columnWidths returns padded widths for the id and title columns.
func columnWidths(res engine.Result) (int, int) {
	idW, titleW := 4, 5
	for _, t := range res.Tasks {
		if len(t.ID) > idW {
			idW = len(t.ID)
		}
		if len(t.Title) > titleW {
			titleW = len(t.Title)
		}
	}
	return idW, titleW
}
