// Package report aggregates per-unit outcomes into the final run summary
// and exit behavior.
package report

import (
	"fmt"
	"strings"

	"github.com/dotstrap/dotstrap/internal/registry"
)

// Process exit codes.
const (
	// ExitOK covers success, help and status display; skips and warnings
	// are not failures.
	ExitOK = 0
	// ExitUnitFailure is returned when at least one unit failed.
	ExitUnitFailure = 1
	// ExitPreflight is returned when required external commands are missing
	// before any unit runs.
	ExitPreflight = 2
)

// Summary aggregates the ordered outcomes of one run.
type Summary struct {
	Outcomes  []registry.Outcome
	Installed int
	Removed   int
	Skipped   int
	Failed    int
	WouldRun  int
}

// Summarize counts outcomes by kind, preserving order for rendering.
func Summarize(outcomes []registry.Outcome) Summary {
	s := Summary{Outcomes: outcomes}

	for _, o := range outcomes {
		switch o.Kind {
		case registry.KindInstalled:
			s.Installed++
		case registry.KindRemoved:
			s.Removed++
		case registry.KindSkipped:
			s.Skipped++
		case registry.KindFailed:
			s.Failed++
		case registry.KindWouldRun:
			s.WouldRun++
		}
	}

	return s
}

// ExitCode maps the summary onto the process exit code.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return ExitUnitFailure
	}

	return ExitOK
}

// FailedUnits returns the names and messages of failed units, in run order.
func (s Summary) FailedUnits() []registry.Outcome {
	failed := make([]registry.Outcome, 0, s.Failed)

	for _, o := range s.Outcomes {
		if o.Kind == registry.KindFailed {
			failed = append(failed, o)
		}
	}

	return failed
}

// Render produces the human-readable run report: one line per unit, counts
// by outcome kind, and an explicit digest of failed units.
func (s Summary) Render() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Run summary"))
	b.WriteString("\n\n")

	for _, o := range s.Outcomes {
		b.WriteString(renderOutcomeLine(o))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.renderCounts())
	b.WriteString("\n")

	if s.Failed > 0 {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("Failed units:"))
		b.WriteString("\n")

		for _, o := range s.FailedUnits() {
			b.WriteString(fmt.Sprintf("  %s: %s\n", o.Unit, o.Detail))
		}
	}

	return b.String()
}

func renderOutcomeLine(o registry.Outcome) string {
	var marker, label string

	switch o.Kind {
	case registry.KindInstalled:
		marker = OkStyle.Render("✓")
		label = "installed"
	case registry.KindRemoved:
		marker = OkStyle.Render("✓")
		label = "removed"
	case registry.KindSkipped:
		marker = MutedStyle.Render("-")
		label = "skipped"
	case registry.KindWouldRun:
		marker = WarnStyle.Render("→")
		label = "would run"
	case registry.KindFailed:
		marker = ErrorStyle.Render("✗")
		label = "failed"
	}

	line := fmt.Sprintf("%s %-10s %s", marker, o.Unit, label)
	if o.Detail != "" {
		line += MutedStyle.Render(" (" + o.Detail + ")")
	}

	return line
}

func (s Summary) renderCounts() string {
	parts := make([]string, 0, 5)

	if s.Installed > 0 {
		parts = append(parts, fmt.Sprintf("%d installed", s.Installed))
	}

	if s.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", s.Removed))
	}

	if s.WouldRun > 0 {
		parts = append(parts, fmt.Sprintf("%d would run", s.WouldRun))
	}

	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}

	if s.Failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", s.Failed)))
	}

	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}

	return strings.Join(parts, ", ")
}

// StatusRow is one line of the --status display.
type StatusRow struct {
	Unit        string
	Description string
	LastOutcome string
	LastRun     string
	Present     bool
}

// RenderStatus produces the --status display: per-unit presence plus the
// last recorded outcome from the run journal.
func RenderStatus(rows []StatusRow) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Unit status"))
	b.WriteString("\n\n")

	for _, row := range rows {
		marker := MutedStyle.Render("✗")
		state := "not installed"

		if row.Present {
			marker = OkStyle.Render("✓")
			state = "installed"
		}

		line := fmt.Sprintf("%s %-10s %-13s", marker, row.Unit, state)

		if row.LastOutcome != "" {
			line += MutedStyle.Render(fmt.Sprintf(" last run: %s (%s)", row.LastOutcome, row.LastRun))
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
