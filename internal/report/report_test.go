package report

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"

	"github.com/dotstrap/dotstrap/internal/registry"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	outcomes := []registry.Outcome{
		registry.Installed("packages", ""),
		registry.Skipped("nvim", "already installed"),
		registry.WouldRun("tmux", "brew install tmux"),
		registry.Failed("doom", errors.New("clone failed")),
		registry.Removed("dotfiles", ""),
	}

	s := Summarize(outcomes)

	if s.Installed != 1 {
		t.Errorf("Installed = %d, want 1", s.Installed)
	}
	if s.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", s.Skipped)
	}
	if s.WouldRun != 1 {
		t.Errorf("WouldRun = %d, want 1", s.WouldRun)
	}
	if s.Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Failed)
	}
	if s.Removed != 1 {
		t.Errorf("Removed = %d, want 1", s.Removed)
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		outcomes []registry.Outcome
		want     int
	}{
		{
			name:     "no outcomes",
			outcomes: nil,
			want:     ExitOK,
		},
		{
			name: "all succeeded",
			outcomes: []registry.Outcome{
				registry.Installed("packages", ""),
				registry.Skipped("nvim", "already installed"),
			},
			want: ExitOK,
		},
		{
			name: "one failure",
			outcomes: []registry.Outcome{
				registry.Installed("packages", ""),
				registry.Failed("doom", errors.New("clone failed")),
			},
			want: ExitUnitFailure,
		},
		{
			name: "dry run only",
			outcomes: []registry.Outcome{
				registry.WouldRun("packages", "brew install ripgrep"),
			},
			want: ExitOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Summarize(tt.outcomes).ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFailedUnits(t *testing.T) {
	t.Parallel()

	outcomes := []registry.Outcome{
		registry.Failed("doom", errors.New("clone failed")),
		registry.Installed("tmux", ""),
		registry.Failed("starship", errors.New("download failed")),
	}

	failed := Summarize(outcomes).FailedUnits()

	if len(failed) != 2 {
		t.Fatalf("len(failed) = %d, want 2", len(failed))
	}

	if failed[0].Unit != "doom" || failed[1].Unit != "starship" {
		t.Errorf("failed units = %s, %s; want doom, starship", failed[0].Unit, failed[1].Unit)
	}
}

// TestRender_Snapshots verifies the rendered run summary against golden
// files.
func TestRender_Snapshots(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []registry.Outcome
	}{
		{
			name: "mixed",
			outcomes: []registry.Outcome{
				registry.Installed("packages", ""),
				registry.Skipped("nvim", "already installed"),
				registry.WouldRun("tmux", "brew install tmux"),
				registry.Failed("doom", errors.New("clone failed")),
			},
		},
		{
			name: "uninstall",
			outcomes: []registry.Outcome{
				registry.Removed("dotfiles", "symlinks removed"),
				registry.Removed("tmux", ""),
				registry.Skipped("packages", "explicitly skipped"),
			},
		},
		{
			name:     "empty",
			outcomes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Force ASCII color profile for consistent rendering
			lipgloss.SetColorProfile(termenv.Ascii)

			output := Summarize(tt.outcomes).Render()
			normalized := normalizeOutput(stripAnsiCodes(output))

			g := goldie.New(t)
			g.Assert(t, tt.name, []byte(normalized))
		})
	}
}

func TestRenderStatus(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	rows := []StatusRow{
		{Unit: "packages", Present: true, LastOutcome: "installed", LastRun: "2026-08-30 10:00"},
		{Unit: "nvim", Present: false},
	}

	out := stripAnsiCodes(RenderStatus(rows))

	if !strings.Contains(out, "packages") || !strings.Contains(out, "installed") {
		t.Errorf("status output missing installed unit: %q", out)
	}

	if !strings.Contains(out, "not installed") {
		t.Errorf("status output missing absent unit state: %q", out)
	}

	if !strings.Contains(out, "last run: installed (2026-08-30 10:00)") {
		t.Errorf("status output missing journal line: %q", out)
	}
}

// ansiRegex matches ANSI escape sequences for color and formatting
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// normalizeOutput trims trailing whitespace per line and trailing empty
// lines so terminal width differences do not break comparisons.
func normalizeOutput(s string) string {
	lines := strings.Split(s, "\n")

	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}
