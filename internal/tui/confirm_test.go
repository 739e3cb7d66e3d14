package tui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestConfirmPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{"yes", "y\n", false, true},
		{"yes word", "yes\n", false, true},
		{"no", "n\n", true, false},
		{"no word", "no\n", true, false},
		{"empty takes default no", "\n", false, false},
		{"empty takes default yes", "\n", true, true},
		{"garbage is no", "maybe\n", true, false},
		{"eof takes default", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			c := NewConfirmerWithIO(strings.NewReader(tt.input), &out)

			got, err := c.Confirm("Remove everything?", tt.defaultYes)
			if err != nil {
				t.Fatalf("Confirm() error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}

			if !strings.Contains(out.String(), "Remove everything?") {
				t.Errorf("prompt not written: %q", out.String())
			}
		})
	}
}

func TestConfirmPlainHint(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := NewConfirmerWithIO(strings.NewReader("n\n"), &out)

	if _, err := c.Confirm("Proceed?", false); err != nil {
		t.Fatalf("Confirm() error: %v", err)
	}

	if !strings.Contains(out.String(), "[y/N]") {
		t.Errorf("default-no hint missing: %q", out.String())
	}
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}

	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}

	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmModelUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        string
		defaultYes bool
		want       bool
	}{
		{"y accepts", "y", false, true},
		{"n declines", "n", true, false},
		{"enter takes default no", "enter", false, false},
		{"enter takes default yes", "enter", true, true},
		{"esc declines", "esc", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := confirmModel{prompt: "Proceed?", defaultYes: tt.defaultYes}

			updated, cmd := m.Update(keyMsg(tt.key))
			if cmd == nil {
				t.Fatal("Update() returned nil cmd, want tea.Quit")
			}

			result, ok := updated.(confirmModel)
			if !ok {
				t.Fatal("Update() returned unexpected model type")
			}

			if !result.answered || result.accepted != tt.want {
				t.Errorf("model = %+v, want answered with accepted=%v", result, tt.want)
			}
		})
	}
}

func TestConfirmModelView(t *testing.T) {
	t.Parallel()

	lipgloss.SetColorProfile(termenv.Ascii)

	m := confirmModel{prompt: "Remove everything?", defaultYes: false}

	view := m.View()
	if !strings.Contains(view, "Remove everything?") || !strings.Contains(view, "y/N") {
		t.Errorf("view missing prompt or hint: %q", view)
	}

	m.answered = true
	if m.View() != "" {
		t.Error("answered model should render nothing")
	}
}
