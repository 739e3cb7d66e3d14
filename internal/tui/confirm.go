// Package tui provides the interactive confirmation prompt shown before
// destructive operations.
package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmKeyMap defines keybindings for the confirmation prompt.
type ConfirmKeyMap struct {
	Yes     key.Binding
	No      key.Binding
	Default key.Binding
	Quit    key.Binding
}

// ConfirmKeys are the keybindings for the confirmation prompt.
var ConfirmKeys = ConfirmKeyMap{
	Yes: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	),
	Default: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "default"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

// confirmModel is the bubbletea model for a single yes/no question.
type confirmModel struct {
	prompt     string
	answered   bool
	accepted   bool
	defaultYes bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, ConfirmKeys.Yes):
		m.answered = true
		m.accepted = true

		return m, tea.Quit
	case key.Matches(keyMsg, ConfirmKeys.No):
		m.answered = true
		m.accepted = false

		return m, tea.Quit
	case key.Matches(keyMsg, ConfirmKeys.Default):
		m.answered = true
		m.accepted = m.defaultYes

		return m, tea.Quit
	case key.Matches(keyMsg, ConfirmKeys.Quit):
		m.answered = true
		m.accepted = false

		return m, tea.Quit
	}

	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}

	var b strings.Builder

	hint := "y/N"
	if m.defaultYes {
		hint = "Y/n"
	}

	box := BoxStyle.Render(m.prompt + "  " +
		HelpKeyStyle.Render(hint))
	b.WriteString(box)
	b.WriteString("\n")
	b.WriteString(RenderHelp(
		"y", "yes",
		"n", "no",
		"enter", "default",
		"esc", "cancel",
	))

	return BaseStyle.Render(b.String())
}

// Confirmer asks the user a yes/no question.
type Confirmer struct {
	in  io.Reader
	out io.Writer
}

// NewConfirmer returns a Confirmer bound to stdin/stdout.
func NewConfirmer() *Confirmer {
	return &Confirmer{in: os.Stdin, out: os.Stdout}
}

// NewConfirmerWithIO returns a Confirmer reading answers from in and
// writing prompts to out. Used in tests.
func NewConfirmerWithIO(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: in, out: out}
}

// Confirm asks the question and returns the answer. When stdout is a
// terminal it runs the interactive prompt, otherwise it falls back to a
// plain line read so piped invocations still work.
func (c *Confirmer) Confirm(prompt string, defaultYes bool) (bool, error) {
	if c.in == os.Stdin && IsTerminal() {
		return c.confirmInteractive(prompt, defaultYes)
	}

	return c.confirmPlain(prompt, defaultYes)
}

func (c *Confirmer) confirmInteractive(prompt string, defaultYes bool) (bool, error) {
	m := confirmModel{prompt: prompt, defaultYes: defaultYes}

	p := tea.NewProgram(m)

	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("running confirmation prompt: %w", err)
	}

	result, ok := final.(confirmModel)
	if !ok {
		return false, nil
	}

	return result.accepted, nil
}

func (c *Confirmer) confirmPlain(prompt string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	if _, err := fmt.Fprintf(c.out, "%s [%s] ", prompt, hint); err != nil {
		return false, fmt.Errorf("writing prompt: %w", err)
	}

	reader := bufio.NewReader(c.in)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		// EOF with no input means the default answer.
		return defaultYes, nil
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	case "":
		return defaultYes, nil
	default:
		return false, nil
	}
}

// IsTerminal checks if stdout is a terminal
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
