package report

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	okColor    = lipgloss.Color("#10B981") // Green
	warnColor  = lipgloss.Color("#F59E0B") // Amber
	errorColor = lipgloss.Color("#EF4444") // Red
	mutedColor = lipgloss.Color("#6B7280") // Gray
	titleColor = lipgloss.Color("#7C3AED") // Purple

	// TitleStyle frames section headings
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(titleColor)

	// OkStyle marks successful outcomes
	OkStyle = lipgloss.NewStyle().
		Foreground(okColor).
		Bold(true)

	// WarnStyle marks dry-run previews
	WarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	// ErrorStyle marks failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	// MutedStyle renders secondary detail
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)
