package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spiffcs/ciwatch/internal/format"
	"github.com/spiffcs/ciwatch/internal/model"
)

var (
	// Status icons
	iconSucceeded = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(format.SucceededIcon)
	iconFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(format.FailedIcon)

	// Styles
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	repoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)
)

// statusIcon returns the styled icon for a row. In-progress rows animate
// with the spinner frame.
func statusIcon(kind model.StatusKind, spinnerFrame string) string {
	switch kind {
	case model.KindSucceeded:
		return iconSucceeded
	case model.KindFailed:
		return iconFailed
	case model.KindInProgress:
		return spinnerStyle.Render(spinnerFrame)
	default:
		return dimStyle.Render(format.QueuedIcon)
	}
}
