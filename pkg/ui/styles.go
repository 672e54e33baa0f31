// Package ui holds the lipgloss styles shared by the terminal output.
package ui

import "github.com/charmbracelet/lipgloss"

// Common styles used across the command output.
var (
	// Status colors
	StatusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)

	StatusSkippedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)

	StatusPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	// Text styles
	BoldStyle = lipgloss.NewStyle().Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	AccentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// Status markers.
const (
	MarkOK      = "✓"
	MarkWarn    = "!"
	MarkFail    = "✗"
	MarkSkipped = "-"
	MarkPending = "○"
)

// StatusStyle returns the style for a step or check status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return StatusOKStyle
	case "skipped", "warning":
		return StatusSkippedStyle
	case "failed", "error":
		return StatusFailedStyle
	default:
		return StatusPendingStyle
	}
}

// StatusMark returns the marker for a status.
func StatusMark(status string) string {
	switch status {
	case "ok":
		return MarkOK
	case "skipped":
		return MarkSkipped
	case "warning":
		return MarkWarn
	case "failed", "error":
		return MarkFail
	default:
		return MarkPending
	}
}

// RenderStatus renders a status marker with its color.
func RenderStatus(status string) string {
	return StatusStyle(status).Render(StatusMark(status))
}
