// Package tui renders the workspace dashboard and terminal output helpers.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorText      = lipgloss.Color("#E5E7EB") // Light gray
	ColorTextMuted = lipgloss.Color("#9CA3AF") // Muted gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
)

// Base styles
var (
	// TitleStyle is for the dashboard title bar.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SectionStyle frames one dashboard section.
	SectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// SectionTitleStyle is for section headings.
	SectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorSecondary)

	// LabelStyle is for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// ValueStyle is for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	// Status styles
	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	RespondedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	FailedStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// OKStyle marks a passing health check.
	OKStyle = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	// BadStyle marks a failing health check.
	BadStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// ErrorStyle is for error display.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(1, 2)

	// HelpStyle is for key hints.
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	// SubtleStyle is for secondary text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// StatusStyle returns the style for a request status string.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "pending", "launching", "waiting_response":
		return PendingStyle
	case "responded", "completed":
		return RespondedStyle
	case "failed":
		return FailedStyle
	default:
		return ValueStyle
	}
}

// SeverityStyle returns the style for an error log severity.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical", "high":
		return BadStyle
	case "medium":
		return PendingStyle
	default:
		return SubtleStyle
	}
}
