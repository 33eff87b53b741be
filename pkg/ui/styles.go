// Package ui holds the terminal presentation layer: colors, the banner,
// and capability detection. Nothing here touches engine state.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	Primary   = lipgloss.Color("#00D4AA") // teal, brand color
	Secondary = lipgloss.Color("#7D56F4") // purple

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")

	Status2xx = lipgloss.Color("#00D26A")
	Status3xx = lipgloss.Color("#4D96FF")
	Status4xx = lipgloss.Color("#FFD93D")
	Status5xx = lipgloss.Color("#FF3838")
)

// Pre-configured styles.
var (
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// PayloadStyle renders a synthesized payload, the one thing users
	// copy out of the output.
	PayloadStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	FoundStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	BlockedStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	ProbeStyle = lipgloss.NewStyle().
			Foreground(Muted)

	OutputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	PromptStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)
)

// StatusCodeStyle returns the style for an HTTP status code.
func StatusCodeStyle(code int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch {
	case code >= 200 && code < 300:
		return base.Foreground(Status2xx)
	case code >= 300 && code < 400:
		return base.Foreground(Status3xx)
	case code >= 400 && code < 500:
		return base.Foreground(Status4xx)
	case code >= 500:
		return base.Foreground(Status5xx)
	default:
		return base.Foreground(Muted)
	}
}
