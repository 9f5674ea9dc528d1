package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header   lipgloss.Style
	blurb    lipgloss.Style
	user     lipgloss.Style
	progress lipgloss.Style
	status   lipgloss.Style
	help     lipgloss.Style
	input    lipgloss.Style
}

func newTheme() theme {
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(blue).
			Padding(0, 1),
		blurb: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		user:     lipgloss.NewStyle().Foreground(mint).Bold(true),
		progress: lipgloss.NewStyle().Foreground(muted),
		status:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		help:     lipgloss.NewStyle().Foreground(muted),
		input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
	}
}
