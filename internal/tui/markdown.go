package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// newRenderer builds a markdown renderer wrapping at width. style is a
// glamour standard style name; "" or "auto" picks one from the terminal.
func newRenderer(style string, width int) (*glamour.TermRenderer, error) {
	if width < 20 {
		width = 20
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	return glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
}

// renderMarkdown renders md for the terminal, falling back to the raw
// text when no renderer is available or rendering fails.
func renderMarkdown(r *glamour.TermRenderer, md string) string {
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
