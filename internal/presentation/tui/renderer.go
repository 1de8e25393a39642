package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown reports using glamour.
// An empty style detects a light or dark background. When glamour cannot be set up
// the markdown is returned as is.
func NewRenderer(style string, width int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithEmoji()}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
