package cliui

import "github.com/charmbracelet/glamour"

// RenderMarkdown renders content for the terminal with glamour, wrapped at
// 80 columns. On failure it returns content unchanged with the error.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
