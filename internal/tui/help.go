package tui

import (
	"rehabinv-cli/internal/docs"
)

// renderHelp renders the keys topic for the help overlay.
func renderHelp(width int) string {
	body, ok := docs.Get("keys")
	if !ok {
		return "No help available."
	}
	return docs.Render(body, markdownStyle(), width)
}
