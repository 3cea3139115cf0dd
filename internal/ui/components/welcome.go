// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// welcome.go - Empty-state view for a session with no messages.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avesta-ai/avesta/internal/ui/styles"
)

const logo = `
  ▄▀█ █ █ █▀▀ █▀ ▀█▀ ▄▀█
  █▀█ ▀▄▀ ██▄ ▄█  █  █▀█`

// Welcome renders the centered empty-state panel.
type Welcome struct {
	theme     *styles.Theme
	version   string
	modelName string
}

// NewWelcome creates the welcome panel.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{theme: theme}
}

// SetVersion sets the displayed version string.
func (w *Welcome) SetVersion(version string) {
	w.version = version
}

// SetModelName sets the displayed model.
func (w *Welcome) SetModelName(name string) {
	w.modelName = name
}

// View renders the panel centered in the available space.
func (w Welcome) View(width, height int) string {
	accent := lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)

	var rows []string
	if height > 14 && width > 30 {
		rows = append(rows, accent.Render(logo))
		rows = append(rows, "")
	}
	rows = append(rows, w.theme.Muted.Render("Gemini chat for the terminal"))
	if w.version != "" {
		rows = append(rows, w.theme.Muted.Render("v"+w.version))
	}
	rows = append(rows, "")
	if w.modelName != "" {
		rows = append(rows, w.theme.Accent.Render(w.modelName))
		rows = append(rows, "")
	}
	rows = append(rows, w.theme.Muted.Render("Type a message and press enter to begin."))
	rows = append(rows, w.theme.Muted.Render("ctrl+s sessions · ctrl+l models · ctrl+h help"))

	content := strings.Join(rows, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
