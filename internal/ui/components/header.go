// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// header.go - Top chrome: session title and model badge.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/avesta-ai/avesta/internal/ui/styles"
	"github.com/avesta-ai/avesta/internal/util"
)

// Header renders the one-line top bar.
type Header struct {
	theme *styles.Theme
	width int

	title     string
	modelName string
	streaming bool
}

// NewHeader creates the header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme, width: theme.Width, title: "New Chat"}
}

// SetWidth sets the render width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetTitle sets the session title.
func (h *Header) SetTitle(title string) {
	if title == "" {
		title = "New Chat"
	}
	h.title = title
}

// SetModel sets the model badge text.
func (h *Header) SetModel(name string) {
	h.modelName = name
}

// SetStreaming toggles the in-flight marker.
func (h *Header) SetStreaming(streaming bool) {
	h.streaming = streaming
}

// View renders the header bar.
func (h *Header) View() string {
	left := h.theme.HeaderText.Render("avesta") + "  " + h.theme.Muted.Render(util.TruncateWidth(h.title, h.width/2))

	right := h.theme.Accent.Render(h.modelName)
	if h.streaming {
		right = lipgloss.NewStyle().Foreground(styles.Amber).Render("● ") + right
	}

	gap := h.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Width(h.width).Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}
