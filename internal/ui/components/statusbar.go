// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// statusbar.go - Bottom chrome: key hints and transient status.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avesta-ai/avesta/internal/ui/styles"
)

// StatusBar renders the one-line bottom bar with key hints on the left and
// a transient status message on the right.
type StatusBar struct {
	theme *styles.Theme
	width int

	hints  [][2]string
	status string
	isErr  bool
}

// NewStatusBar creates the status bar with default hints.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		theme: theme,
		width: theme.Width,
		hints: [][2]string{
			{"enter", "send"},
			{"ctrl+n", "new"},
			{"ctrl+s", "sessions"},
			{"ctrl+l", "models"},
			{"ctrl+c", "quit"},
		},
	}
}

// SetWidth sets the render width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetStatus shows a transient message; empty clears it.
func (s *StatusBar) SetStatus(msg string, isError bool) {
	s.status = msg
	s.isErr = isError
}

// SetHints replaces the key hints (used by overlays).
func (s *StatusBar) SetHints(hints [][2]string) {
	s.hints = hints
}

// View renders the bar.
func (s *StatusBar) View() string {
	parts := make([]string, 0, len(s.hints))
	max := len(s.hints)
	if s.theme.GetLayoutMode() == styles.LayoutNarrow && max > 3 {
		max = 3
	}
	for _, hint := range s.hints[:max] {
		parts = append(parts, s.theme.StatusKey.Render(hint[0])+" "+s.theme.StatusVal.Render(hint[1]))
	}
	left := strings.Join(parts, s.theme.Muted.Render(" · "))

	right := ""
	if s.status != "" {
		if s.isErr {
			right = s.theme.Error.Render(s.status)
		} else {
			right = s.theme.Accent.Render(s.status)
		}
	}

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.width).Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}
