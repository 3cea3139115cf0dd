// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// spinner.go - Streaming activity indicator.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avesta-ai/avesta/internal/ui/styles"
)

// Spinner wraps the bubbles spinner with a message and elapsed timer, shown
// while a response is streaming.
type Spinner struct {
	inner   spinner.Model
	message string
	active  bool
	started time.Time
}

// NewSpinner creates the streaming spinner.
func NewSpinner() Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Purple)
	return Spinner{inner: s, message: "Responding"}
}

// SetMessage changes the label next to the spinner glyph.
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// Start activates the spinner and returns its tick command.
func (s *Spinner) Start() tea.Cmd {
	s.active = true
	s.started = time.Now()
	return s.inner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.active = false
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	return s.active
}

// Update advances the animation.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.active {
		return s, nil
	}
	var cmd tea.Cmd
	s.inner, cmd = s.inner.Update(msg)
	return s, cmd
}

// View renders the spinner line, or "" when inactive.
func (s Spinner) View() string {
	if !s.active {
		return ""
	}
	elapsed := time.Since(s.started)
	var timer string
	if elapsed >= time.Second {
		timer = fmt.Sprintf(" (%ds)", int(elapsed.Seconds()))
	}
	muted := lipgloss.NewStyle().Foreground(styles.TextMuted)
	return s.inner.View() + " " + s.message + muted.Render(timer)
}
