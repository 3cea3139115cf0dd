// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for CLI output.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func init() {
	// Pin the color profile once so piped output degrades to plain text.
	lipgloss.SetColorProfile(GetColorProfile())
}

// Shared styles for command output. The TUI carries its own theme; these
// cover the line-oriented commands (ask, chat, session, config).
var (
	// TitleStyle for command headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// SectionStyle for section headers
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	// LabelStyle for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(20)

	// ValueStyle for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// SuccessStyle for positive status
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// ErrorStyle for failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// WarningStyle for cautions
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle for de-emphasized text
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SeparatorStyle for horizontal rules
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// HighlightStyle for emphasized values
	HighlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	// InfoStyle for informational notes
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	// PromptStyle for the chat input prompt
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// CommandHelpStyle for slash command names in help output
	CommandHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("75"))
)

// RenderSeparator returns a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return SeparatorStyle.Render(strings.Repeat("─", width))
}

// RenderLabel renders a label/value pair on one line.
func RenderLabel(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

// RenderStatus renders a status line with a colored marker.
func RenderStatus(ok bool, text string) string {
	if ok {
		return SuccessStyle.Render("✓ ") + text
	}
	return ErrorStyle.Render("✗ ") + text
}
