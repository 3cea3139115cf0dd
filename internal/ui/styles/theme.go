// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// theme.go - Composed lipgloss styles for the avesta TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme holds the composed styles every view renders with. Styles are
// built once in NewTheme; size-dependent styles are refreshed by SetSize.
type Theme struct {
	// Dimensions
	Width  int
	Height int

	// Chrome
	Header     lipgloss.Style
	HeaderText lipgloss.Style
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusVal  lipgloss.Style

	// Messages
	UserBubble      lipgloss.Style
	UserLabel       lipgloss.Style
	AssistantBubble lipgloss.Style
	AssistantLabel  lipgloss.Style
	FailureBubble   lipgloss.Style
	Timestamp       lipgloss.Style
	StatsLine       lipgloss.Style
	AttachmentChip  lipgloss.Style

	// Input
	InputBox        lipgloss.Style
	InputBoxFocused lipgloss.Style
	Placeholder     lipgloss.Style

	// Overlays (pickers, help)
	OverlayBox    lipgloss.Style
	OverlayTitle  lipgloss.Style
	ListItem      lipgloss.Style
	ListSelected  lipgloss.Style
	ListAnnot     lipgloss.Style

	// General
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Error  lipgloss.Style
}

// NewTheme builds the default theme.
func NewTheme() *Theme {
	t := &Theme{Width: 80, Height: 24}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderText = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.StatusVal = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserBubble = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Foreground(UserBubbleFg).
		Padding(0, 1)
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantBubble = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Foreground(TextPrimary).
		Padding(0, 1)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.FailureBubble = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Foreground(FailureBubbleFg).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatsLine = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.AttachmentChip = lipgloss.NewStyle().
		Background(Overlay).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.InputBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)
	t.InputBoxFocused = t.InputBox.
		BorderForeground(FocusRing)
	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.OverlayBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Purple).
		Padding(1, 2)
	t.OverlayTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.ListItem = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.ListSelected = lipgloss.NewStyle().
		Background(SelectionBg).
		Foreground(TextPrimary).
		Bold(true)
	t.ListAnnot = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Accent = lipgloss.NewStyle().Foreground(Cyan)
	t.Error = lipgloss.NewStyle().Foreground(Rose)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode classifies the terminal width for responsive rendering.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-99 columns
	LayoutWide                     // >= 100 columns
)

// GetLayoutMode returns the layout mode for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	switch {
	case t.Width < 60:
		return LayoutNarrow
	case t.Width < 100:
		return LayoutMedium
	default:
		return LayoutWide
	}
}

// BubbleWidth returns the maximum content width for a message bubble.
func (t *Theme) BubbleWidth() int {
	w := t.Width - 8
	if t.GetLayoutMode() == LayoutWide {
		w = t.Width * 3 / 4
	}
	if w < 20 {
		w = 20
	}
	return w
}
