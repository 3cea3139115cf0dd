// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// colors.go - Adaptive color palette for the avesta TUI.
//
// All colors are lipgloss.AdaptiveColor pairs so the UI stays readable on
// both light and dark terminal backgrounds.
package styles

import "github.com/charmbracelet/lipgloss"

// Accent colors

// Purple - Primary accent, assistant messages, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, info, user highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, completed turns
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors, failed turns, delete confirmations
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, in-flight indicators
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Surfaces

// Surface - Default background for panels
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Recessed background (status bar, gutters)
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Popup and picker backgrounds
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim - Popup borders
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// Text

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, very subtle text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on accent backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// Message bubbles

// User message bubble - Blue tones, right-aligned
var UserBubbleBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1D4ED8"}
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

// Assistant message bubble - Purple tones, left-aligned
var AssistantBubbleBg = lipgloss.AdaptiveColor{Light: "#F5F3FF", Dark: "#3B3655"}
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}

// Failure reply bubble - Rose tones
var FailureBubbleBg = lipgloss.AdaptiveColor{Light: "#FEE2E2", Dark: "#4C1D24"}
var FailureBubbleFg = lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FECACA"}

// Selection and focus

// FocusRing - Focused component borders
var FocusRing = Cyan

// SelectionBg - Selected list rows
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// Status rendering helpers

var successStyle = lipgloss.NewStyle().Foreground(Emerald)
var errorStyle = lipgloss.NewStyle().Foreground(Rose)
var warningStyle = lipgloss.NewStyle().Foreground(Amber)
var infoStyle = lipgloss.NewStyle().Foreground(Cyan)

// RenderSuccess renders a success message with a check mark.
func RenderSuccess(message string) string {
	return successStyle.Render("✓ " + message)
}

// RenderError renders an error message with a cross mark.
func RenderError(message string) string {
	return errorStyle.Render("✗ " + message)
}

// RenderWarning renders a warning message.
func RenderWarning(message string) string {
	return warningStyle.Render("⚠ " + message)
}

// RenderInfo renders an informational message.
func RenderInfo(message string) string {
	return infoStyle.Render("ℹ " + message)
}

// RenderStatus renders success or error depending on the flag.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}
