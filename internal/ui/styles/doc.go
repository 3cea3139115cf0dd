// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the adaptive color palette and composed lipgloss
// styles shared by all avesta TUI views.
//
// Colors are AdaptiveColor pairs that pick a variant per terminal
// background. Theme composes them into ready-to-render styles; views hold
// a *Theme and never construct lipgloss styles inline, so the whole UI
// restyles from one place.
package styles
