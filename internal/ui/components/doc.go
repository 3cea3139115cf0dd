// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable view pieces of the avesta TUI:
// message bubbles, the header and status bar, the streaming spinner, the
// session/model picker overlay, and code block highlighting.
//
// Components are plain renderers: they hold a *styles.Theme and expose
// setters plus a View method. Only Spinner participates in the Bubble Tea
// update loop.
package components
