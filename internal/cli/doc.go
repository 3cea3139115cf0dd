// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the avesta command-line interface: argument
// parsing, the line-mode chat REPL, the one-shot ask command, and the
// session, config, and models management commands.
//
// The TUI itself lives in internal/ui; this package only dispatches to it.
// Line-mode commands share the same config, storage, and streaming pipeline
// as the TUI, so a session started in chat is visible in the TUI and vice
// versa.
package cli
