// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the full-screen Bubble Tea chat view: the
// transcript viewport, input line, session and model pickers, and the
// streaming render loop.
//
// The view never talks to the provider directly. User actions go through
// the orchestrator; orchestrator events come back in as Bubble Tea
// messages (forwarded by the program runner) and the view re-reads the
// session store to render. Streaming updates are batched by a
// StreamingBuffer and applied on a capped-rate tick so fast streams do not
// flood the renderer.
package chat
