// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates chat turns from submission to completed
// or failed assistant response.
package orchestrator

import "sync"

// Handoff is a write-once/read-once channel for an initial chat message set
// outside the chat view (a launcher argument, another screen). The chat
// view consumes it exactly once at mount and sends it as if the user had
// typed it; a second consume finds nothing.
type Handoff struct {
	mu      sync.Mutex
	text    string
	pending bool
}

// NewHandoff creates an empty handoff slot.
func NewHandoff() *Handoff {
	return &Handoff{}
}

// Set stores a pending initial message, replacing any unconsumed one.
// Empty text clears the slot.
func (h *Handoff) Set(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.text = text
	h.pending = text != ""
}

// Consume returns the pending message and clears the slot.
func (h *Handoff) Consume() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.pending {
		return "", false
	}
	text := h.text
	h.text = ""
	h.pending = false
	return text, true
}
