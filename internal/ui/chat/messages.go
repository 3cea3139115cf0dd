// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// messages.go - Bubble Tea message types for the chat view.
package chat

import (
	"time"

	"github.com/avesta-ai/avesta/internal/model"
)

// SessionsChangedMsg reports a session list or message mutation.
type SessionsChangedMsg struct {
	SessionID string
}

// TurnStartedMsg reports that a submission was accepted and streaming
// began.
type TurnStartedMsg struct {
	SessionID string
}

// FragmentMsg reports that a response fragment was applied to the store.
// The text itself is read back from the store, not carried here.
type FragmentMsg struct {
	SessionID string
}

// TurnCompletedMsg reports normal stream completion.
type TurnCompletedMsg struct {
	SessionID string
	Stats     *model.Statistics
}

// TurnFailedMsg reports a turn that ended in the failure reply.
type TurnFailedMsg struct {
	SessionID string
	Err       error
}

// StreamTickMsg drives the capped-rate streaming render loop.
type StreamTickMsg struct {
	Time time.Time
}

// ConfigReloadedMsg reports that the configuration file changed on disk
// and the global config was reloaded.
type ConfigReloadedMsg struct{}

// statusClearMsg clears a transient status bar message.
type statusClearMsg struct {
	seq int
}

// handoffMsg delivers an opening message staged before the view mounted.
type handoffMsg struct {
	text string
}
