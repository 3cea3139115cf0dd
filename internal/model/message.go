// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avesta-ai/avesta/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAI:
		return "Avesta"
	default:
		return string(s)
	}
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// AttachmentKind categorizes an attachment for rendering purposes.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
)

// Attachment is a locally renderable reference to a file the user attached
// to a message. The preview URL is a self-contained data URL, so it survives
// persistence round-trips. Attachments are never re-sent to the provider when
// a session's history is replayed.
type Attachment struct {
	PreviewURL string         `json:"url"`
	Kind       AttachmentKind `json:"type"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a session.
//
// A user message is complete the moment it is created. An assistant message
// starts empty in accumulating state and grows in place as response fragments
// arrive; it becomes immutable once the stream finishes.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Text string `json:"text"`

	// Attachments, present only on user messages that included uploads.
	Attachments []Attachment `json:"mediaPreviews,omitempty"`

	// Streaming state (not persisted). The message carries its own mutex
	// because the store lock only serializes writers: transcript renders
	// read the accumulating text from UI goroutines while the consume
	// goroutine is still applying fragments.
	mu           sync.Mutex
	accumulating bool
	streamText   string
}

// NewUserMessage creates a complete user message.
func NewUserMessage(text string, attachments []Attachment) *Message {
	return &Message{
		ID:          generateMessageID(),
		Sender:      SenderUser,
		Text:        text,
		Attachments: attachments,
		Timestamp:   time.Now(),
	}
}

// NewAssistantPlaceholder creates an empty assistant message in accumulating
// state. The UI shows it as a pending bubble before the first fragment lands.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:           generateMessageID(),
		Sender:       SenderAI,
		Timestamp:    time.Now(),
		accumulating: true,
	}
}

// NewAssistantMessage creates a complete assistant message. Used when
// restoring persisted history and for the fixed failure reply.
func NewAssistantMessage(text string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Sender:    SenderAI,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Accumulating reports whether the message is still receiving fragments.
func (m *Message) Accumulating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accumulating
}

// SetAccumulatedText replaces the accumulated text wholesale with the given
// cumulative string. The store's update-last-message path works in cumulative
// strings rather than deltas, so replacement keeps the two in lockstep.
// No-op once the message has been finalized.
func (m *Message) SetAccumulatedText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.accumulating {
		return
	}
	m.streamText = text
}

// Finalize completes accumulation, freezing the text.
func (m *Message) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.accumulating {
		return
	}
	m.Text = m.streamText
	m.streamText = ""
	m.accumulating = false
}

// DisplayText returns the text to render (accumulating or final).
func (m *Message) DisplayText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accumulating {
		return m.streamText
	}
	return m.Text
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	text := strings.ReplaceAll(m.DisplayText(), "\n", " ")
	return util.TruncateRunes(text, maxLen)
}

// IsEmpty returns true if the message has no text and no attachments.
func (m *Message) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Text) == 0 && len(m.streamText) == 0 && len(m.Attachments) == 0
}

// Clone returns a deep copy that can be mutated independently. The copy is
// taken under the message lock so a mid-stream snapshot sees consistent text.
func (m *Message) Clone() *Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := &Message{
		ID:           m.ID,
		Sender:       m.Sender,
		Timestamp:    m.Timestamp,
		Text:         m.Text,
		accumulating: m.accumulating,
		streamText:   m.streamText,
	}
	if len(m.Attachments) > 0 {
		clone.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	return clone
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing information for one streamed response.
type Statistics struct {
	StartTime         time.Time
	FirstFragmentTime time.Time
	EndTime           time.Time

	FragmentCount int

	// Derived metrics (computed on Finalize)
	TTFF          time.Duration // Time to first fragment
	TotalDuration time.Duration
}

// NewStatistics creates a Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFragment records the arrival of one fragment.
func (s *Statistics) RecordFragment() {
	s.FragmentCount++
	if s.FirstFragmentTime.IsZero() {
		s.FirstFragmentTime = time.Now()
		s.TTFF = s.FirstFragmentTime.Sub(s.StartTime)
	}
}

// Finalize computes the derived metrics.
func (s *Statistics) Finalize() {
	s.EndTime = time.Now()
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
}

// Format returns a short human-readable summary.
func (s *Statistics) Format() string {
	return fmt.Sprintf("%.1fs | %d fragments | TTFF %dms",
		s.TotalDuration.Seconds(), s.FragmentCount, s.TTFF.Milliseconds())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
