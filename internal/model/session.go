// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TitlePreviewRunes is the truncation length for auto-generated titles.
const TitlePreviewRunes = 50

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one independent conversation thread bound to a model.
//
// Messages are append-only, except for the in-place growth of the final
// assistant message while a response is accumulating. At most one message per
// session is accumulating at any time; distinct sessions may accumulate
// concurrently.
type Session struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`

	// Ordered message log, insertion order = chronological order.
	Messages []*Message `json:"messages"`

	// Model this session is bound to. Changing it invalidates any provider
	// session handle built for the old value.
	Model string `json:"model"`
}

// NewSession creates a session with a generated id, empty message list, and
// the given model.
func NewSession(model string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Messages:  make([]*Message, 0),
		Model:     model,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message and refreshes the auto-generated title.
func (s *Session) AddMessage(msg *Message) {
	s.Messages = append(s.Messages, msg)
	s.updateTitle()
}

// AddUserMessage creates and appends a user message.
func (s *Session) AddUserMessage(text string, attachments []Attachment) *Message {
	msg := NewUserMessage(text, attachments)
	s.AddMessage(msg)
	return msg
}

// AddAssistantPlaceholder creates and appends an empty accumulating
// assistant message.
func (s *Session) AddAssistantPlaceholder() *Message {
	msg := NewAssistantPlaceholder()
	s.AddMessage(msg)
	return msg
}

// LastMessage returns the most recent message, or nil if empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// Accumulating reports whether the final message is an assistant message
// still receiving fragments.
func (s *Session) Accumulating() bool {
	last := s.LastMessage()
	return last != nil && last.Accumulating()
}

// FinalizeLast freezes the final accumulating message, if any.
func (s *Session) FinalizeLast() {
	if last := s.LastMessage(); last != nil {
		last.Finalize()
	}
}

// ReplaceLast swaps the final message for another. Used to turn a failed
// placeholder into the fixed failure reply.
func (s *Session) ReplaceLast(msg *Message) {
	if len(s.Messages) == 0 {
		s.Messages = []*Message{msg}
		return
	}
	s.Messages[len(s.Messages)-1] = msg
}

// ClearHistory removes all messages from the session.
func (s *Session) ClearHistory() {
	s.Messages = make([]*Message, 0)
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if there are no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (s *Session) updateTitle() {
	if s.Title != "" {
		return
	}
	for _, msg := range s.Messages {
		if msg.Sender == SenderUser && strings.TrimSpace(msg.Text) != "" {
			s.Title = msg.Preview(TitlePreviewRunes)
			return
		}
	}
}

// SetTitle manually sets the session title. Empty titles are ignored.
func (s *Session) SetTitle(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	s.Title = title
}

// GetTitle returns the session title or a default.
func (s *Session) GetTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return "New Chat"
}

// =============================================================================
// HISTORY REPLAY
// =============================================================================

// HistoryTurn is one text-only turn used to rebuild a provider session
// handle. Attachments are never replayed into history.
type HistoryTurn struct {
	Sender Sender
	Text   string
}

// History returns the session's turns as text-only history, excluding the
// final n messages. Messages with no text (attachment-only turns as seen by
// the provider, unfinished placeholders) are skipped.
func (s *Session) History(excludeLast int) []HistoryTurn {
	end := len(s.Messages) - excludeLast
	if end < 0 {
		end = 0
	}
	turns := make([]HistoryTurn, 0, end)
	for _, msg := range s.Messages[:end] {
		if msg.Accumulating() || msg.Text == "" {
			continue
		}
		turns = append(turns, HistoryTurn{Sender: msg.Sender, Text: msg.Text})
	}
	return turns
}

// =============================================================================
// SERIALIZATION HELPERS
// =============================================================================

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		Model:     s.Model,
		Messages:  make([]*Message, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return clone
}

// Meta returns lightweight metadata for listing.
func (s *Session) Meta() SessionMeta {
	return SessionMeta{
		ID:           s.ID,
		Title:        s.GetTitle(),
		Model:        s.Model,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
	}
}

// SessionMeta holds lightweight metadata for listing.
type SessionMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"createdAt"`
}
