// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable multi-session persistence for avesta.
package storage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/avesta-ai/avesta/internal/model"
)

// =============================================================================
// STORED TYPES
// =============================================================================

// storedSession is the persisted form of one session.
type storedSession struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  []storedMessage `json:"messages"`
	Model     string          `json:"model"`
	CreatedAt int64           `json:"createdAt"` // epoch milliseconds
}

// storedMessage is the persisted form of one message. Only fields that are
// safe to round-trip are written; streaming state never reaches disk.
type storedMessage struct {
	Sender        string             `json:"sender"` // "user" | "ai"
	Text          string             `json:"text"`
	MediaPreviews []model.Attachment `json:"mediaPreviews,omitempty"`
}

// toStored converts a session for persistence. An accumulating assistant
// message is written with whatever text it holds at snapshot time.
func toStored(s *model.Session) storedSession {
	stored := storedSession{
		ID:        s.ID,
		Title:     s.Title,
		Model:     s.Model,
		CreatedAt: s.CreatedAt.UnixMilli(),
		Messages:  make([]storedMessage, 0, len(s.Messages)),
	}
	for _, msg := range s.Messages {
		stored.Messages = append(stored.Messages, storedMessage{
			Sender:        msg.Sender.String(),
			Text:          msg.DisplayText(),
			MediaPreviews: msg.Attachments,
		})
	}
	return stored
}

// fromStored reconstructs an in-memory session from its persisted form.
func fromStored(stored storedSession) *model.Session {
	s := &model.Session{
		ID:        stored.ID,
		Title:     stored.Title,
		Model:     stored.Model,
		CreatedAt: time.UnixMilli(stored.CreatedAt),
		Messages:  make([]*model.Message, 0, len(stored.Messages)),
	}
	for _, msg := range stored.Messages {
		if msg.Sender == model.SenderUser.String() {
			s.Messages = append(s.Messages, model.NewUserMessage(msg.Text, msg.MediaPreviews))
		} else {
			s.Messages = append(s.Messages, model.NewAssistantMessage(msg.Text))
		}
	}
	return s
}

// =============================================================================
// ERRORS
// =============================================================================

// SessionError represents a session-store error.
// It implements the error interface and can be compared using errors.Is.
type SessionError struct {
	Message string
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing session errors.
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrSessionNotFound is returned when a session id is not in the store.
	ErrSessionNotFound = &SessionError{Message: "session not found"}

	// ErrNotAccumulating is returned when UpdateLastMessage targets a
	// session whose final message is not an accumulating assistant message.
	ErrNotAccumulating = &SessionError{Message: "last message is not accumulating"}
)

// =============================================================================
// STORE
// =============================================================================

// Logf is the logging hook for swallowed persistence failures.
type Logf func(format string, args ...any)

// Store is the single source of truth for the session list and the active
// session id.
//
// All operations are serialized by an internal mutex, and no operation holds
// the lock across I/O other than the snapshot write itself. The in-memory
// list stays authoritative: persistence failures are logged and swallowed,
// never surfaced to callers or allowed to drop messages.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	sessions []*model.Session // newest-first
	activeID string
	logf     Logf
}

// NewStore creates a store over the given backend. logf may be nil.
func NewStore(backend Backend, logf Logf) *Store {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Store{
		backend:  backend,
		sessions: make([]*model.Session, 0),
		logf:     logf,
	}
}

// =============================================================================
// LOAD / PERSIST
// =============================================================================

// LoadAll reads the persisted snapshot into memory and returns the sessions,
// newest-first. A missing or malformed snapshot fails soft: it is treated as
// an empty history, logged, and never surfaced as an error.
func (s *Store) LoadAll() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.backend.Read(SnapshotKey)
	if err != nil {
		s.logf("failed to read session snapshot: %v", err)
		s.sessions = make([]*model.Session, 0)
		return s.snapshotLocked()
	}
	if !ok {
		s.sessions = make([]*model.Session, 0)
		return s.snapshotLocked()
	}

	var stored []storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logf("corrupt session snapshot, starting fresh: %v", err)
		s.sessions = make([]*model.Session, 0)
		return s.snapshotLocked()
	}

	s.sessions = make([]*model.Session, 0, len(stored))
	for _, sess := range stored {
		s.sessions = append(s.sessions, fromStored(sess))
	}
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
	}
	return s.snapshotLocked()
}

// Persist writes the full current session list to the backend. An empty list
// removes the snapshot key instead of writing an empty array. Failures are
// logged and swallowed; the in-memory state remains authoritative.
func (s *Store) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	if len(s.sessions) == 0 {
		if err := s.backend.Remove(SnapshotKey); err != nil {
			s.logf("failed to remove session snapshot: %v", err)
		}
		return
	}

	stored := make([]storedSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		stored = append(stored, toStored(sess))
	}

	data, err := json.Marshal(stored)
	if err != nil {
		s.logf("failed to serialize sessions: %v", err)
		return
	}
	if err := s.backend.Write(SnapshotKey, data); err != nil {
		s.logf("failed to persist sessions: %v", err)
	}
}

// =============================================================================
// SESSION LIST MUTATIONS
// =============================================================================

// Create allocates a new session bound to the given model and prepends it to
// the list (newest-first ordering). The new session becomes active.
func (s *Store) Create(modelID string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := model.NewSession(modelID)
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.persistLocked()
	return sess
}

// Rename replaces a session's title. A title that is empty after trimming is
// a no-op.
func (s *Store) Rename(id, newTitle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return
	}
	before := sess.Title
	sess.SetTitle(newTitle)
	if sess.Title != before {
		s.persistLocked()
	}
}

// Delete removes a session. If it was active, the next-most-recent remaining
// session becomes active, or none if the list is now empty.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.activeID == id {
		if len(s.sessions) > 0 {
			next := idx
			if next >= len(s.sessions) {
				next = len(s.sessions) - 1
			}
			s.activeID = s.sessions[next].ID
		} else {
			s.activeID = ""
		}
	}
	s.persistLocked()
}

// SetModel rebinds a session to a different model. The orchestrator treats
// this as handle invalidation on the next submission.
func (s *Store) SetModel(id, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.Model = modelID
	s.persistLocked()
	return nil
}

// =============================================================================
// MESSAGE MUTATIONS
// =============================================================================

// AppendMessage appends to a session's message log. A missing session is a
// caller error, signalled with ErrSessionNotFound so in-flight completions
// can detect deletion races and discard their result.
func (s *Store) AppendMessage(id string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.AddMessage(msg)
	s.persistLocked()
	return nil
}

// UpdateLastMessage replaces the text of a session's final message with the
// cumulative streamed string. Errors unless that message is an assistant
// message in accumulating state.
func (s *Store) UpdateLastMessage(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	last := sess.LastMessage()
	if last == nil || last.Sender != model.SenderAI || !last.Accumulating() {
		return ErrNotAccumulating
	}
	last.SetAccumulatedText(text)
	s.persistLocked()
	return nil
}

// FinalizeLastMessage freezes a session's accumulating assistant message.
// Returns ErrSessionNotFound when the session has been deleted mid-stream.
func (s *Store) FinalizeLastMessage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.FinalizeLast()
	s.persistLocked()
	return nil
}

// ReplaceLastMessage swaps a session's final message, used to turn a failed
// placeholder into the fixed failure reply.
func (s *Store) ReplaceLastMessage(id string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.ReplaceLast(msg)
	s.persistLocked()
	return nil
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Get returns the session with the given id, or nil.
func (s *Store) Get(id string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

// Sessions returns the current session list, newest-first.
func (s *Store) Sessions() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// List returns lightweight metadata for every session, newest-first.
func (s *Store) List() []model.SessionMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	metas := make([]model.SessionMeta, 0, len(s.sessions))
	for _, sess := range s.sessions {
		metas = append(metas, sess.Meta())
	}
	return metas
}

// ActiveID returns the id of the active session, or "" if none.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SetActive marks a session as active. Unknown ids are ignored.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) != nil {
		s.activeID = id
	}
}

// Count returns the number of sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) findLocked(id string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

func (s *Store) snapshotLocked() []*model.Session {
	out := make([]*model.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}
