// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable multi-session persistence for avesta.
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avesta-ai/avesta/internal/model"
)

func newTestStore(t *testing.T) (*Store, *FileBackend) {
	t.Helper()
	backend, err := NewFileBackendWithDir(t.TempDir())
	require.NoError(t, err)
	return NewStore(backend, nil), backend
}

// reload simulates a process restart over the same backend.
func reload(backend Backend) *Store {
	s := NewStore(backend, nil)
	s.LoadAll()
	return s
}

// =============================================================================
// LOAD / PERSIST TESTS
// =============================================================================

func TestLoadAll_NoSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Empty(t, store.LoadAll())
}

func TestLoadAll_CorruptSnapshot(t *testing.T) {
	backend, err := NewFileBackendWithDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, backend.Write(SnapshotKey, []byte("{not json")))

	var logged bool
	store := NewStore(backend, func(string, ...any) { logged = true })

	// Fails soft: corrupt data is an empty history, not an error
	assert.Empty(t, store.LoadAll())
	assert.True(t, logged, "corrupt snapshot should be logged")
}

func TestPersist_RoundTrip(t *testing.T) {
	store, backend := newTestStore(t)

	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("hello there", []model.Attachment{
		{PreviewURL: "data:image/png;base64,aWNvbg==", Kind: model.AttachmentImage},
	})))
	require.NoError(t, store.AppendMessage(sess.ID, model.NewAssistantMessage("hi!")))

	reloaded := reload(backend).Sessions()
	require.Len(t, reloaded, 1)

	got := reloaded[0]
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "hello there", got.Title)
	assert.Equal(t, "gemini-2.5-flash", got.Model)
	assert.Equal(t, sess.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.SenderUser, got.Messages[0].Sender)
	assert.Equal(t, "hello there", got.Messages[0].Text)
	require.Len(t, got.Messages[0].Attachments, 1)
	assert.Equal(t, model.AttachmentImage, got.Messages[0].Attachments[0].Kind)
	assert.Equal(t, model.SenderAI, got.Messages[1].Sender)
	assert.Equal(t, "hi!", got.Messages[1].Text)
}

func TestPersist_Idempotent(t *testing.T) {
	store, backend := newTestStore(t)
	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("hello", nil)))

	// Persisting twice with the same list must produce the same snapshot
	store.Persist()
	first, ok, err := backend.Read(SnapshotKey)
	require.NoError(t, err)
	require.True(t, ok)

	store.Persist()
	second, ok, err := backend.Read(SnapshotKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(first), string(second))
}

func TestPersist_EmptyListRemovesSnapshot(t *testing.T) {
	store, backend := newTestStore(t)
	sess := store.Create("gemini-2.5-flash")

	_, ok, err := backend.Read(SnapshotKey)
	require.NoError(t, err)
	require.True(t, ok, "snapshot should exist after create")

	store.Delete(sess.ID)

	// The key must be absent, not present-with-empty-array
	_, ok, err = backend.Read(SnapshotKey)
	require.NoError(t, err)
	assert.False(t, ok, "deleting the last session should remove the snapshot")

	assert.Empty(t, reload(backend).Sessions())
}

func TestPersist_FailureIsSwallowed(t *testing.T) {
	var logged bool
	store := NewStore(failingBackend{}, func(string, ...any) { logged = true })

	// Mutations must not surface persistence errors
	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("hi", nil)))

	// In-memory state stays authoritative
	require.Len(t, store.Sessions(), 1)
	assert.Equal(t, 1, store.Sessions()[0].MessageCount())
	assert.True(t, logged)
}

type failingBackend struct{}

func (failingBackend) Read(string) ([]byte, bool, error) { return nil, false, errors.New("io down") }
func (failingBackend) Write(string, []byte) error        { return errors.New("io down") }
func (failingBackend) Remove(string) error               { return errors.New("io down") }

// =============================================================================
// SESSION LIST TESTS
// =============================================================================

func TestCreate_NewestFirst(t *testing.T) {
	store, _ := newTestStore(t)

	first := store.Create("gemini-2.5-flash")
	second := store.Create("gemini-3-pro-preview")

	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)
	assert.Equal(t, second.ID, store.ActiveID())
}

func TestRename(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("original", nil)))

	// Empty after trimming is a no-op
	store.Rename(sess.ID, "   ")
	assert.Equal(t, "original", store.Get(sess.ID).GetTitle())

	store.Rename(sess.ID, "Renamed")
	assert.Equal(t, "Renamed", store.Get(sess.ID).GetTitle())

	// Unknown id is ignored
	store.Rename("no-such-id", "x")
}

func TestDelete_ActiveFallsBack(t *testing.T) {
	store, _ := newTestStore(t)
	oldest := store.Create("gemini-2.5-flash")
	middle := store.Create("gemini-2.5-flash")
	newest := store.Create("gemini-2.5-flash")

	store.SetActive(middle.ID)
	store.Delete(middle.ID)

	// Falls back to the next-most-recent remaining session
	assert.Equal(t, oldest.ID, store.ActiveID())

	store.Delete(newest.ID)
	assert.Equal(t, oldest.ID, store.ActiveID())

	store.Delete(oldest.ID)
	assert.Equal(t, "", store.ActiveID())
	assert.Zero(t, store.Count())
}

func TestSetModel(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Create("gemini-2.5-flash")

	require.NoError(t, store.SetModel(sess.ID, "gemini-3-pro-preview"))
	assert.Equal(t, "gemini-3-pro-preview", store.Get(sess.ID).Model)

	assert.ErrorIs(t, store.SetModel("no-such-id", "gemini-2.5-flash"), ErrSessionNotFound)
}

// =============================================================================
// MESSAGE MUTATION TESTS
// =============================================================================

func TestAppendMessage_MissingSession(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.AppendMessage("no-such-id", model.NewUserMessage("hi", nil))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateLastMessage(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("question", nil)))

	// Last message is a user message: not accumulating
	assert.ErrorIs(t, store.UpdateLastMessage(sess.ID, "x"), ErrNotAccumulating)

	require.NoError(t, store.AppendMessage(sess.ID, model.NewAssistantPlaceholder()))
	require.NoError(t, store.UpdateLastMessage(sess.ID, "partial"))
	require.NoError(t, store.UpdateLastMessage(sess.ID, "partial answer"))
	assert.Equal(t, "partial answer", store.Get(sess.ID).LastMessage().DisplayText())

	require.NoError(t, store.FinalizeLastMessage(sess.ID))
	assert.Equal(t, "partial answer", store.Get(sess.ID).LastMessage().Text)

	// Finalized message can no longer be grown
	assert.ErrorIs(t, store.UpdateLastMessage(sess.ID, "more"), ErrNotAccumulating)

	// Deleted session signals not-found for detached writes
	store.Delete(sess.ID)
	assert.ErrorIs(t, store.UpdateLastMessage(sess.ID, "x"), ErrSessionNotFound)
	assert.ErrorIs(t, store.FinalizeLastMessage(sess.ID), ErrSessionNotFound)
}

func TestUpdateLastMessage_ConcurrentTranscriptReads(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("question", nil)))
	require.NoError(t, store.AppendMessage(sess.ID, model.NewAssistantPlaceholder()))

	// The consume goroutine grows the last message while transcript renders
	// read it back through the live session pointer. Run under -race.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		text := ""
		for i := 0; i < 300; i++ {
			text += "f"
			assert.NoError(t, store.UpdateLastMessage(sess.ID, text))
		}
		assert.NoError(t, store.FinalizeLastMessage(sess.ID))
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 300; i++ {
			if last := store.Get(sess.ID).LastMessage(); last != nil {
				_ = last.DisplayText()
				_ = last.Accumulating()
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, strings.Repeat("f", 300), store.Get(sess.ID).LastMessage().Text)
}

func TestAccumulatingTextIsPersisted(t *testing.T) {
	store, backend := newTestStore(t)
	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("q", nil)))
	require.NoError(t, store.AppendMessage(sess.ID, model.NewAssistantPlaceholder()))
	require.NoError(t, store.UpdateLastMessage(sess.ID, "partial text"))

	// A crash mid-stream keeps the partial text
	got := reload(backend).Sessions()[0]
	assert.Equal(t, "partial text", got.Messages[1].Text)
	assert.Equal(t, model.SenderAI, got.Messages[1].Sender)
}

// =============================================================================
// SQLITE BACKEND TESTS
// =============================================================================

func TestSQLiteBackend_Semantics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avesta.db")
	backend, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	defer backend.Close()

	// Absent key
	_, ok, err := backend.Read(SnapshotKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// Write then read
	require.NoError(t, backend.Write(SnapshotKey, []byte(`[{"id":"a"}]`)))
	data, ok, err := backend.Read(SnapshotKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"a"}]`, string(data))

	// Overwrite
	require.NoError(t, backend.Write(SnapshotKey, []byte(`[]`)))
	data, _, _ = backend.Read(SnapshotKey)
	assert.Equal(t, "[]", string(data))

	// Remove, including of an absent key
	require.NoError(t, backend.Remove(SnapshotKey))
	_, ok, err = backend.Read(SnapshotKey)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, backend.Remove(SnapshotKey))
}

func TestStoreOverSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avesta.db")
	backend, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	defer backend.Close()

	store := NewStore(backend, nil)
	sess := store.Create("gemini-2.5-flash")
	require.NoError(t, store.AppendMessage(sess.ID, model.NewUserMessage("hello", nil)))

	reloaded := reload(backend).Sessions()
	require.Len(t, reloaded, 1)
	assert.Equal(t, "hello", reloaded[0].Messages[0].Text)

	store.Delete(sess.ID)
	_, ok, err := backend.Read(SnapshotKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileBackend_Permissions(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackendWithDir(dir)
	require.NoError(t, err)
	require.NoError(t, backend.Write(SnapshotKey, []byte("[]")))

	info, err := os.Stat(filepath.Join(dir, SnapshotKey+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
