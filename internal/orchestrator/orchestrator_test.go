// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates chat turns from submission to completed
// or failed assistant response.
package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avesta-ai/avesta/internal/model"
	"github.com/avesta-ai/avesta/internal/provider"
	"github.com/avesta-ai/avesta/internal/storage"
)

// =============================================================================
// FAKE PROVIDER CLIENT
// =============================================================================

type fakeHandle struct {
	model string
}

func (h fakeHandle) Model() string { return h.model }

// submitRecord captures the store state observed at submission time.
type submitRecord struct {
	model    string
	payload  provider.Payload
	messages []string // message texts of the session at invocation
	feed     chan provider.Fragment
}

// fakeClient records CreateSession/SubmitStreaming calls and hands each
// stream's feed channel back to the test for manual control.
type fakeClient struct {
	mu            sync.Mutex
	store         *storage.Store
	sessionID     func() string
	createCalls   []string
	createHistory [][]model.HistoryTurn
	submits       []*submitRecord
}

func (f *fakeClient) CreateSession(modelID string, history []model.HistoryTurn) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, modelID)
	f.createHistory = append(f.createHistory, history)
	return fakeHandle{model: modelID}, nil
}

func (f *fakeClient) SubmitStreaming(ctx context.Context, handle Handle, payload provider.Payload) (<-chan provider.Fragment, error) {
	rec := &submitRecord{
		model:   handle.Model(),
		payload: payload,
		feed:    make(chan provider.Fragment, 16),
	}
	if f.store != nil && f.sessionID != nil {
		if sess := f.store.Get(f.sessionID()); sess != nil {
			for _, msg := range sess.Messages {
				rec.messages = append(rec.messages, msg.DisplayText())
			}
		}
	}
	f.mu.Lock()
	f.submits = append(f.submits, rec)
	f.mu.Unlock()
	return rec.feed, nil
}

func (f *fakeClient) lastSubmit() *submitRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submits) == 0 {
		panic("no submissions recorded")
	}
	return f.submits[len(f.submits)-1]
}

func (f *fakeClient) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

// =============================================================================
// TEST HARNESS
// =============================================================================

type harness struct {
	store  *storage.Store
	client *fakeClient
	orch   *Orchestrator
	events chan Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend, err := storage.NewFileBackendWithDir(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		store:  storage.NewStore(backend, nil),
		client: &fakeClient{},
		events: make(chan Event, 256),
	}
	h.client.store = h.store
	h.orch = New(h.store, h.client, model.DefaultModel, nil)
	h.orch.SetListener(func(ev Event) { h.events <- ev })
	return h
}

// waitFor blocks until an event of the given kind arrives for the session.
func (h *harness) waitFor(t *testing.T, kind EventKind, sessionID string) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if ev.Kind == kind && (sessionID == "" || ev.SessionID == sessionID) {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

// finish streams the given fragments into the newest submission and closes it.
func (h *harness) finish(fragments ...string) {
	rec := h.client.lastSubmit()
	for _, f := range fragments {
		rec.feed <- provider.Fragment{Text: f}
	}
	close(rec.feed)
}

// =============================================================================
// SEND MESSAGE TESTS
// =============================================================================

func TestSendMessage_NewSessionFromNull(t *testing.T) {
	h := newHarness(t)
	h.client.sessionID = func() string { return h.store.ActiveID() }

	sid, started := h.orch.SendMessage(context.Background(), "", "hello", nil)
	require.True(t, started)
	require.NotEmpty(t, sid)

	h.waitFor(t, EventTurnStarted, sid)
	h.finish("hi ", "there")
	h.waitFor(t, EventTurnCompleted, sid)

	sess := h.store.Get(sid)
	require.NotNil(t, sess)
	assert.Equal(t, "hello", sess.GetTitle())
	assert.Equal(t, model.DefaultModel, sess.Model)

	require.Equal(t, 2, sess.MessageCount())
	assert.Equal(t, model.SenderUser, sess.Messages[0].Sender)
	assert.Equal(t, "hello", sess.Messages[0].Text)
	assert.Equal(t, model.SenderAI, sess.Messages[1].Sender)
	assert.Equal(t, "hi there", sess.Messages[1].Text)
	assert.False(t, sess.Messages[1].Accumulating())
}

func TestSendMessage_EmptyInputRejected(t *testing.T) {
	h := newHarness(t)

	_, started := h.orch.SendMessage(context.Background(), "", "   \n\t ", nil)
	assert.False(t, started)
	assert.Zero(t, h.store.Count(), "no session should be created for empty input")
}

func TestSendMessage_AppendBeforeSend(t *testing.T) {
	h := newHarness(t)
	sess := h.orch.NewSession("")
	h.client.sessionID = func() string { return sess.ID }

	_, started := h.orch.SendMessage(context.Background(), sess.ID, "ping", nil)
	require.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)
	h.finish("pong")
	h.waitFor(t, EventTurnCompleted, sess.ID)

	// The user message (and the placeholder) were in the session before
	// the provider was invoked.
	rec := h.client.lastSubmit()
	require.Len(t, rec.messages, 2)
	assert.Equal(t, "ping", rec.messages[0])
	assert.Equal(t, "", rec.messages[1])
}

func TestSendMessage_SingleInFlightPerSession(t *testing.T) {
	h := newHarness(t)
	sess := h.orch.NewSession("")

	_, started := h.orch.SendMessage(context.Background(), sess.ID, "first", nil)
	require.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)

	// Second submission while the first is mid-stream is a silent no-op
	_, started = h.orch.SendMessage(context.Background(), sess.ID, "second", nil)
	assert.False(t, started)

	h.finish("answer")
	h.waitFor(t, EventTurnCompleted, sess.ID)

	// Exactly one user/assistant pair was added
	assert.Equal(t, 2, h.store.Get(sess.ID).MessageCount())
	assert.Equal(t, 1, h.client.submitCount())

	// After completion the session accepts turns again
	_, started = h.orch.SendMessage(context.Background(), sess.ID, "third", nil)
	assert.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)
	h.finish("done")
	h.waitFor(t, EventTurnCompleted, sess.ID)
	assert.Equal(t, 4, h.store.Get(sess.ID).MessageCount())
}

func TestSendMessage_FragmentMonotonicity(t *testing.T) {
	h := newHarness(t)
	sess := h.orch.NewSession("")

	_, started := h.orch.SendMessage(context.Background(), sess.ID, "count", nil)
	require.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)

	rec := h.client.lastSubmit()
	fragments := []string{"one ", "two ", "three ", "four"}
	for _, f := range fragments {
		rec.feed <- provider.Fragment{Text: f}
		// Arbitrary delay between fragments must not affect ordering
		time.Sleep(2 * time.Millisecond)
	}
	close(rec.feed)
	h.waitFor(t, EventTurnCompleted, sess.ID)

	assert.Equal(t, "one two three four", h.store.Get(sess.ID).LastMessage().Text)
}

func TestSendMessage_ModelSwitchRebuildsHandle(t *testing.T) {
	h := newHarness(t)
	sess := h.orch.NewSession("gemini-2.5-flash")

	_, _ = h.orch.SendMessage(context.Background(), sess.ID, "one", nil)
	h.waitFor(t, EventTurnStarted, sess.ID)
	h.finish("a")
	h.waitFor(t, EventTurnCompleted, sess.ID)

	// Same model: the existing handle is reused
	_, _ = h.orch.SendMessage(context.Background(), sess.ID, "two", nil)
	h.waitFor(t, EventTurnStarted, sess.ID)
	h.finish("b")
	h.waitFor(t, EventTurnCompleted, sess.ID)
	assert.Equal(t, []string{"gemini-2.5-flash"}, h.client.createCalls)

	// Model switch: the next submission rebuilds against the new model
	require.NoError(t, h.orch.SwitchModel(sess.ID, "gemini-3-pro-preview"))
	_, _ = h.orch.SendMessage(context.Background(), sess.ID, "three", nil)
	h.waitFor(t, EventTurnStarted, sess.ID)
	h.finish("c")
	h.waitFor(t, EventTurnCompleted, sess.ID)

	require.Len(t, h.client.createCalls, 2)
	assert.Equal(t, "gemini-3-pro-preview", h.client.createCalls[1])
	assert.Equal(t, "gemini-3-pro-preview", h.client.lastSubmit().model)
}

func TestSendMessage_CrossSessionIsolation(t *testing.T) {
	h := newHarness(t)
	a := h.orch.NewSession("gemini-flash-latest")
	b := h.orch.NewSession("gemini-3-pro-preview")

	_, startedA := h.orch.SendMessage(context.Background(), a.ID, "to A", nil)
	require.True(t, startedA)
	h.waitFor(t, EventTurnStarted, a.ID)
	recA := h.client.lastSubmit()

	_, startedB := h.orch.SendMessage(context.Background(), b.ID, "to B", nil)
	require.True(t, startedB, "distinct sessions stream concurrently")
	h.waitFor(t, EventTurnStarted, b.ID)
	recB := h.client.lastSubmit()

	// Complete B while A is still mid-stream
	recB.feed <- provider.Fragment{Text: "B answer"}
	close(recB.feed)
	h.waitFor(t, EventTurnCompleted, b.ID)

	// A's list is untouched: user message plus empty placeholder
	sessA := h.store.Get(a.ID)
	require.Equal(t, 2, sessA.MessageCount())
	assert.Equal(t, "", sessA.LastMessage().DisplayText())
	assert.True(t, sessA.LastMessage().Accumulating())

	recA.feed <- provider.Fragment{Text: "A answer"}
	close(recA.feed)
	h.waitFor(t, EventTurnCompleted, a.ID)
	assert.Equal(t, "A answer", h.store.Get(a.ID).LastMessage().Text)
	assert.Equal(t, "B answer", h.store.Get(b.ID).LastMessage().Text)
}

func TestSendMessage_DeleteMidStream(t *testing.T) {
	h := newHarness(t)
	sess := h.orch.NewSession("")

	_, started := h.orch.SendMessage(context.Background(), sess.ID, "doomed", nil)
	require.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)
	rec := h.client.lastSubmit()

	h.orch.DeleteSession(sess.ID)

	// The stream completes after deletion: the write detaches and is
	// discarded without error, and the session does not reappear.
	rec.feed <- provider.Fragment{Text: "too late"}
	close(rec.feed)

	// The in-flight flag is still released
	require.Eventually(t, func() bool { return !h.orch.Accumulating(sess.ID) },
		5*time.Second, 5*time.Millisecond)

	assert.Nil(t, h.store.Get(sess.ID))
	assert.Zero(t, h.store.Count())
}

func TestSendMessage_FailureReply(t *testing.T) {
	h := newHarness(t)
	sess := h.orch.NewSession("")

	_, started := h.orch.SendMessage(context.Background(), sess.ID, "boom", nil)
	require.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)

	rec := h.client.lastSubmit()
	rec.feed <- provider.Fragment{Text: "partial "}
	rec.feed <- provider.Fragment{Err: &provider.ClientError{Type: provider.ErrTypeTransport, Message: "conn reset"}, Done: true}
	close(rec.feed)
	h.waitFor(t, EventTurnFailed, sess.ID)

	// Never an empty (or partial) placeholder after failure: the fixed
	// reply replaces it, and the session stays usable.
	last := h.store.Get(sess.ID).LastMessage()
	assert.Equal(t, FailureReply, last.Text)
	assert.False(t, last.Accumulating())

	_, started = h.orch.SendMessage(context.Background(), sess.ID, "again", nil)
	assert.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)
	h.finish("recovered")
	h.waitFor(t, EventTurnCompleted, sess.ID)
	assert.Equal(t, "recovered", h.store.Get(sess.ID).LastMessage().Text)
}

func TestSendMessage_HistoryReplayExcludesNewTurn(t *testing.T) {
	h := newHarness(t)
	sess := h.orch.NewSession("")
	require.NoError(t, h.store.AppendMessage(sess.ID, model.NewUserMessage("old q", nil)))
	require.NoError(t, h.store.AppendMessage(sess.ID, model.NewAssistantMessage("old a")))

	// No handle exists yet (as after a reload), so one is rebuilt from
	// history excluding the just-appended user message.
	_, started := h.orch.SendMessage(context.Background(), sess.ID, "new q", nil)
	require.True(t, started)
	h.waitFor(t, EventTurnStarted, sess.ID)
	h.finish("new a")
	h.waitFor(t, EventTurnCompleted, sess.ID)

	require.Len(t, h.client.createHistory, 1)
	replayed := h.client.createHistory[0]
	require.Len(t, replayed, 2)
	assert.Equal(t, model.HistoryTurn{Sender: model.SenderUser, Text: "old q"}, replayed[0])
	assert.Equal(t, model.HistoryTurn{Sender: model.SenderAI, Text: "old a"}, replayed[1])
	assert.Equal(t, "new q", h.client.lastSubmit().payload.Text)
}

// =============================================================================
// HANDOFF TESTS
// =============================================================================

func TestHandoff_ConsumeOnce(t *testing.T) {
	handoff := NewHandoff()

	_, ok := handoff.Consume()
	assert.False(t, ok)

	handoff.Set("auto-send me")
	text, ok := handoff.Consume()
	require.True(t, ok)
	assert.Equal(t, "auto-send me", text)

	// Second consume finds nothing
	_, ok = handoff.Consume()
	assert.False(t, ok)
}

func TestHandoff_SetEmptyClears(t *testing.T) {
	handoff := NewHandoff()
	handoff.Set("pending")
	handoff.Set("")
	_, ok := handoff.Consume()
	assert.False(t, ok)
}
