// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates chat turns from submission to completed
// or failed assistant response.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/avesta-ai/avesta/internal/media"
	"github.com/avesta-ai/avesta/internal/model"
	"github.com/avesta-ai/avesta/internal/provider"
	"github.com/avesta-ai/avesta/internal/storage"
	"github.com/avesta-ai/avesta/internal/util"
)

// FailureReply is the fixed user-facing text shown when a turn fails, in any
// way, between submission and stream completion.
const FailureReply = "متاسفانه خطایی رخ داد."

// =============================================================================
// PROVIDER BOUNDARY
// =============================================================================

// Handle is an opaque provider session token. The orchestrator never
// inspects it; it only threads it back into subsequent submissions.
type Handle interface {
	Model() string
}

// Client is the provider boundary the orchestrator drives.
type Client interface {
	// CreateSession synchronously builds a handle for (model, history).
	CreateSession(modelID string, history []model.HistoryTurn) (Handle, error)

	// SubmitStreaming submits one turn and returns a finite stream of
	// fragments in arrival order, errors delivered in-band.
	SubmitStreaming(ctx context.Context, handle Handle, payload provider.Payload) (<-chan provider.Fragment, error)
}

// geminiClient adapts *provider.Client to the Client boundary.
type geminiClient struct {
	c *provider.Client
}

func (g geminiClient) CreateSession(modelID string, history []model.HistoryTurn) (Handle, error) {
	return g.c.CreateSession(modelID, history)
}

func (g geminiClient) SubmitStreaming(ctx context.Context, handle Handle, payload provider.Payload) (<-chan provider.Fragment, error) {
	h, ok := handle.(*provider.SessionHandle)
	if !ok {
		return nil, &provider.ClientError{Type: provider.ErrTypeProvider, Message: "foreign session handle"}
	}
	return g.c.SubmitStreaming(ctx, h, payload)
}

// NewGeminiClient wraps the concrete provider client for the orchestrator.
func NewGeminiClient(c *provider.Client) Client {
	return geminiClient{c: c}
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what changed.
type EventKind int

const (
	// EventSessionsChanged fires after any session list or message mutation.
	EventSessionsChanged EventKind = iota
	// EventTurnStarted fires once the user message and assistant
	// placeholder are in place and the provider has been invoked.
	EventTurnStarted
	// EventFragment fires for each applied response fragment.
	EventFragment
	// EventTurnCompleted fires when a stream finishes normally.
	EventTurnCompleted
	// EventTurnFailed fires when a turn ends in the failure reply.
	EventTurnFailed
)

// Event describes one observable change. Listeners are invoked from the
// goroutine that produced the change and must not block.
type Event struct {
	Kind      EventKind
	SessionID string
	Stats     *model.Statistics
	Err       error
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator owns the per-session provider handles and in-flight flags,
// and runs the send-message state machine against the store and the client.
type Orchestrator struct {
	mu           sync.Mutex
	store        *storage.Store
	client       Client
	defaultModel string

	// handles holds one provider handle per session id, keyed so that
	// concurrent sessions never share or reuse a stale handle.
	handles  map[string]Handle
	inflight map[string]bool

	handoff  *Handoff
	listener func(Event)
	logf     storage.Logf
}

// New creates an orchestrator over a store and provider client.
func New(store *storage.Store, client Client, defaultModel string, logf storage.Logf) *Orchestrator {
	if defaultModel == "" {
		defaultModel = model.DefaultModel
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Orchestrator{
		store:        store,
		client:       client,
		defaultModel: defaultModel,
		handles:      make(map[string]Handle),
		inflight:     make(map[string]bool),
		handoff:      NewHandoff(),
		logf:         logf,
	}
}

// SetListener registers the single event listener. Must be called before
// any turn is submitted.
func (o *Orchestrator) SetListener(fn func(Event)) {
	o.listener = fn
}

func (o *Orchestrator) emit(ev Event) {
	if o.listener != nil {
		o.listener(ev)
	}
}

// Store exposes the underlying session store for read paths.
func (o *Orchestrator) Store() *storage.Store {
	return o.store
}

// DefaultModel returns the model used for implicitly created sessions.
func (o *Orchestrator) DefaultModel() string {
	return o.defaultModel
}

// Handoff returns the slot launchers use to pass an opening message into
// whichever chat view mounts next.
func (o *Orchestrator) Handoff() *Handoff {
	return o.handoff
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// NewSession creates a session bound to the given model (default when
// empty) and makes it active.
func (o *Orchestrator) NewSession(modelID string) *model.Session {
	if modelID == "" {
		modelID = o.defaultModel
	}
	sess := o.store.Create(modelID)
	o.emit(Event{Kind: EventSessionsChanged, SessionID: sess.ID})
	return sess
}

// DeleteSession removes a session and releases its provider handle. An
// in-flight turn for the session is not cancelled; its eventual completion
// becomes a detached write the store rejects and the orchestrator discards.
func (o *Orchestrator) DeleteSession(id string) {
	o.store.Delete(id)

	o.mu.Lock()
	delete(o.handles, id)
	o.mu.Unlock()

	o.emit(Event{Kind: EventSessionsChanged, SessionID: id})
}

// RenameSession retitles a session. Empty-after-trim titles are ignored.
func (o *Orchestrator) RenameSession(id, title string) {
	o.store.Rename(id, title)
	o.emit(Event{Kind: EventSessionsChanged, SessionID: id})
}

// SwitchModel rebinds a session to a different model. The old handle is
// dropped immediately; an in-flight turn keeps streaming against the handle
// it was built with, and only the next submission sees the new model.
func (o *Orchestrator) SwitchModel(id, modelID string) error {
	if !model.IsKnownModel(modelID) {
		return &provider.ClientError{Type: provider.ErrTypeInvalidModel, Message: "unknown model " + modelID}
	}
	if err := o.store.SetModel(id, modelID); err != nil {
		return err
	}

	o.mu.Lock()
	delete(o.handles, id)
	o.mu.Unlock()

	o.emit(Event{Kind: EventSessionsChanged, SessionID: id})
	return nil
}

// ClearHistory drops a session's messages and its handle.
func (o *Orchestrator) ClearHistory(id string) {
	if sess := o.store.Get(id); sess != nil {
		sess.ClearHistory()
		o.store.Persist()
	}

	o.mu.Lock()
	delete(o.handles, id)
	o.mu.Unlock()

	o.emit(Event{Kind: EventSessionsChanged, SessionID: id})
}

// Accumulating reports whether a turn is currently in flight for the
// session.
func (o *Orchestrator) Accumulating(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inflight[id]
}

// =============================================================================
// SEND MESSAGE
// =============================================================================

// SendMessage runs one user-initiated turn. sessionID may be empty, in
// which case a new session bound to the default model is created and
// adopted as active.
//
// The call is a silent no-op (started=false) when a turn is already in
// flight for the same session, or when the trimmed text and the attachment
// list are both empty. On acceptance the user message is appended and the
// assistant placeholder is in place before the call returns; the stream is
// then consumed on a background goroutine.
func (o *Orchestrator) SendMessage(ctx context.Context, sessionID, text string, files []*media.File) (string, bool) {
	text = util.NormalizeNFC(text)
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		return sessionID, false
	}

	// Resolve the target session and claim the in-flight flag in one
	// critical section so two rapid submissions cannot both pass the gate.
	o.mu.Lock()
	if sessionID == "" {
		sess := o.store.Create(o.defaultModel)
		sessionID = sess.ID
	} else if o.inflight[sessionID] || o.store.Get(sessionID) == nil {
		o.mu.Unlock()
		return sessionID, false
	}
	o.inflight[sessionID] = true
	o.mu.Unlock()

	release := func() {
		o.mu.Lock()
		delete(o.inflight, sessionID)
		o.mu.Unlock()
	}

	// Append the user message with display previews before any network
	// activity, so it is visible immediately.
	previews := make([]model.Attachment, 0, len(files))
	for _, f := range files {
		previews = append(previews, f.Preview())
	}
	if err := o.store.AppendMessage(sessionID, model.NewUserMessage(text, previews)); err != nil {
		release()
		return sessionID, false
	}
	o.emit(Event{Kind: EventSessionsChanged, SessionID: sessionID})

	// Obtain or rebuild the provider handle: rebuilt whenever none exists
	// for this session (first turn, or after a restart) or the bound model
	// diverged from the session's current model.
	sess := o.store.Get(sessionID)
	if sess == nil {
		release()
		return sessionID, false
	}
	o.mu.Lock()
	handle := o.handles[sessionID]
	if handle == nil || handle.Model() != sess.Model {
		// History replay excludes the just-appended user message; it is
		// sent as the new turn. Attachments are never replayed.
		rebuilt, err := o.client.CreateSession(sess.Model, sess.History(1))
		if err != nil {
			o.mu.Unlock()
			o.failTurn(sessionID, false, err)
			release()
			return sessionID, true
		}
		o.handles[sessionID] = rebuilt
		handle = rebuilt
	}
	o.mu.Unlock()

	// Compose the outbound payload: plain text, or multi-part with one
	// inline part per attachment.
	var payload provider.Payload
	if len(files) == 0 {
		payload = provider.TextPayload(text)
	} else {
		parts := make([]media.InlinePart, 0, len(files))
		for _, f := range files {
			parts = append(parts, f.InlinePayload())
		}
		payload = provider.MultiPartPayload(text, parts)
	}

	// Pending bubble before the first fragment arrives.
	if err := o.store.AppendMessage(sessionID, model.NewAssistantPlaceholder()); err != nil {
		release()
		return sessionID, false
	}
	o.emit(Event{Kind: EventSessionsChanged, SessionID: sessionID})

	go o.consume(ctx, sessionID, handle, payload, release)
	return sessionID, true
}

// consume drives one streaming response to completion. The in-flight flag
// is released unconditionally, whatever path the stream takes.
func (o *Orchestrator) consume(ctx context.Context, sessionID string, handle Handle, payload provider.Payload, release func()) {
	defer release()

	stats := model.NewStatistics()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fragments, err := o.client.SubmitStreaming(ctx, handle, payload)
	if err != nil {
		o.failTurn(sessionID, true, err)
		return
	}
	o.emit(Event{Kind: EventTurnStarted, SessionID: sessionID})

	var accumulated strings.Builder
	for fragment := range fragments {
		if fragment.Err != nil {
			o.failTurn(sessionID, true, fragment.Err)
			return
		}
		if fragment.Text == "" {
			continue
		}

		stats.RecordFragment()
		accumulated.WriteString(fragment.Text)
		if err := o.store.UpdateLastMessage(sessionID, accumulated.String()); err != nil {
			// Session deleted mid-stream: discard the rest and stop
			// consuming. The cancel releases the connection.
			o.logf("discarding detached stream for %s: %v", sessionID, err)
			return
		}
		o.emit(Event{Kind: EventFragment, SessionID: sessionID})
	}

	if err := o.store.FinalizeLastMessage(sessionID); err != nil {
		o.logf("discarding detached completion for %s: %v", sessionID, err)
		return
	}
	stats.Finalize()
	o.emit(Event{Kind: EventSessionsChanged, SessionID: sessionID})
	o.emit(Event{Kind: EventTurnCompleted, SessionID: sessionID, Stats: stats})
}

// failTurn converts any turn error into the fixed failure reply. When a
// placeholder is already in place it is replaced; otherwise the reply is
// appended. A session deleted in the meantime makes this a silent discard.
func (o *Orchestrator) failTurn(sessionID string, placeholder bool, cause error) {
	o.logf("turn failed for %s: %v", sessionID, cause)

	reply := model.NewAssistantMessage(FailureReply)
	var err error
	if placeholder {
		err = o.store.ReplaceLastMessage(sessionID, reply)
	} else {
		err = o.store.AppendMessage(sessionID, reply)
	}
	if err != nil && errors.Is(err, storage.ErrSessionNotFound) {
		return
	}

	o.emit(Event{Kind: EventSessionsChanged, SessionID: sessionID})
	o.emit(Event{Kind: EventTurnFailed, SessionID: sessionID, Err: cause})
}
