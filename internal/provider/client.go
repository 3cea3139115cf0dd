// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP client for the Gemini generative
// language API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/avesta-ai/avesta/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the provider client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeAuth
	ErrTypeQuota
	ErrTypeTransport
	ErrTypeProvider
	ErrTypeInvalidModel
)

// Sentinel errors for easy checking.
var (
	ErrMissingAPIKey  = &ClientError{Type: ErrTypeAuth, Message: "no API key configured"}
	ErrQuotaExhausted = &ClientError{Type: ErrTypeQuota, Message: "quota exhausted"}
	ErrUnknownModel   = &ClientError{Type: ErrTypeInvalidModel, Message: "unknown model"}
)

// IsAuthError checks if an error is a credential problem.
func IsAuthError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeAuth
	}
	return false
}

// IsQuotaError checks if an error is a quota rejection.
func IsQuotaError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeQuota
	}
	return false
}

// IsTransportError checks if an error is a network-level failure.
func IsTransportError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTransport
	}
	return false
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the provider client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: the public Gemini endpoint)
	BaseURL string

	// APIKey authenticates every request
	APIKey string

	// DefaultModel to use if none specified
	DefaultModel string

	// RequestsPerMinute throttles outbound submissions (default: 60)
	RequestsPerMinute int

	// ConnectTimeout bounds connection establishment. Streams themselves
	// carry no deadline; a response may take arbitrarily long to finish.
	ConnectTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "https://generativelanguage.googleapis.com/v1beta",
		DefaultModel:      model.DefaultModel,
		RequestsPerMinute: 60,
		ConnectTimeout:    10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the generative language API.
//
// The Client is thread-safe for concurrent use; distinct sessions may stream
// simultaneously.
//
// Example:
//
//	client := provider.NewClientWithConfig(&provider.ClientConfig{APIKey: key})
//	handle, err := client.CreateSession("gemini-2.5-flash", nil)
//	fragments, err := client.SubmitStreaming(ctx, handle, provider.TextPayload("hi"))
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a provider client with default configuration. The API
// key must still be supplied before any submission succeeds.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a provider client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.DefaultModel == "" {
		config.DefaultModel = model.DefaultModel
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 60
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	return &Client{
		config: config,
		// No overall timeout: streaming responses are open-ended. The
		// dialer timeout comes from the default transport.
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), 1),
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// SESSION HANDLES
// =============================================================================

// SessionHandle is an opaque binding between a chat session's (model,
// history-so-far) and the provider's conversational context. Handles are
// never persisted; any divergence from the history they were built from
// (model switch, process restart) requires building a fresh one.
type SessionHandle struct {
	mu      sync.Mutex
	model   string
	history []Content
}

// Model returns the model the handle was constructed for.
func (h *SessionHandle) Model() string {
	return h.model
}

// recordTurn appends a completed user/model exchange to the handle's
// history so the next submission carries it.
func (h *SessionHandle) recordTurn(user Content, reply string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, user, Content{
		Role:  roleModel,
		Parts: []Part{{Text: reply}},
	})
}

// snapshotWith returns the handle's history plus the new user content.
func (h *SessionHandle) snapshotWith(user Content) []Content {
	h.mu.Lock()
	defer h.mu.Unlock()
	contents := make([]Content, 0, len(h.history)+1)
	contents = append(contents, h.history...)
	contents = append(contents, user)
	return contents
}

// CreateSession synchronously constructs a conversational session handle
// pre-seeded with history. No network call is made; it errors only on an
// unknown model identifier.
func (c *Client) CreateSession(modelID string, history []model.HistoryTurn) (*SessionHandle, error) {
	if modelID == "" {
		modelID = c.config.DefaultModel
	}
	if !model.IsKnownModel(modelID) {
		return nil, &ClientError{Type: ErrTypeInvalidModel, Message: "unknown model " + modelID}
	}

	contents := make([]Content, 0, len(history))
	for _, turn := range history {
		role := roleUser
		if turn.Sender == model.SenderAI {
			role = roleModel
		}
		contents = append(contents, Content{
			Role:  role,
			Parts: []Part{{Text: turn.Text}},
		})
	}

	return &SessionHandle{model: modelID, history: contents}, nil
}

// =============================================================================
// STREAMING SUBMISSION
// =============================================================================

// SubmitStreaming submits one turn against a session handle and returns a
// channel of response fragments: a finite, single-consumer, non-restartable
// stream delivered in arrival order. Errors arrive in-band as a final
// fragment with Err set; the channel is always closed when the stream ends.
//
// Cancelling ctx releases the underlying connection; no partial-fragment
// replay is offered.
func (c *Client) SubmitStreaming(ctx context.Context, handle *SessionHandle, payload Payload) (<-chan Fragment, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if handle == nil {
		return nil, &ClientError{Type: ErrTypeProvider, Message: "nil session handle"}
	}

	userContent := payload.toContent()
	reqBody := generateRequest{Contents: handle.snapshotWith(userContent)}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeProvider, Message: "failed to marshal request", Cause: err}
	}

	url := c.config.BaseURL + "/models/" + handle.model + ":streamGenerateContent?alt=sse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	ch := make(chan Fragment)
	go func() {
		defer close(ch)

		// Throttle before the request leaves the process.
		if err := c.limiter.Wait(ctx); err != nil {
			deliver(ctx, ch, Fragment{Done: true, Err: &ClientError{Type: ErrTypeTransport, Message: "request cancelled", Cause: err}})
			return
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			deliver(ctx, ch, Fragment{Done: true, Err: &ClientError{Type: ErrTypeTransport, Message: "request failed", Cause: err}})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			deliver(ctx, ch, Fragment{Done: true, Err: statusError(resp)})
			return
		}

		reader := NewStreamReader(resp.Body)
		streamErr := reader.Process(ctx, func(text string) bool {
			return deliver(ctx, ch, Fragment{Text: text})
		})
		if streamErr != nil {
			deliver(ctx, ch, Fragment{Done: true, Err: streamErr})
			return
		}

		// Record the completed exchange so the handle's next submission
		// carries it as history.
		handle.recordTurn(userContent, reader.Accumulated())
		deliver(ctx, ch, Fragment{Done: true})
	}()

	return ch, nil
}

// deliver sends a fragment unless the consumer has gone away.
func deliver(ctx context.Context, ch chan<- Fragment, f Fragment) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// statusError maps an HTTP failure response onto the client error taxonomy.
func statusError(resp *http.Response) *ClientError {
	var envelope apiError
	msg := "request rejected: " + resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ClientError{Type: ErrTypeAuth, Message: msg}
	case http.StatusTooManyRequests:
		return &ClientError{Type: ErrTypeQuota, Message: msg}
	default:
		return &ClientError{Type: ErrTypeProvider, Message: msg}
	}
}
