// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP client for the Gemini generative
// language API.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avesta-ai/avesta/internal/media"
	"github.com/avesta-ai/avesta/internal/model"
)

// sseEvent formats one SSE data line carrying the given fragment text.
func sseEvent(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return "data: " + string(payload) + "\n\n"
}

// newTestClient points a client with a test key at the given server.
func newTestClient(serverURL string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:           serverURL,
		APIKey:            "test-key",
		RequestsPerMinute: 100000,
	})
}

// collect drains a fragment channel into texts and the terminal error.
func collect(ch <-chan Fragment) (texts []string, err error) {
	for f := range ch {
		if f.Err != nil {
			err = f.Err
		}
		if f.Text != "" {
			texts = append(texts, f.Text)
		}
	}
	return texts, err
}

// =============================================================================
// SESSION HANDLE TESTS
// =============================================================================

func TestCreateSession_ValidatesModel(t *testing.T) {
	c := NewClient()

	_, err := c.CreateSession("not-a-model", nil)
	require.Error(t, err)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrTypeInvalidModel, clientErr.Type)

	handle, err := c.CreateSession(model.DefaultModel, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModel, handle.Model())
}

func TestCreateSession_DefaultsModel(t *testing.T) {
	c := NewClient()
	handle, err := c.CreateSession("", nil)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModel, handle.Model())
}

func TestCreateSession_MapsHistoryRoles(t *testing.T) {
	c := NewClient()
	handle, err := c.CreateSession(model.DefaultModel, []model.HistoryTurn{
		{Sender: model.SenderUser, Text: "question"},
		{Sender: model.SenderAI, Text: "answer"},
	})
	require.NoError(t, err)

	require.Len(t, handle.history, 2)
	assert.Equal(t, "user", handle.history[0].Role)
	assert.Equal(t, "question", handle.history[0].Parts[0].Text)
	assert.Equal(t, "model", handle.history[1].Role)
	assert.Equal(t, "answer", handle.history[1].Parts[0].Text)
}

// =============================================================================
// PAYLOAD TESTS
// =============================================================================

func TestPayload_TextOnly(t *testing.T) {
	content := TextPayload("hello").toContent()
	assert.Equal(t, "user", content.Role)
	require.Len(t, content.Parts, 1)
	assert.Equal(t, "hello", content.Parts[0].Text)
	assert.Nil(t, content.Parts[0].InlineData)
}

func TestPayload_MultiPart(t *testing.T) {
	parts := []media.InlinePart{
		{MIMEType: "image/png", Data: "aaaa"},
		{MIMEType: "audio/wav", Data: "bbbb"},
	}

	content := MultiPartPayload("look at this", parts).toContent()
	require.Len(t, content.Parts, 3)
	assert.Equal(t, "look at this", content.Parts[0].Text)
	assert.Equal(t, "image/png", content.Parts[1].InlineData.MIMEType)
	assert.Equal(t, "audio/wav", content.Parts[2].InlineData.MIMEType)

	// No leading text part when text is empty
	content = MultiPartPayload("", parts).toContent()
	require.Len(t, content.Parts, 2)
	assert.NotNil(t, content.Parts[0].InlineData)
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestSubmitStreaming_FragmentOrder(t *testing.T) {
	fragments := []string{"The ", "quick ", "brown ", "fox"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, model.DefaultModel)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range fragments {
			fmt.Fprint(w, sseEvent(f))
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	handle, err := c.CreateSession(model.DefaultModel, nil)
	require.NoError(t, err)

	ch, err := c.SubmitStreaming(context.Background(), handle, TextPayload("go"))
	require.NoError(t, err)

	texts, streamErr := collect(ch)
	require.NoError(t, streamErr)
	assert.Equal(t, fragments, texts)
	assert.Equal(t, "The quick brown fox", strings.Join(texts, ""))
}

func TestSubmitStreaming_RecordsTurnInHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseEvent("pong"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	handle, err := c.CreateSession(model.DefaultModel, nil)
	require.NoError(t, err)

	ch, err := c.SubmitStreaming(context.Background(), handle, TextPayload("ping"))
	require.NoError(t, err)
	_, streamErr := collect(ch)
	require.NoError(t, streamErr)

	require.Len(t, handle.history, 2)
	assert.Equal(t, "user", handle.history[0].Role)
	assert.Equal(t, "ping", handle.history[0].Parts[0].Text)
	assert.Equal(t, "model", handle.history[1].Role)
	assert.Equal(t, "pong", handle.history[1].Parts[0].Text)
}

func TestSubmitStreaming_SendsHistory(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, sseEvent("ok"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	handle, err := c.CreateSession(model.DefaultModel, []model.HistoryTurn{
		{Sender: model.SenderUser, Text: "earlier question"},
		{Sender: model.SenderAI, Text: "earlier answer"},
	})
	require.NoError(t, err)

	ch, err := c.SubmitStreaming(context.Background(), handle, TextPayload("new turn"))
	require.NoError(t, err)
	collect(ch)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, "earlier question", got.Contents[0].Parts[0].Text)
	assert.Equal(t, "earlier answer", got.Contents[1].Parts[0].Text)
	assert.Equal(t, "new turn", got.Contents[2].Parts[0].Text)
}

func TestSubmitStreaming_MissingKey(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:1"})
	handle, err := c.CreateSession(model.DefaultModel, nil)
	require.NoError(t, err)

	_, err = c.SubmitStreaming(context.Background(), handle, TextPayload("x"))
	assert.True(t, IsAuthError(err))
}

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestSubmitStreaming_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, IsAuthError},
		{"forbidden", http.StatusForbidden, IsAuthError},
		{"quota", http.StatusTooManyRequests, IsQuotaError},
		{"provider", http.StatusBadRequest, func(err error) bool {
			var clientErr *ClientError
			return errors.As(err, &clientErr) && clientErr.Type == ErrTypeProvider
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"REJECTED"}}`, tc.status)
			}))
			defer server.Close()

			c := newTestClient(server.URL)
			handle, err := c.CreateSession(model.DefaultModel, nil)
			require.NoError(t, err)

			ch, err := c.SubmitStreaming(context.Background(), handle, TextPayload("x"))
			require.NoError(t, err)

			_, streamErr := collect(ch)
			require.Error(t, streamErr)
			assert.True(t, tc.check(streamErr), "wrong taxonomy for %v", streamErr)
			assert.Contains(t, streamErr.Error(), "nope")
		})
	}
}

func TestSubmitStreaming_TransportError(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	handle, err := c.CreateSession(model.DefaultModel, nil)
	require.NoError(t, err)

	ch, err := c.SubmitStreaming(context.Background(), handle, TextPayload("x"))
	require.NoError(t, err)

	_, streamErr := collect(ch)
	assert.True(t, IsTransportError(streamErr))

	// A failed turn must not pollute handle history
	assert.Empty(t, handle.history)
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReader_SkipsNoise(t *testing.T) {
	raw := ": keep-alive comment\n\n" +
		sseEvent("a") +
		"data: {malformed json\n\n" +
		sseEvent("b")

	reader := NewStreamReader(strings.NewReader(raw))
	var got []string
	err := reader.Process(context.Background(), func(text string) bool {
		got = append(got, text)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "ab", reader.Accumulated())
	assert.Equal(t, 2, reader.FragmentCount())
}

func TestStreamReader_ConsumerStop(t *testing.T) {
	raw := sseEvent("a") + sseEvent("b") + sseEvent("c")

	ctx, cancel := context.WithCancel(context.Background())
	reader := NewStreamReader(strings.NewReader(raw))
	var got []string
	err := reader.Process(ctx, func(text string) bool {
		got = append(got, text)
		cancel()
		return false
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, got)
}
