// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP client for the Gemini generative
// language API.
package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// ssePrefix marks a data line in a server-sent-events stream.
var ssePrefix = []byte("data:")

// StreamReader handles line-by-line parsing of an SSE response stream.
type StreamReader struct {
	reader *bufio.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator   strings.Builder
	fragmentCount int
}

// NewStreamReader creates a stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream to completion, calling emit for each text
// fragment in arrival order. emit returning false stops processing (the
// consumer has gone away). Blocks until the stream ends or ctx is cancelled.
func (s *StreamReader) Process(ctx context.Context, emit func(text string) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			text, err := s.readFragment()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			if text == "" {
				continue
			}
			s.accumulator.WriteString(text)
			s.fragmentCount++
			if !emit(text) {
				return ctx.Err()
			}
		}
	}
}

// readFragment reads lines until it has decoded one SSE event, returning its
// text content. Returns "" for events that carry no text.
func (s *StreamReader) readFragment() (string, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(bytes.TrimSpace(line)) == 0 {
			return "", io.EOF
		}
		if len(line) == 0 {
			return "", err
		}
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 || !bytes.HasPrefix(line, ssePrefix) {
		// Blank keep-alives and SSE comment/event lines carry no payload
		return "", nil
	}
	data := bytes.TrimSpace(bytes.TrimPrefix(line, ssePrefix))
	if len(data) == 0 {
		return "", nil
	}

	var response streamResponse
	if err := json.Unmarshal(data, &response); err != nil {
		// Skip malformed events
		return "", nil
	}

	var text strings.Builder
	for _, cand := range response.Candidates {
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
		// Only the first candidate is meaningful for chat
		break
	}
	return text.String(), nil
}

// Accumulated returns all text received so far, in order.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// FragmentCount returns the number of non-empty fragments received.
func (s *StreamReader) FragmentCount() int {
	return s.fragmentCount
}
