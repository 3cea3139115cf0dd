// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP client for the Gemini generative
// language API.
package provider

import (
	"github.com/avesta-ai/avesta/internal/media"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// Wire roles used in conversation history.
const (
	roleUser  = "user"
	roleModel = "model"
)

// Part is one piece of a content entry: either text or inline binary data.
type Part struct {
	Text       string            `json:"text,omitempty"`
	InlineData *media.InlinePart `json:"inlineData,omitempty"`
}

// Content is one turn in the provider's wire format.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// generateRequest is the request body for streamGenerateContent.
type generateRequest struct {
	Contents []Content `json:"contents"`
}

// streamResponse is one decoded SSE event from the streaming endpoint.
type streamResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

// apiError is the provider's error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// =============================================================================
// PAYLOAD VARIANT
// =============================================================================

// PayloadKind tags the two payload shapes a turn can take.
type PayloadKind int

const (
	// PayloadTextOnly is a plain text turn with no attachments.
	PayloadTextOnly PayloadKind = iota
	// PayloadMultiPart is an optional leading text part followed by one
	// inline part per attachment.
	PayloadMultiPart
)

// Payload is the outbound message for one turn. It is an explicit tagged
// variant so the client has one unambiguous input shape instead of a
// type-unstable union inferred at runtime.
type Payload struct {
	Kind  PayloadKind
	Text  string
	Parts []media.InlinePart
}

// TextPayload builds a text-only payload.
func TextPayload(text string) Payload {
	return Payload{Kind: PayloadTextOnly, Text: text}
}

// MultiPartPayload builds a payload with an optional leading text part and
// one part per attachment, in attachment order.
func MultiPartPayload(text string, parts []media.InlinePart) Payload {
	return Payload{Kind: PayloadMultiPart, Text: text, Parts: parts}
}

// toContent converts the payload into a user content entry.
func (p Payload) toContent() Content {
	switch p.Kind {
	case PayloadMultiPart:
		parts := make([]Part, 0, len(p.Parts)+1)
		if p.Text != "" {
			parts = append(parts, Part{Text: p.Text})
		}
		for i := range p.Parts {
			inline := p.Parts[i]
			parts = append(parts, Part{InlineData: &inline})
		}
		return Content{Role: roleUser, Parts: parts}
	default:
		return Content{Role: roleUser, Parts: []Part{{Text: p.Text}}}
	}
}

// =============================================================================
// FRAGMENT TYPE
// =============================================================================

// Fragment is one incremental piece of a streamed response. Errors are
// delivered in-band as the final fragment with Err set.
type Fragment struct {
	Text string
	Done bool
	Err  error
}
