// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the HTTP client for the Gemini generative
// language API.
//
// The client exposes two operations the chat pipeline consumes:
//
//   - CreateSession builds an opaque SessionHandle from a model id and
//     text-only history. It is synchronous and makes no network call.
//   - SubmitStreaming submits one turn against a handle and returns a finite,
//     single-consumer channel of response fragments in arrival order. Errors
//     are delivered in-band as a final fragment.
//
// Failures are categorized as auth, quota, transport, or provider errors via
// ClientError, so callers that care (the one-shot ask path) can branch while
// the chat path maps them all to one failure message. Outbound submissions
// are throttled with a token-bucket rate limiter.
package provider
