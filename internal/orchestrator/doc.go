// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates chat turns from submission to completed
// or failed assistant response.
//
// SendMessage is the single entry point: it resolves or creates the target
// session, appends the user message before any network activity, rebuilds
// the provider handle when the session's model changed or no handle exists,
// appends an empty assistant placeholder, and then grows that placeholder in
// place as fragments arrive. Any failure along the way replaces the
// placeholder with one fixed user-facing reply; no error escapes to the
// caller.
//
// Provider handles are keyed per session id so concurrent sessions each
// retain their own and a stale handle is never silently reused. A
// per-session in-flight flag makes a second submission to the same session a
// silent no-op while the first is streaming; distinct sessions stream
// concurrently. Deleting a session mid-stream leaves the stream running
// detached: its writes are rejected by the store and discarded here.
package orchestrator
