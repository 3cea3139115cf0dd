// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable multi-session persistence for avesta.
//
// The Store is the single source of truth for the session list and the
// active session id. Every mutation rewrites the full snapshot under the
// fixed key "chat_sessions" through a pluggable Backend: a JSON file written
// atomically, or a single-table SQLite database. Deleting the last session
// removes the key entirely rather than writing an empty array.
//
// Durability is best-effort by design: a failed write is logged and
// swallowed, and the in-memory list stays authoritative for the rest of the
// process. A missing or corrupt snapshot loads as an empty history.
package storage
