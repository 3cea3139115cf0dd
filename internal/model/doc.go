// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// A Session is one conversation thread: an ordered message log, a title, and
// the model the thread is bound to. A Message is a single turn; assistant
// messages begin empty in accumulating state and grow in place as response
// fragments arrive. The package also carries the registry of selectable chat
// models and per-response timing statistics.
//
// The package has no dependencies on storage, providers, or UI; everything
// else depends on it.
package model
