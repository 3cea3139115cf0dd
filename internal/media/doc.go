// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package media converts user-attached files into the two encodings the chat
// pipeline needs: a locally renderable preview (data URL plus render kind
// inferred from the MIME prefix) and the inline base64 payload the provider's
// multi-part message format requires.
//
// All functions are pure with respect to their inputs and safe to call
// concurrently for multiple attachments.
package media
