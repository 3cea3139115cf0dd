// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the avesta terminal client.
//
// It contains crash-safe file writing (atomic temp-write-fsync-rename) used
// by the session store and config layer, and Unicode-aware string helpers
// (rune-safe truncation, display-width measurement, NFC normalization) used
// anywhere user text meets a fixed-width terminal.
package util
