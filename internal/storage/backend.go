// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable multi-session persistence for avesta.
package storage

import (
	"os"
	"path/filepath"

	"github.com/avesta-ai/avesta/internal/util"
)

// SnapshotKey is the fixed key the session snapshot is stored under.
const SnapshotKey = "chat_sessions"

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a string-keyed durable value store holding the serialized
// session snapshot. Implementations must make Write all-or-nothing: a crash
// mid-write leaves either the old snapshot or the new one, never a torn file.
type Backend interface {
	// Read returns the value for key. ok is false when the key is absent,
	// which callers treat as an empty session list.
	Read(key string) (data []byte, ok bool, err error)

	// Write replaces the value for key.
	Write(key string, data []byte) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error
}

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as a JSON file in a directory.
type FileBackend struct {
	// Dir is the directory holding snapshot files.
	// Default: ~/.avesta
	Dir string
}

// NewFileBackend creates a file backend rooted in the user's home directory.
func NewFileBackend() (*FileBackend, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewFileBackendWithDir(filepath.Join(homeDir, ".avesta"))
}

// NewFileBackendWithDir creates a file backend in a custom directory.
func NewFileBackendWithDir(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileBackend{Dir: dir}, nil
}

// Read implements Backend.
func (b *FileBackend) Read(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write implements Backend.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func (b *FileBackend) Write(key string, data []byte) error {
	return util.AtomicWriteFileWithDir(b.path(key), data, 0600, 0700)
}

// Remove implements Backend.
func (b *FileBackend) Remove(key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// path returns the file path for a key.
func (b *FileBackend) path(key string) string {
	return filepath.Join(b.Dir, key+".json")
}
