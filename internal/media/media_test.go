// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package media converts user-attached files into the encodings the chat
// pipeline needs.
package media

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avesta-ai/avesta/internal/model"
)

// =============================================================================
// KIND INFERENCE TESTS
// =============================================================================

func TestKindFromMIME(t *testing.T) {
	tests := []struct {
		mimeType string
		want     model.AttachmentKind
	}{
		{"image/png", model.AttachmentImage},
		{"image/jpeg", model.AttachmentImage},
		{"video/mp4", model.AttachmentVideo},
		{"video/webm", model.AttachmentVideo},
		{"audio/mpeg", model.AttachmentAudio},
		{"audio/wav", model.AttachmentAudio},
		// Everything else falls back to image
		{"application/pdf", model.AttachmentImage},
		{"text/plain", model.AttachmentImage},
		{"", model.AttachmentImage},
	}

	for _, tc := range tests {
		t.Run(tc.mimeType, func(t *testing.T) {
			if got := KindFromMIME(tc.mimeType); got != tc.want {
				t.Errorf("KindFromMIME(%q) = %q, want %q", tc.mimeType, got, tc.want)
			}
		})
	}
}

// =============================================================================
// ENCODING TESTS
// =============================================================================

func TestToPreview(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4e, 0x47}
	att := ToPreview("image/png", data)

	if att.Kind != model.AttachmentImage {
		t.Errorf("Kind = %q, want image", att.Kind)
	}
	wantPrefix := "data:image/png;base64,"
	if !strings.HasPrefix(att.PreviewURL, wantPrefix) {
		t.Fatalf("PreviewURL = %q, want prefix %q", att.PreviewURL, wantPrefix)
	}

	// The payload must round-trip
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(att.PreviewURL, wantPrefix))
	if err != nil {
		t.Fatalf("PreviewURL payload is not valid base64: %v", err)
	}
	if string(decoded) != string(data) {
		t.Errorf("Decoded preview payload mismatch: got %v, want %v", decoded, data)
	}
}

func TestToInlinePayload(t *testing.T) {
	data := []byte("binary\x00payload")
	part := ToInlinePayload("audio/wav", data)

	if part.MIMEType != "audio/wav" {
		t.Errorf("MIMEType = %q, want audio/wav", part.MIMEType)
	}
	decoded, err := base64.StdEncoding.DecodeString(part.Data)
	if err != nil {
		t.Fatalf("Data is not valid base64: %v", err)
	}
	if string(decoded) != string(data) {
		t.Errorf("Decoded payload mismatch: got %q", decoded)
	}
}

// =============================================================================
// FILE LOADING TESTS
// =============================================================================

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	content := []byte("not really a png")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if f.Name != "photo.png" {
		t.Errorf("Name = %q, want photo.png", f.Name)
	}
	if f.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", f.MIMEType)
	}
	if string(f.Data) != string(content) {
		t.Error("Data mismatch")
	}

	if f.Preview().Kind != model.AttachmentImage {
		t.Errorf("Preview kind = %q, want image", f.Preview().Kind)
	}
	if f.InlinePayload().MIMEType != "image/png" {
		t.Error("InlinePayload should carry the detected MIME type")
	}
}

func TestLoadFile_UnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.zzz-unknown")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile should reject files with an undeterminable media type")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("LoadFile should fail for a missing file")
	}
}

func TestLoadFile_TooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Sparse file: one byte over the cap without writing the bytes
	if err := f.Truncate(MaxAttachmentBytes + 1); err != nil {
		f.Close()
		t.Fatal(err)
	}
	f.Close()

	_, err = LoadFile(path)
	if err == nil {
		t.Fatal("LoadFile should reject files over the attachment cap")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("error should name the size rejection, got %q", err)
	}
}
