// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package media converts user-attached files into the encodings the chat
// pipeline needs.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/avesta-ai/avesta/internal/model"
)

// =============================================================================
// PREVIEW ENCODING
// =============================================================================

// KindFromMIME infers the attachment kind from a MIME type prefix.
// Anything that is not video or audio renders as an image.
func KindFromMIME(mimeType string) model.AttachmentKind {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return model.AttachmentVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return model.AttachmentAudio
	default:
		return model.AttachmentImage
	}
}

// ToPreview produces a locally renderable reference for an attached file: a
// self-contained data URL plus the render kind. Never touches the network,
// so previews remain valid across persistence round-trips.
func ToPreview(mimeType string, data []byte) model.Attachment {
	return model.Attachment{
		PreviewURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Kind:       KindFromMIME(mimeType),
	}
}

// =============================================================================
// INLINE PAYLOAD ENCODING
// =============================================================================

// InlinePart is the binary-safe encoding of one attachment for the
// provider's multi-part payload.
type InlinePart struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ToInlinePayload encodes raw file bytes for transport.
func ToInlinePayload(mimeType string, data []byte) InlinePart {
	return InlinePart{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// =============================================================================
// FILE LOADING
// =============================================================================

// File is an attachment read into memory, carrying everything the chat
// pipeline needs: a preview for display and an inline part for transport.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// MaxAttachmentBytes bounds how much of a file is loaded into memory. An
// attachment is base64-encoded twice (preview data URL + inline part) and
// the preview lands in the persisted snapshot, so large files would roughly
// triple their footprint on every persist.
const MaxAttachmentBytes = 20 * 1024 * 1024

// LoadFile reads a file from disk and detects its MIME type from the
// extension. Files with an unknown extension are rejected rather than sent
// with a guessed type, and files over MaxAttachmentBytes are rejected
// before any bytes are read.
func LoadFile(path string) (*File, error) {
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		return nil, fmt.Errorf("cannot determine media type for %q", filepath.Base(path))
	}
	// Strip parameters like "; charset=utf-8"
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if info.Size() > MaxAttachmentBytes {
		return nil, fmt.Errorf("%s is too large to attach (%d bytes, max %d)",
			filepath.Base(path), info.Size(), MaxAttachmentBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	return &File{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// Preview returns the locally renderable reference for the file.
func (f *File) Preview() model.Attachment {
	return ToPreview(f.MIMEType, f.Data)
}

// InlinePayload returns the transport encoding for the file.
func (f *File) InlinePayload() InlinePart {
	return ToInlinePayload(f.MIMEType, f.Data)
}
