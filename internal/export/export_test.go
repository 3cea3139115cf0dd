// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/avesta-ai/avesta/internal/model"
)

func testSession() *model.Session {
	sess := model.NewSession("gemini-2.5-flash")
	sess.AddMessage(model.NewUserMessage("How do goroutines work?", []model.Attachment{
		{PreviewURL: "data:image/png;base64,aWNvbg==", Kind: model.AttachmentImage},
	}))
	sess.AddMessage(model.NewAssistantMessage("They are lightweight threads managed by the Go runtime."))
	return sess
}

// =============================================================================
// MARKDOWN EXPORTER TESTS
// =============================================================================

func TestMarkdownExport_Content(t *testing.T) {
	sess := testSession()
	out, err := NewMarkdownExporter(nil).Export(sess)
	if err != nil {
		t.Fatal(err)
	}
	content := string(out)

	for _, want := range []string{
		"title: How do goroutines work?",
		"model: gemini-2.5-flash",
		"# How do goroutines work?",
		"[User]",
		"[Avesta]",
		"lightweight threads",
		"Attachments: image",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("markdown export missing %q", want)
		}
	}

	// Raw data URLs must not be embedded
	if strings.Contains(content, "base64,aWNvbg==") {
		t.Error("markdown export should not embed attachment data")
	}
}

func TestMarkdownExport_EmptySession(t *testing.T) {
	sess := model.NewSession("gemini-2.5-flash")
	if _, err := NewMarkdownExporter(nil).Export(sess); err == nil {
		t.Error("expected error for session with no messages")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("expected error for nil session")
	}
}

func TestMarkdownExport_NoMetadata(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(testSession())
	if err != nil {
		t.Fatal(err)
	}
	content := string(out)

	if strings.Contains(content, "---\ntitle:") {
		t.Error("frontmatter should be omitted without metadata")
	}
	if strings.Contains(content, "Session Information") {
		t.Error("metadata section should be omitted")
	}
	if strings.Contains(content, "<sub>") && strings.Contains(content, ":") && strings.Contains(content, "### [User] <sub>") {
		t.Error("timestamps should be omitted")
	}
}

// =============================================================================
// JSON EXPORTER TESTS
// =============================================================================

func TestJSONExport_RoundTrip(t *testing.T) {
	sess := testSession()
	out, err := NewJSONExporter(nil).Export(sess)
	if err != nil {
		t.Fatal(err)
	}

	var decoded model.Session
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("export should be valid JSON: %v", err)
	}
	if decoded.ID != sess.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, sess.ID)
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(decoded.Messages))
	}
	if decoded.Messages[0].Attachments[0].PreviewURL != "data:image/png;base64,aWNvbg==" {
		t.Error("attachment preview should survive the round trip")
	}
}

// =============================================================================
// FILE EXPORT TESTS
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.OpenAfterExport = false

	path, err := ExportMarkdown(testSession(), opts)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(path, dir) {
		t.Errorf("output path %q not under %q", path, dir)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("output path %q should end in .md", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
}

func TestForFormat(t *testing.T) {
	if _, err := ForFormat("markdown", nil); err != nil {
		t.Error(err)
	}
	if _, err := ForFormat("md", nil); err != nil {
		t.Error(err)
	}
	if _, err := ForFormat("json", nil); err != nil {
		t.Error(err)
	}
	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

// =============================================================================
// FILENAME SANITIZATION TESTS
// =============================================================================

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "hello_world"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "chat"},
		{"tabs\there", "tabs_here"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
