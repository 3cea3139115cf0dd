// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for avesta CLI.
//
// USABILITY: Markdown rendering for better CLI experience
//
// Handles the "avesta ask" command which sends a single question to the
// model and streams the response to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   avesta ask "What is the capital of France?"
//   avesta ask "Review this code:" --file main.go
//   avesta ask "Describe this image" -f chart.png
//   avesta ask --model gemini-3-pro-preview "Prove this theorem"
//   cat error.log | avesta ask "What caused this?"
//
// Flags:
//   -f, --file FILE     Attach a file (repeatable)
//   -m, --model NAME    Use specific model (overrides config)
//   --raw               Skip markdown rendering
//   --json              Output response as JSON
//   -v, --verbose       Verbose output
//   -q, --quiet         Minimal output
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/media"
	"github.com/avesta-ai/avesta/internal/model"
	"github.com/avesta-ai/avesta/internal/provider"
)

// MaxContextFileSize bounds text files framed into the question (50KB).
const MaxContextFileSize = 50 * 1024

// markdownRenderer is the lazily built glamour renderer for TTY output.
var markdownRenderer *glamour.TermRenderer

func getMarkdownRenderer() *glamour.TermRenderer {
	if markdownRenderer == nil {
		width := GetTerminalWidth()
		if width > 100 {
			width = 100
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			markdownRenderer = r
		}
	}
	return markdownRenderer
}

// renderMarkdown renders markdown for terminal display, falling back to the
// raw text when the renderer is unavailable.
func renderMarkdown(text string) string {
	r := getMarkdownRenderer()
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// HandleAskCommand executes the ask command and returns an exit code.
func HandleAskCommand(args Args) int {
	cfg := config.Global()

	query := strings.TrimSpace(args.Query)

	// A piped stdin becomes additional context below the question.
	if !IsTTY() {
		stdin, err := io.ReadAll(io.LimitReader(os.Stdin, MaxContextFileSize))
		if err == nil && len(stdin) > 0 {
			query = query + "\n\n```\n" + strings.TrimRight(string(stdin), "\n") + "\n```"
		}
	}

	if strings.TrimSpace(query) == "" && len(args.Files) == 0 {
		return HandleError(NewUsageError("ask requires a question"), args.JSON)
	}

	modelID := resolveModel(args, cfg)
	if !model.IsKnownModel(modelID) {
		return HandleError(NewUsageError("unknown model %q (see 'avesta models')", modelID), args.JSON)
	}

	// Split attachments: media files travel inline, text files are framed
	// into the question itself.
	var parts []media.InlinePart
	for _, path := range args.Files {
		file, err := media.LoadFile(path)
		if err == nil && isInlineMIME(file.MIMEType) {
			parts = append(parts, file.InlinePayload())
			continue
		}
		framed, ferr := readFileForContext(path)
		if ferr != nil {
			if err == nil {
				err = ferr
			}
			return HandleError(err, args.JSON)
		}
		query += framed
	}

	var payload provider.Payload
	if len(parts) == 0 {
		payload = provider.TextPayload(query)
	} else {
		payload = provider.MultiPartPayload(query, parts)
	}

	client := buildProviderClient(cfg)
	handle, err := client.CreateSession(modelID, nil)
	if err != nil {
		return HandleError(err, args.JSON)
	}

	started := time.Now()
	fragments, err := client.SubmitStreaming(context.Background(), handle, payload)
	if err != nil {
		return HandleError(err, args.JSON)
	}

	// Rendering: pretty markdown on a TTY, raw streaming otherwise. The
	// markdown path buffers the full response before rendering.
	pretty := IsStdoutTTY() && cfg.UI.Markdown && args.Options["raw"] != "true" && !args.JSON

	var response strings.Builder
	for fragment := range fragments {
		if fragment.Err != nil {
			return HandleError(fragment.Err, args.JSON)
		}
		response.WriteString(fragment.Text)
		if !pretty && !args.JSON {
			fmt.Print(fragment.Text)
		}
	}

	switch {
	case args.JSON:
		_ = outputJSON(map[string]any{
			"model":       modelID,
			"response":    response.String(),
			"duration_ms": time.Since(started).Milliseconds(),
		})
	case pretty:
		fmt.Print(renderMarkdown(response.String()))
	default:
		// Streamed already; just terminate the line.
		if !strings.HasSuffix(response.String(), "\n") {
			fmt.Println()
		}
	}

	if args.Verbose && !args.JSON {
		fmt.Fprintln(os.Stderr, DimStyle.Render(fmt.Sprintf("[%s · %s]", modelID, formatDuration(time.Since(started)))))
	}

	return ExitSuccess
}

// isInlineMIME reports whether a MIME type should travel as an inline
// binary part rather than be framed as text context.
func isInlineMIME(mimeType string) bool {
	switch {
	case strings.HasPrefix(mimeType, "image/"),
		strings.HasPrefix(mimeType, "audio/"),
		strings.HasPrefix(mimeType, "video/"),
		mimeType == "application/pdf":
		return true
	}
	return false
}

// readFileForContext reads a text file and frames it for inclusion in the
// question.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", NewNotFoundError("cannot read %s: %v", path, err)
	}
	if info.Size() > MaxContextFileSize {
		return "", NewUsageError("%s is too large to include (%d bytes, max %d)", path, info.Size(), MaxContextFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewNotFoundError("cannot read %s: %v", path, err)
	}

	return fmt.Sprintf("\n\n--- File: %s ---\n%s\n--- End file ---", path, string(data)), nil
}
