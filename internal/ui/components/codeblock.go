// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// codeblock.go - Syntax-highlighted code block rendering via chroma.
package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	uistyles "github.com/avesta-ai/avesta/internal/ui/styles"
	"github.com/charmbracelet/lipgloss"
)

// chromaStyle is the highlight style used for fenced code blocks.
const chromaStyle = "catppuccin-mocha"

var codeFrame = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(uistyles.OverlayDim).
	Padding(0, 1)

var codeLang = lipgloss.NewStyle().
	Foreground(uistyles.TextMuted).
	Italic(true)

// HighlightCode applies terminal syntax highlighting to a code snippet.
// Unknown languages fall back to plain text.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(chromaStyle)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var out strings.Builder
	if err := formatter.Format(&out, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(out.String(), "\n")
}

// RenderCodeBlock frames a highlighted code block with its language tag.
func RenderCodeBlock(code, language string, maxWidth int) string {
	highlighted := HighlightCode(code, language)

	frame := codeFrame
	if maxWidth > 4 {
		frame = frame.MaxWidth(maxWidth)
	}

	block := frame.Render(highlighted)
	if language != "" {
		return codeLang.Render(" "+language) + "\n" + block
	}
	return block
}

// ParseCodeBlocks replaces fenced ``` blocks in text with highlighted,
// framed renderings. Text outside fences is returned untouched.
func ParseCodeBlocks(text string, maxWidth int) string {
	lines := strings.Split(text, "\n")

	var out []string
	var code []string
	var lang string
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				out = append(out, RenderCodeBlock(strings.Join(code, "\n"), lang, maxWidth))
				code = nil
				inFence = false
			} else {
				lang = strings.TrimPrefix(trimmed, "```")
				inFence = true
			}
			continue
		}
		if inFence {
			code = append(code, line)
		} else {
			out = append(out, line)
		}
	}

	// Unterminated fence: emit what accumulated so a streaming response
	// still renders.
	if inFence && len(code) > 0 {
		out = append(out, RenderCodeBlock(strings.Join(code, "\n"), lang, maxWidth))
	}

	return strings.Join(out, "\n")
}
