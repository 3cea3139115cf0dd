// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// message.go - Chat message bubble rendering.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/avesta-ai/avesta/internal/model"
	"github.com/avesta-ai/avesta/internal/ui/styles"
)

// MessageBubble renders a single chat message as a styled bubble. User
// messages align right; assistant messages align left.
type MessageBubble struct {
	msg      *model.Message
	theme    *styles.Theme
	width    int
	isLatest bool
	failure  string // failure reply text, styled differently when matched
}

// NewMessageBubble creates a bubble for one message.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		msg:   msg,
		theme: theme,
		width: theme.Width,
	}
}

// SetWidth sets the available terminal width.
func (b *MessageBubble) SetWidth(width int) {
	b.width = width
}

// SetIsLatest marks the newest message, which carries the streaming cursor
// while accumulating.
func (b *MessageBubble) SetIsLatest(latest bool) {
	b.isLatest = latest
}

// SetFailureText marks the fixed failure reply so it renders in error
// styling.
func (b *MessageBubble) SetFailureText(text string) {
	b.failure = text
}

// View renders the bubble.
func (b *MessageBubble) View() string {
	if b.msg.Sender == model.SenderUser {
		return b.renderUserBubble()
	}
	return b.renderAssistantBubble()
}

func (b *MessageBubble) renderUserBubble() string {
	contentWidth := b.contentWidth()

	var parts []string
	text := b.msg.DisplayText()
	if text != "" {
		parts = append(parts, wordWrap(text, contentWidth))
	}
	for _, att := range b.msg.Attachments {
		parts = append(parts, b.theme.AttachmentChip.Render("📎 "+string(att.Kind)))
	}
	if len(parts) == 0 {
		return ""
	}

	bubble := b.theme.UserBubble.MaxWidth(contentWidth + 4).Render(strings.Join(parts, "\n"))
	label := b.theme.UserLabel.Render("You") + " " + b.theme.Timestamp.Render(formatClock(b.msg.Timestamp))

	block := label + "\n" + bubble
	return lipgloss.PlaceHorizontal(b.width, lipgloss.Right, block)
}

func (b *MessageBubble) renderAssistantBubble() string {
	contentWidth := b.contentWidth()

	text := b.msg.DisplayText()

	// Pending bubble before the first fragment
	if text == "" && b.msg.Accumulating() {
		text = "…"
	}

	var bubble string
	if b.failure != "" && text == b.failure {
		bubble = b.theme.FailureBubble.MaxWidth(contentWidth + 4).Render(text)
	} else {
		rendered := ParseCodeBlocks(wordWrap(text, contentWidth), contentWidth)
		if b.msg.Accumulating() && b.isLatest {
			rendered += "▌"
		}
		bubble = b.theme.AssistantBubble.MaxWidth(contentWidth + 4).Render(rendered)
	}

	label := b.theme.AssistantLabel.Render("Avesta") + " " + b.theme.Timestamp.Render(formatClock(b.msg.Timestamp))
	return label + "\n" + bubble
}

func (b *MessageBubble) contentWidth() int {
	w := b.theme.BubbleWidth()
	if w > b.width-4 {
		w = b.width - 4
	}
	if w < 16 {
		w = 16
	}
	return w
}

// wordWrap wraps text at word boundaries, preserving existing newlines.
// Wrapping is width-aware for East Asian characters.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= width {
			out = append(out, line)
			continue
		}

		var current strings.Builder
		currentWidth := 0
		for _, word := range strings.Fields(line) {
			ww := runewidth.StringWidth(word)
			if currentWidth > 0 && currentWidth+1+ww > width {
				out = append(out, current.String())
				current.Reset()
				currentWidth = 0
			}
			if currentWidth > 0 {
				current.WriteString(" ")
				currentWidth++
			}
			current.WriteString(word)
			currentWidth += ww
		}
		if current.Len() > 0 {
			out = append(out, current.String())
		}
	}
	return strings.Join(out, "\n")
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}

// MessageList renders a session's messages as a vertical transcript.
type MessageList struct {
	theme       *styles.Theme
	width       int
	failureText string
}

// NewMessageList creates an empty transcript renderer.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{theme: theme, width: theme.Width}
}

// SetWidth sets the available terminal width.
func (ml *MessageList) SetWidth(width int) {
	ml.width = width
}

// SetFailureText marks the fixed failure reply for error styling.
func (ml *MessageList) SetFailureText(text string) {
	ml.failureText = text
}

// View renders all messages with blank lines between bubbles.
func (ml *MessageList) View(messages []*model.Message) string {
	if len(messages) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(messages))
	for i, msg := range messages {
		bubble := NewMessageBubble(msg, ml.theme)
		bubble.SetWidth(ml.width)
		bubble.SetIsLatest(i == len(messages)-1)
		bubble.SetFailureText(ml.failureText)
		if v := bubble.View(); v != "" {
			blocks = append(blocks, v)
		}
	}
	return strings.Join(blocks, "\n\n")
}
