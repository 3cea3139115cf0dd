// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Rendering for the chat view.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	switch m.overlay {
	case OverlaySessions:
		return m.sessionPicker.View()
	case OverlayModels:
		return m.modelPicker.View()
	case OverlayHelp:
		return m.renderHelp()
	case OverlayConfirmDelete:
		return m.renderConfirmDelete()
	}

	var b strings.Builder
	b.WriteString(m.header.View())
	b.WriteString("\n")

	sess := m.ActiveSession()
	if sess == nil || sess.MessageCount() == 0 {
		b.WriteString(m.welcome.View(m.width, m.viewport.Height))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	// Spinner line doubles as the staged-attachment indicator.
	line := m.spinner.View()
	if line == "" && len(m.staged) > 0 {
		names := make([]string, 0, len(m.staged))
		for _, f := range m.staged {
			names = append(names, f.Name)
		}
		line = m.theme.Muted.Render("📎 " + strings.Join(names, ", "))
	}
	b.WriteString(line)
	b.WriteString("\n")

	inputStyle := m.theme.InputBoxFocused.Width(m.width - 2)
	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n")

	b.WriteString(m.statusBar.View())
	return b.String()
}

// renderTranscript repaints the viewport from the store.
func (m *Model) renderTranscript(gotoBottom bool) {
	if !m.ready {
		return
	}

	sess := m.ActiveSession()
	if sess == nil {
		m.viewport.SetContent("")
		return
	}

	m.transcript.SetWidth(m.width)
	m.viewport.SetContent(m.transcript.View(sess.Messages))
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderHelp() string {
	rows := []string{
		m.theme.OverlayTitle.Render("Keyboard shortcuts"),
		"",
	}
	for _, item := range [][2]string{
		{"enter", "send message"},
		{"ctrl+n", "new chat"},
		{"ctrl+s", "session picker"},
		{"ctrl+l", "model picker"},
		{"ctrl+e", "export transcript"},
		{"ctrl+d", "delete current chat"},
		{"pgup/pgdn", "scroll transcript"},
		{"ctrl+h", "toggle this help"},
		{"ctrl+c", "quit"},
	} {
		rows = append(rows, m.theme.Accent.Render(padRight(item[0], 12))+m.theme.Muted.Render(item[1]))
	}
	rows = append(rows, "", m.theme.Muted.Render("Type /attach <path> to stage a file for the next message."))

	box := m.theme.OverlayBox.Render(strings.Join(rows, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderConfirmDelete() string {
	title := "this chat"
	if sess := m.ActiveSession(); sess != nil {
		title = "“" + sess.GetTitle() + "”"
	}
	rows := []string{
		m.theme.OverlayTitle.Render("Delete " + title + "?"),
		"",
		m.theme.Error.Render("This cannot be undone."),
		"",
		m.theme.Muted.Render("y/enter delete · n/esc cancel"),
	}
	box := m.theme.OverlayBox.Render(strings.Join(rows, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
