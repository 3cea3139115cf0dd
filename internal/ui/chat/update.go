// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Message handling for the chat view.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/export"
	"github.com/avesta-ai/avesta/internal/media"
)

// statusDisplayTime is how long transient status messages stay visible.
const statusDisplayTime = 4 * time.Second

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusDisplayTime, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionsChangedMsg:
		return m.handleSessionsChanged(msg)

	case TurnStartedMsg:
		if msg.SessionID == m.activeID {
			cmd := m.spinner.Start()
			m.syncChrome()
			return m, tea.Batch(cmd, m.ensureTicking())
		}
		return m, nil

	case FragmentMsg:
		return m.handleFragment(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case TurnCompletedMsg:
		return m.handleTurnCompleted(msg)

	case TurnFailedMsg:
		return m.handleTurnFailed(msg)

	case ConfigReloadedMsg:
		m.cfg = config.Global()
		m.syncChrome()
		return m, m.setStatus("Config reloaded", false)

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.statusBar.SetStatus("", false)
		}
		return m, nil

	case handoffMsg:
		m.input.SetValue(msg.text)
		return m.handleSend()
	}

	// Spinner frames and cursor blink
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.header.SetWidth(msg.Width)
	m.statusBar.SetWidth(msg.Width)
	m.transcript.SetWidth(msg.Width)
	m.input.Width = msg.Width - 8

	// header(1) + spinner(1) + input(3) + status(1)
	viewportHeight := msg.Height - 6
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !m.ready {
		m.viewport = newViewport(msg.Width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}

	m.renderTranscript(true)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != OverlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.NewSession):
		sess := m.orch.NewSession(m.activeModelID())
		m.switchTo(sess.ID)
		return m, m.setStatus("New chat", false)

	case key.Matches(msg, m.keyMap.Sessions):
		m.refreshPickers()
		m.overlay = OverlaySessions
		return m, nil

	case key.Matches(msg, m.keyMap.Models):
		m.refreshPickers()
		m.overlay = OverlayModels
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.overlay = OverlayHelp
		return m, nil

	case key.Matches(msg, m.keyMap.Delete):
		if m.activeID != "" {
			m.overlay = OverlayConfirmDelete
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Export):
		return m.handleExport()

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Send):
		return m.handleSend()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Close) {
		m.overlay = OverlayNone
		return m, nil
	}

	switch m.overlay {
	case OverlaySessions:
		switch {
		case key.Matches(msg, m.keyMap.PickerUp):
			m.sessionPicker.MoveUp()
		case key.Matches(msg, m.keyMap.PickerDown):
			m.sessionPicker.MoveDown()
		case key.Matches(msg, m.keyMap.PickerSelect):
			if item, ok := m.sessionPicker.Selected(); ok {
				m.switchTo(item.ID)
			}
			m.overlay = OverlayNone
		}

	case OverlayModels:
		switch {
		case key.Matches(msg, m.keyMap.PickerUp):
			m.modelPicker.MoveUp()
		case key.Matches(msg, m.keyMap.PickerDown):
			m.modelPicker.MoveDown()
		case key.Matches(msg, m.keyMap.PickerSelect):
			m.overlay = OverlayNone
			if item, ok := m.modelPicker.Selected(); ok {
				return m.handleModelSelected(item.ID)
			}
		}

	case OverlayHelp:
		// Any key closes help
		m.overlay = OverlayNone

	case OverlayConfirmDelete:
		switch msg.String() {
		case "y", "enter":
			m.overlay = OverlayNone
			return m.handleDeleteConfirmed()
		case "n":
			m.overlay = OverlayNone
		}
	}

	return m, nil
}

func (m Model) handleModelSelected(modelID string) (tea.Model, tea.Cmd) {
	if m.activeID == "" {
		// No session yet: nothing to rebind, the next send creates a
		// session on the default model. Create one now so the choice
		// sticks.
		sess := m.orch.NewSession(modelID)
		m.switchTo(sess.ID)
		m.syncChrome()
		return m, m.setStatus("Model set", false)
	}
	if err := m.orch.SwitchModel(m.activeID, modelID); err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	m.syncChrome()
	return m, m.setStatus("Model set", false)
}

func (m Model) handleDeleteConfirmed() (tea.Model, tea.Cmd) {
	m.orch.DeleteSession(m.activeID)

	if sessions := m.orch.Store().Sessions(); len(sessions) > 0 {
		m.switchTo(sessions[0].ID)
	} else {
		m.activeID = ""
		m.buffer.Reset()
		m.seenLen = 0
		m.renderTranscript(true)
		m.syncChrome()
	}
	return m, m.setStatus("Chat deleted", false)
}

func (m Model) handleExport() (tea.Model, tea.Cmd) {
	sess := m.ActiveSession()
	if sess == nil || sess.MessageCount() == 0 {
		return m, m.setStatus("Nothing to export", true)
	}

	opts := export.DefaultOptions()
	opts.OutputDir = m.cfg.Export.Dir
	exporter, err := export.ForFormat(m.cfg.Export.Format, opts)
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	return m, m.setStatus("Exported "+path, false)
}

func (m Model) handleSend() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	// Input-line commands
	if strings.HasPrefix(strings.TrimSpace(text), "/attach ") {
		path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "/attach "))
		file, err := media.LoadFile(path)
		if err != nil {
			return m, m.setStatus(err.Error(), true)
		}
		m.staged = append(m.staged, file)
		m.input.Reset()
		return m, m.setStatus("Attached "+file.Name, false)
	}

	staged := m.staged
	id, started := m.orch.SendMessage(context.Background(), m.activeID, text, staged)
	if !started {
		if m.activeID != "" && m.orch.Accumulating(m.activeID) {
			return m, m.setStatus("Still responding…", true)
		}
		return m, nil
	}

	m.staged = nil
	m.input.Reset()

	if id != m.activeID {
		m.activeID = id
		m.orch.Store().SetActive(id)
	}
	m.buffer.Reset()
	m.seenLen = 0
	m.renderTranscript(true)
	m.syncChrome()
	return m, textinput.Blink
}

func (m Model) handleSessionsChanged(msg SessionsChangedMsg) (tea.Model, tea.Cmd) {
	// Active session deleted elsewhere: fall back to the newest.
	if m.activeID != "" && m.orch.Store().Get(m.activeID) == nil {
		if sessions := m.orch.Store().Sessions(); len(sessions) > 0 {
			m.switchTo(sessions[0].ID)
		} else {
			m.activeID = ""
		}
	}

	if msg.SessionID == m.activeID || msg.SessionID == "" {
		m.renderTranscript(true)
	}
	m.syncChrome()
	return m, nil
}

func (m Model) handleFragment(msg FragmentMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.activeID {
		return m, nil
	}

	sess := m.ActiveSession()
	if sess == nil {
		return m, nil
	}
	last := sess.LastMessage()
	if last == nil {
		return m, nil
	}

	full := last.DisplayText()
	if len(full) > m.seenLen {
		m.buffer.Write(full[m.seenLen:])
		m.seenLen = len(full)
	}
	return m, m.ensureTicking()
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if _, ok := m.buffer.Flush(); ok {
		m.renderTranscript(true)
	}

	streaming := m.activeID != "" && m.orch.Accumulating(m.activeID)
	if streaming || m.buffer.Pending() > 0 {
		return m, streamTickCmd()
	}
	m.ticking = false
	return m, nil
}

func (m Model) handleTurnCompleted(msg TurnCompletedMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.activeID {
		return m, nil
	}

	m.spinner.Stop()
	m.buffer.ForceFlush()
	m.renderTranscript(true)
	m.syncChrome()

	if m.cfg.UI.ShowStats && msg.Stats != nil {
		return m, m.setStatus(msg.Stats.Format(), false)
	}
	return m, nil
}

func (m Model) handleTurnFailed(msg TurnFailedMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.activeID {
		return m, nil
	}

	m.spinner.Stop()
	m.buffer.Reset()
	m.renderTranscript(true)
	m.syncChrome()
	return m, nil
}

// ensureTicking starts the streaming repaint loop if it is not running.
func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return streamTickCmd()
}

// switchTo makes another session active and resets streaming render state.
func (m *Model) switchTo(id string) {
	m.activeID = id
	m.orch.Store().SetActive(id)

	m.buffer.Reset()
	m.seenLen = 0
	if sess := m.ActiveSession(); sess != nil {
		// Joining a session mid-stream: start from what is already
		// rendered so fragments are not duplicated.
		if last := sess.LastMessage(); last != nil && last.Accumulating() {
			m.seenLen = len(last.DisplayText())
		}
	}

	m.renderTranscript(true)
	m.syncChrome()
}
