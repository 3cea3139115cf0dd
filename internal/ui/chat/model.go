// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the chat view.
package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/media"
	"github.com/avesta-ai/avesta/internal/model"
	"github.com/avesta-ai/avesta/internal/orchestrator"
	"github.com/avesta-ai/avesta/internal/ui/components"
	"github.com/avesta-ai/avesta/internal/ui/styles"
)

// Overlay identifies which popup, if any, sits over the chat view.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlaySessions
	OverlayModels
	OverlayHelp
	OverlayConfirmDelete
)

// Model is the Bubble Tea model for the chat view.
type Model struct {
	orch *orchestrator.Orchestrator
	cfg  *config.Config

	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Active session
	activeID string

	// Streaming render state for the active session
	buffer   *StreamingBuffer
	seenLen  int  // bytes of the accumulating message already buffered
	ticking  bool // streaming tick loop running

	// UI components
	viewport   viewport.Model
	input      textinput.Model
	spinner    components.Spinner
	header     *components.Header
	statusBar  *components.StatusBar
	welcome    components.Welcome
	transcript *components.MessageList

	sessionPicker *components.Picker
	modelPicker   *components.Picker
	overlay       Overlay

	// Attachments staged for the next message
	staged []*media.File

	keyMap    KeyMap
	statusSeq int

	// Version shown on the welcome screen
	Version string
}

// New creates the chat view over an orchestrator.
func New(orch *orchestrator.Orchestrator, cfg *config.Config) Model {
	theme := styles.NewTheme()

	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.Placeholder = "Type a message…  (/attach <path> to add a file)"
	ti.CharLimit = 8192
	ti.Focus()

	m := Model{
		orch:          orch,
		cfg:           cfg,
		theme:         theme,
		buffer:        NewStreamingBuffer(),
		input:         ti,
		spinner:       components.NewSpinner(),
		header:        components.NewHeader(theme),
		statusBar:     components.NewStatusBar(theme),
		welcome:       components.NewWelcome(theme),
		transcript:    components.NewMessageList(theme),
		sessionPicker: components.NewPicker(theme, "Sessions"),
		modelPicker:   components.NewPicker(theme, "Models"),
		keyMap:        DefaultKeyMap(),
	}
	m.transcript.SetFailureText(orchestrator.FailureReply)

	// Adopt the newest session, or start empty and let the first send
	// create one.
	if sessions := orch.Store().Sessions(); len(sessions) > 0 {
		m.activeID = sessions[0].ID
		orch.Store().SetActive(m.activeID)
	}
	m.syncChrome()

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.consumeHandoff())
}

// consumeHandoff drains the launcher's opening message, if one was staged.
func (m Model) consumeHandoff() tea.Cmd {
	return func() tea.Msg {
		if text, ok := m.orch.Handoff().Consume(); ok {
			return handoffMsg{text: text}
		}
		return nil
	}
}

// ActiveSession returns the active session, or nil when none exists yet.
func (m *Model) ActiveSession() *model.Session {
	if m.activeID == "" {
		return nil
	}
	return m.orch.Store().Get(m.activeID)
}

// activeModelID returns the model the next turn will use.
func (m *Model) activeModelID() string {
	if sess := m.ActiveSession(); sess != nil {
		return sess.Model
	}
	return m.orch.DefaultModel()
}

// syncChrome refreshes the header and welcome panel from session state.
func (m *Model) syncChrome() {
	modelID := m.activeModelID()
	if info, ok := model.GetModelInfo(modelID); ok {
		m.header.SetModel(info.Name)
		m.welcome.SetModelName(info.Name)
	} else {
		m.header.SetModel(modelID)
		m.welcome.SetModelName(modelID)
	}

	if sess := m.ActiveSession(); sess != nil {
		m.header.SetTitle(sess.GetTitle())
	} else {
		m.header.SetTitle("")
	}
	m.header.SetStreaming(m.activeID != "" && m.orch.Accumulating(m.activeID))
	m.welcome.SetVersion(m.Version)
}

// setStatus shows a transient status bar message that clears itself.
func (m *Model) setStatus(msg string, isError bool) tea.Cmd {
	m.statusBar.SetStatus(msg, isError)
	m.statusSeq++
	seq := m.statusSeq
	return clearStatusCmd(seq)
}

// refreshPickers rebuilds the overlay lists from current state.
func (m *Model) refreshPickers() {
	metas := m.orch.Store().List()
	items := make([]components.PickerItem, 0, len(metas))
	for _, meta := range metas {
		items = append(items, components.PickerItem{
			ID:    meta.ID,
			Label: meta.Title,
			Annotation: fmt.Sprintf("%d msgs · %s", meta.MessageCount,
				meta.CreatedAt.Format("Jan 2 15:04")),
		})
	}
	m.sessionPicker.SetItems(items)
	m.sessionPicker.SelectID(m.activeID)

	modelItems := make([]components.PickerItem, 0, len(model.Models))
	for _, info := range model.Models {
		modelItems = append(modelItems, components.PickerItem{
			ID:         info.ID,
			Label:      info.TierIcon() + " " + info.Name,
			Annotation: info.Description,
		})
	}
	m.modelPicker.SetItems(modelItems)
	m.modelPicker.SelectID(m.activeModelID())
}
