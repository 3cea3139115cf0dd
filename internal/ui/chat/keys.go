// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// keys.go - Key bindings for the chat view.
package chat

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the chat view's keyboard shortcuts.
type KeyMap struct {
	Send       key.Binding
	NewSession key.Binding
	Sessions   key.Binding
	Models     key.Binding
	Export     key.Binding
	Delete     key.Binding
	Help       key.Binding
	Quit       key.Binding

	ScrollUp   key.Binding
	ScrollDown key.Binding

	PickerUp     key.Binding
	PickerDown   key.Binding
	PickerSelect key.Binding
	Close        key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Sessions: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "sessions"),
		),
		Models: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "models"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete chat"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		PickerUp: key.NewBinding(
			key.WithKeys("up", "k"),
		),
		PickerDown: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		PickerSelect: key.NewBinding(
			key.WithKeys("enter"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
		),
	}
}
