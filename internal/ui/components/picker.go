// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// picker.go - Generic list picker overlay for sessions and models.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avesta-ai/avesta/internal/ui/styles"
	"github.com/avesta-ai/avesta/internal/util"
)

// PickerItem is one selectable row.
type PickerItem struct {
	ID         string
	Label      string
	Annotation string
}

// Picker is a centered overlay list with cursor navigation. It is used for
// the session switcher and the model selector.
type Picker struct {
	theme  *styles.Theme
	title  string
	items  []PickerItem
	cursor int
	height int
}

// NewPicker creates a picker overlay.
func NewPicker(theme *styles.Theme, title string) *Picker {
	return &Picker{theme: theme, title: title, height: 10}
}

// SetItems replaces the list contents, clamping the cursor.
func (p *Picker) SetItems(items []PickerItem) {
	p.items = items
	if p.cursor >= len(items) {
		p.cursor = len(items) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// SelectID moves the cursor to the item with the given id, if present.
func (p *Picker) SelectID(id string) {
	for i, item := range p.items {
		if item.ID == id {
			p.cursor = i
			return
		}
	}
}

// MoveUp moves the cursor up, wrapping at the top.
func (p *Picker) MoveUp() {
	if len(p.items) == 0 {
		return
	}
	p.cursor = (p.cursor - 1 + len(p.items)) % len(p.items)
}

// MoveDown moves the cursor down, wrapping at the bottom.
func (p *Picker) MoveDown() {
	if len(p.items) == 0 {
		return
	}
	p.cursor = (p.cursor + 1) % len(p.items)
}

// Selected returns the item under the cursor.
func (p *Picker) Selected() (PickerItem, bool) {
	if len(p.items) == 0 {
		return PickerItem{}, false
	}
	return p.items[p.cursor], true
}

// Len returns the number of items.
func (p *Picker) Len() int {
	return len(p.items)
}

// View renders the overlay box.
func (p *Picker) View() string {
	var rows []string
	rows = append(rows, p.theme.OverlayTitle.Render(p.title))
	rows = append(rows, "")

	if len(p.items) == 0 {
		rows = append(rows, p.theme.Muted.Render("(empty)"))
	}

	// Scroll window around the cursor
	start := 0
	if p.cursor >= p.height {
		start = p.cursor - p.height + 1
	}
	end := start + p.height
	if end > len(p.items) {
		end = len(p.items)
	}

	for i := start; i < end; i++ {
		item := p.items[i]
		line := fmt.Sprintf("%-40s", util.TruncateWidth(item.Label, 40))
		if item.Annotation != "" {
			line += "  " + p.theme.ListAnnot.Render(item.Annotation)
		}
		if i == p.cursor {
			line = p.theme.ListSelected.Render("▸ " + line)
		} else {
			line = p.theme.ListItem.Render("  " + line)
		}
		rows = append(rows, line)
	}

	if len(p.items) > p.height {
		rows = append(rows, p.theme.Muted.Render(fmt.Sprintf("%d/%d", p.cursor+1, len(p.items))))
	}

	rows = append(rows, "")
	rows = append(rows, p.theme.Muted.Render("↑/↓ move · enter select · esc close"))

	box := p.theme.OverlayBox.Render(strings.Join(rows, "\n"))
	return lipgloss.Place(p.theme.Width, p.theme.Height, lipgloss.Center, lipgloss.Center, box)
}
