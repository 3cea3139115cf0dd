// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewTheme_Defaults(t *testing.T) {
	th := NewTheme()
	if th.Width != 80 || th.Height != 24 {
		t.Errorf("default size = %dx%d, want 80x24", th.Width, th.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	th := NewTheme()
	for _, tt := range tests {
		th.SetSize(tt.width, 24)
		if got := th.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: mode = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestBubbleWidth_Floor(t *testing.T) {
	th := NewTheme()
	th.SetSize(10, 24)
	if got := th.BubbleWidth(); got < 20 {
		t.Errorf("BubbleWidth = %d, want >= 20", got)
	}
}

func TestRenderStatus(t *testing.T) {
	if got := RenderStatus(true, "saved"); got == "" {
		t.Error("RenderStatus(true) empty")
	}
	if RenderStatus(true, "x") == RenderStatus(false, "x") {
		t.Error("success and failure render identically")
	}
}
