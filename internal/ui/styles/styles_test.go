// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewThemeWithProfile(t *testing.T) {
	theme := NewThemeWithProfile(termenv.Ascii, true)

	if theme.ColorProfile != termenv.Ascii {
		t.Errorf("ColorProfile = %v, want Ascii", theme.ColorProfile)
	}
	if theme.HasTrueColor {
		t.Error("Ascii profile should not report true color")
	}
	if !theme.IsDark {
		t.Error("IsDark should follow the argument")
	}

	// Ascii rendering strips color but keeps the text.
	if got := theme.StatusWarning.Render("WARNING"); !strings.Contains(got, "WARNING") {
		t.Errorf("StatusWarning.Render() = %q", got)
	}
}

func TestThemeLayoutMode(t *testing.T) {
	theme := NewThemeWithProfile(termenv.Ascii, false)

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}

// =============================================================================
// INDICATOR TESTS
// =============================================================================

func TestRenderHelpersIncludeIndicators(t *testing.T) {
	NewThemeWithProfile(termenv.Ascii, true)

	tests := []struct {
		name   string
		render func(string) string
		prefix string
	}{
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"error", RenderError, StatusIndicators.Error},
		{"success", RenderSuccess, StatusIndicators.Success},
	}
	for _, tt := range tests {
		got := tt.render("msg")
		if !strings.HasPrefix(got, tt.prefix+" msg") {
			t.Errorf("%s: got %q, want prefix %q", tt.name, got, tt.prefix+" msg")
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		width    int
		fraction float64
		want     string
	}{
		{10, 0, "----------"},
		{10, 1, "##########"},
		{10, 0.5, "#####-----"},
		{4, 2, "####"},
		{4, -1, "----"},
		{0, 0.5, ""},
	}
	for _, tt := range tests {
		if got := RenderProgressBar(tt.width, tt.fraction); got != tt.want {
			t.Errorf("RenderProgressBar(%d, %v) = %q, want %q", tt.width, tt.fraction, got, tt.want)
		}
	}
}
