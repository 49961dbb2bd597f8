// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/idlewatch/internal/idle"
	"github.com/jeranaias/idlewatch/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand plus the active idle policy.
type Header struct {
	Title  string
	Policy idle.Policy
	Width  int
	theme  *styles.Theme
}

// NewHeader creates a header for the given policy.
func NewHeader(theme *styles.Theme, p idle.Policy) *Header {
	return &Header{
		Title:  "idlewatch",
		Policy: p,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetPolicy updates the policy summary, e.g. after a config reload.
func (h *Header) SetPolicy(p idle.Policy) {
	h.Policy = p
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}
	inner := width - 2

	brand := h.theme.HeaderBrand.Render(h.Title)
	summary := lipgloss.NewStyle().Foreground(styles.TextMuted).Render(h.summary())

	gap := inner - lipgloss.Width(brand) - lipgloss.Width(summary)
	line := brand
	if gap >= 1 {
		line = brand + strings.Repeat(" ", gap) + summary
	}
	return h.theme.Header.Width(width).Render(line)
}

func (h *Header) summary() string {
	return "timeout " + h.Policy.TotalIdleTimeout.String() +
		" | warn " + h.Policy.WarningLeadTime.String() + " before"
}
