// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style

	// ==========================================================================
	// SESSION BODY
	// ==========================================================================

	Body      lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	KeyHint   lipgloss.Style
	ActiveDot lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusActive  lipgloss.Style
	StatusWarning lipgloss.Style
	StatusExpired lipgloss.Style
	StatusMuted   lipgloss.Style

	// ==========================================================================
	// OVERLAYS
	// ==========================================================================

	WarningBox   lipgloss.Style
	WarningTitle lipgloss.Style
	ExpiredBox   lipgloss.Style
	ExpiredTitle lipgloss.Style
	Countdown    lipgloss.Style
	Hint         lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	return NewThemeWithProfile(termenv.ColorProfile(), termenv.HasDarkBackground())
}

// NewThemeWithProfile creates a theme for an explicit color profile. The
// profile is also applied to lipgloss so rendering matches it.
func NewThemeWithProfile(profile termenv.Profile, isDark bool) *Theme {
	lipgloss.SetColorProfile(profile)
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Body = lipgloss.NewStyle().Padding(1, 2)
	t.Label = lipgloss.NewStyle().Foreground(TextSecondary).Width(16)
	t.Value = lipgloss.NewStyle().Foreground(TextPrimary)
	t.KeyHint = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ActiveDot = lipgloss.NewStyle().Foreground(Emerald)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusActive = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusWarning = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.StatusExpired = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.StatusMuted = lipgloss.NewStyle().Foreground(TextMuted)

	t.WarningBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Padding(1, 3).
		Align(lipgloss.Center)
	t.WarningTitle = lipgloss.NewStyle().Foreground(Amber).Bold(true)

	t.ExpiredBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Padding(1, 3).
		Align(lipgloss.Center)
	t.ExpiredTitle = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.Countdown = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.Hint = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
