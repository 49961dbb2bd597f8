// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/idlewatch/internal/idle"
	"github.com/jeranaias/idlewatch/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line of the host: session state, idle time and
// the countdown while a warning is up.
type StatusBar struct {
	theme *styles.Theme

	state     idle.State
	idle      time.Duration
	remaining int
	sessionID string
	visible   bool

	width int
}

// NewStatusBar creates a status bar for an active, visible session.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme, visible: true}
}

// SetWidth sets the rendered width.
func (s *StatusBar) SetWidth(width int) { s.width = width }

// SetSession sets the identifier shown in the wide layout.
func (s *StatusBar) SetSession(id string) { s.sessionID = id }

// SetState updates the state, idle time and countdown value.
func (s *StatusBar) SetState(state idle.State, idleFor time.Duration, remaining int) {
	s.state = state
	s.idle = idleFor
	s.remaining = remaining
}

// SetVisible records whether the host window has focus.
func (s *StatusBar) SetVisible(visible bool) { s.visible = visible }

// =============================================================================
// RENDER METHODS
// =============================================================================

// View renders the status bar at the configured width.
func (s StatusBar) View() string {
	width := s.width
	if width <= 0 {
		width = 80
	}
	inner := width - 2

	badge, badgeStyle := s.stateBadge()
	var right []string
	switch {
	case width < 60:
		right = append(right, formatIdle(s.idle))
	case width < 100:
		right = append(right, "idle "+formatIdle(s.idle))
		if !s.visible {
			right = append(right, "hidden")
		}
	default:
		right = append(right, "idle "+formatIdle(s.idle))
		if !s.visible {
			right = append(right, "hidden")
		}
		if s.sessionID != "" {
			right = append(right, "session "+shortID(s.sessionID))
		}
	}
	info := strings.Join(right, " | ")

	gap := inner - runewidth.StringWidth(badge) - runewidth.StringWidth(info)
	var line string
	if gap < 1 {
		line = badgeStyle.Render(truncate(badge+" "+info, inner))
	} else {
		line = badgeStyle.Render(badge) + strings.Repeat(" ", gap) + s.theme.StatusMuted.Render(info)
	}
	return s.theme.StatusBar.Width(width).Render(line)
}

// stateBadge returns the plain badge text and the style to render it with.
func (s StatusBar) stateBadge() (string, lipgloss.Style) {
	t := s.theme
	switch s.state {
	case idle.StateWarning:
		return styles.StatusIndicators.Warning + " WARNING " + idle.FormatRemaining(s.remaining), t.StatusWarning
	case idle.StateExpired:
		return styles.StatusIndicators.Error + " SIGNED OUT", t.StatusExpired
	case idle.StateStopped:
		return "STOPPED", t.StatusMuted
	default:
		return styles.StatusIndicators.Success + " ACTIVE", t.StatusActive
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// formatIdle renders d as M:SS, or H:MM:SS past an hour.
func formatIdle(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	if secs >= 3600 {
		return toStr(secs/3600) + ":" + pad2(secs%3600/60) + ":" + pad2(secs%60)
	}
	return idle.FormatRemaining(secs)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + toStr(n)
	}
	return toStr(n)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to max display columns, ending in "...".
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 3 {
		return runewidth.Truncate(s, max, "")
	}
	return runewidth.Truncate(s, max, "...")
}
