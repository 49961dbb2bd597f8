// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/idlewatch/internal/idle"
	"github.com/jeranaias/idlewatch/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// TimeoutOverlay is the modal shown while the idle countdown runs, and the
// signed-out notice once the session has ended.
type TimeoutOverlay struct {
	theme *styles.Theme

	// State
	visible   bool
	expired   bool
	remaining int
	total     int
	reason    idle.Reason

	// Dimensions
	width  int
	height int
}

// NewTimeoutOverlay creates a hidden overlay.
func NewTimeoutOverlay(theme *styles.Theme) TimeoutOverlay {
	return TimeoutOverlay{theme: theme}
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *TimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// ShowWarning displays the countdown starting at secondsLeft.
func (o *TimeoutOverlay) ShowWarning(secondsLeft int) {
	o.visible = true
	o.expired = false
	o.remaining = secondsLeft
	o.total = secondsLeft
}

// Tick updates the displayed countdown value.
func (o *TimeoutOverlay) Tick(remaining int) {
	if o.expired {
		return
	}
	o.remaining = remaining
}

// ShowExpired switches to the signed-out notice.
func (o *TimeoutOverlay) ShowExpired(reason idle.Reason) {
	o.visible = true
	o.expired = true
	o.remaining = 0
	o.reason = reason
}

// Hide hides the overlay.
func (o *TimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// IsVisible returns whether the overlay is currently visible.
func (o TimeoutOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the overlay shows the signed-out notice.
func (o TimeoutOverlay) IsExpired() bool {
	return o.expired
}

// Remaining returns the countdown value on screen.
func (o TimeoutOverlay) Remaining() int {
	return o.remaining
}

// =============================================================================
// RENDER METHODS
// =============================================================================

// View renders the overlay, or "" when hidden.
func (o TimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}
	if o.expired {
		return o.place(o.viewExpired())
	}
	return o.place(o.viewWarning())
}

func (o TimeoutOverlay) boxWidth() int {
	width := o.width
	if width == 0 {
		width = 60
	}
	w := width - 8
	if w < 40 {
		w = 40
	}
	if w > 60 {
		w = 60
	}
	return w
}

func (o TimeoutOverlay) viewWarning() string {
	t := o.theme
	inner := o.boxWidth() - 8

	fraction := 0.0
	if o.total > 0 {
		fraction = float64(o.remaining) / float64(o.total)
	}

	parts := []string{
		t.WarningTitle.Render(styles.StatusIndicators.Warning + " Session Timeout Warning"),
		"",
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(inner).Align(lipgloss.Center).
			Render("You will be signed out in " + t.Countdown.Render(idle.FormatRemaining(o.remaining))),
		"",
		t.Countdown.Render(styles.RenderProgressBar(inner, fraction)),
		"",
		t.Hint.Render("Press Enter to stay signed in, L to sign out now"),
	}
	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	return t.WarningBox.Width(o.boxWidth()).Render(content)
}

func (o TimeoutOverlay) viewExpired() string {
	t := o.theme
	inner := o.boxWidth() - 8

	message := "Your session ended after a period of inactivity."
	if o.reason == idle.ReasonForceLogout {
		message = "You signed out."
	}

	parts := []string{
		t.ExpiredTitle.Render(styles.StatusIndicators.Error + " Signed Out"),
		"",
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(inner).Align(lipgloss.Center).
			Render(message),
		"",
		t.Hint.Render("Press Enter to sign in again, Q to quit"),
	}
	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	return t.ExpiredBox.Width(o.boxWidth()).Render(content)
}

func (o TimeoutOverlay) place(box string) string {
	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}
	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}
