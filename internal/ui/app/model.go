// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/audit"
	"github.com/jeranaias/idlewatch/internal/clock"
	"github.com/jeranaias/idlewatch/internal/idle"
	"github.com/jeranaias/idlewatch/internal/ui/components"
	"github.com/jeranaias/idlewatch/internal/ui/styles"
)

// Options configures the terminal host.
type Options struct {
	Policy idle.Policy
	// Store records the session lifecycle when set.
	Store *audit.Store
	// Clock defaults to clock.Real().
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Theme defaults to styles.NewTheme().
	Theme *styles.Theme
}

// Model is the Bubble Tea model of the terminal host.
type Model struct {
	host  *host
	keys  KeyMap
	theme *styles.Theme

	header  *components.Header
	status  components.StatusBar
	overlay components.TimeoutOverlay

	termination *idle.Termination
	notice      string
	width       int
	height      int
}

// New validates the policy and starts the first session. Callers must
// Close the model.
func New(ctx context.Context, opts Options) (Model, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := opts.Policy.Validate(); err != nil {
		return Model{}, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}

	h := &host{
		ctx:    ctx,
		logger: opts.Logger,
		clock:  opts.Clock,
		store:  opts.Store,
		bus:    activity.NewBus(terminalKinds...),
		guard:  idle.NewGuard(),
		events: newBridge(ctx),
		policy: opts.Policy,
	}
	if err := h.start(); err != nil {
		return Model{}, err
	}

	m := Model{
		host:    h,
		keys:    DefaultKeyMap(),
		theme:   opts.Theme,
		header:  components.NewHeader(opts.Theme, opts.Policy),
		status:  components.NewStatusBar(opts.Theme),
		overlay: components.NewTimeoutOverlay(opts.Theme),
	}
	m.status.SetSession(h.sup.ID())
	return m, nil
}

// Close ends the running session. It is safe to call more than once.
func (m Model) Close() {
	m.host.end()
}

// Supervisor returns the live supervisor, or nil while signed out.
func (m Model) Supervisor() *idle.Supervisor {
	return m.host.sup
}

// Termination returns how the last session ended, or nil while one is live.
func (m Model) Termination() *idle.Termination {
	return m.termination
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.host.events.wait(), refreshCmd())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if sm, ok := msg.(sessionMsg); ok {
		cmds = append(cmds, m.host.events.wait())
		if !m.host.current(sm.generation()) {
			return m, tea.Batch(cmds...)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.header.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)

	case tea.FocusMsg:
		m.host.bus.SetVisible(true)
		m.status.SetVisible(true)

	case tea.BlurMsg:
		m.host.bus.SetVisible(false)
		m.status.SetVisible(false)

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		if kind, ok := mouseKind(msg); ok && m.host.sup != nil {
			m.host.bus.Publish(kind)
		}

	case WarningMsg:
		m.overlay.ShowWarning(msg.SecondsLeft)

	case TickMsg:
		m.overlay.Tick(msg.Remaining)

	case DismissMsg:
		m.overlay.Hide()

	case TerminatedMsg:
		t := msg.Termination
		m.termination = &t
		m.overlay.ShowExpired(t.Reason)
		m.host.end()

	case PolicyMsg:
		m.host.policy = msg.Policy
		m.header.SetPolicy(msg.Policy)
		m.notice = "Policy reloaded; it applies from the next session."

	case ConfigErrorMsg:
		m.host.logger.Warn("config reload rejected", "error", msg.Err)
		m.notice = "Config reload rejected: " + msg.Err.Error()

	case refreshMsg:
		cmds = append(cmds, refreshCmd())
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	sup := m.host.sup
	if sup == nil {
		if key.Matches(msg, m.keys.SignIn) {
			m = m.signIn()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Logout):
		sup.ForceLogout()
	case m.overlay.IsVisible() && key.Matches(msg, m.keys.Continue):
		sup.Continue()
	default:
		m.host.bus.Publish(activity.KeyPress)
	}
	return m, nil
}

// signIn starts a fresh session with the latest policy.
func (m Model) signIn() Model {
	if err := m.host.start(); err != nil {
		m.notice = "Could not start a new session: " + err.Error()
		return m
	}
	m.termination = nil
	m.notice = ""
	m.overlay.Hide()
	m.status.SetSession(m.host.sup.ID())
	return m
}

// mouseKind maps a terminal mouse event to an activity kind.
func mouseKind(msg tea.MouseMsg) (activity.Kind, bool) {
	ev := tea.MouseEvent(msg)
	switch {
	case ev.IsWheel():
		return activity.Scroll, true
	case ev.Action == tea.MouseActionMotion:
		return activity.PointerMove, true
	case ev.Action == tea.MouseActionPress:
		return activity.PointerDown, true
	case ev.Action == tea.MouseActionRelease:
		return activity.Click, true
	}
	return "", false
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	header := m.header.View()

	status := m.status
	if sup := m.host.sup; sup != nil {
		status.SetState(sup.State(), sup.TimeSinceLastActivity(), sup.CountdownRemaining())
	} else if m.termination != nil {
		status.SetState(idle.StateExpired, m.termination.Idle, 0)
	} else {
		status.SetState(idle.StateStopped, 0, 0)
	}
	footer := status.View()

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	var body string
	if m.overlay.IsVisible() {
		overlay := m.overlay
		overlay.SetSize(m.width, max(bodyHeight, 0))
		body = overlay.View()
	} else {
		body = m.sessionView()
		if bodyHeight > 0 {
			body = lipgloss.NewStyle().Height(bodyHeight).Render(body)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) sessionView() string {
	t := m.theme
	sup := m.host.sup
	if sup == nil {
		return t.Body.Render(t.Value.Render("No active session."))
	}

	snap := sup.Snapshot()
	now := m.host.clock.Now()
	row := func(label, value string) string {
		return t.Label.Render(label) + t.Value.Render(value)
	}

	lines := []string{
		t.ActiveDot.Render(styles.StatusIndicators.Active) + " " + t.Value.Render("Signed in"),
		"",
		row("Session", sup.ID()),
		row("Idle for", roundSeconds(sup.TimeSinceLastActivity())),
		row("Warning in", roundSeconds(snap.WarningAt.Sub(now))),
		row("Sign-out in", roundSeconds(snap.ExpiresAt.Sub(now))),
	}
	if m.notice != "" {
		lines = append(lines, "", styles.RenderWarning(m.notice))
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		hints = append(hints, t.KeyHint.Render(b.Help().Key)+" "+t.Hint.Render(b.Help().Desc))
	}
	lines = append(lines, "", strings.Join(hints, "   "))
	return t.Body.Render(strings.Join(lines, "\n"))
}

func roundSeconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}
