// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/idlewatch/internal/idle"
)

// =============================================================================
// SUPERVISOR MESSAGES
// =============================================================================

// Supervisor callbacks run on timer goroutines. They are carried into the
// update loop as messages tagged with the session generation that produced
// them, so messages from a replaced session are dropped.

type sessionMsg interface {
	generation() uint64
}

// WarningMsg reports that the idle warning was raised.
type WarningMsg struct {
	Gen         uint64
	SecondsLeft int
}

// TickMsg carries one countdown value.
type TickMsg struct {
	Gen       uint64
	Remaining int
}

// DismissMsg reports that the warning was dismissed.
type DismissMsg struct {
	Gen uint64
}

// TerminatedMsg reports that the session ended.
type TerminatedMsg struct {
	Gen         uint64
	Termination idle.Termination
}

func (m WarningMsg) generation() uint64    { return m.Gen }
func (m TickMsg) generation() uint64       { return m.Gen }
func (m DismissMsg) generation() uint64    { return m.Gen }
func (m TerminatedMsg) generation() uint64 { return m.Gen }

// =============================================================================
// HOST MESSAGES
// =============================================================================

// PolicyMsg delivers a reloaded policy. It applies to the next session.
type PolicyMsg struct {
	Policy idle.Policy
}

// ConfigErrorMsg reports a config reload that was rejected.
type ConfigErrorMsg struct {
	Err error
}

// refreshMsg redraws the idle clock once a second.
type refreshMsg time.Time

func refreshCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// =============================================================================
// BRIDGE
// =============================================================================

// bridge queues supervisor messages until the update loop reads them. One
// wait command is outstanding at any time.
type bridge struct {
	ctx context.Context
	ch  chan tea.Msg
}

func newBridge(ctx context.Context) *bridge {
	return &bridge{ctx: ctx, ch: make(chan tea.Msg, 64)}
}

// send blocks only while the queue is full and the host is still running.
func (b *bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.ctx.Done():
	}
}

func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.ctx.Done():
			return nil
		}
	}
}
