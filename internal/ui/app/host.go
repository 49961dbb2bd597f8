// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"log/slog"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/audit"
	"github.com/jeranaias/idlewatch/internal/clock"
	"github.com/jeranaias/idlewatch/internal/idle"
)

// Terminal input can produce every kind except touch.
var terminalKinds = []activity.Kind{
	activity.PointerDown,
	activity.PointerMove,
	activity.KeyPress,
	activity.Scroll,
	activity.Click,
}

// host owns the running supervisor. Model values are copied by the update
// loop, so everything that outlives one Update lives here.
type host struct {
	ctx    context.Context
	logger *slog.Logger
	clock  clock.Clock
	store  *audit.Store
	bus    *activity.Bus
	guard  *idle.Guard
	events *bridge

	policy idle.Policy
	gen    uint64
	sup    *idle.Supervisor
	rec    *audit.Recorder
}

// start launches a supervisor for the current policy.
func (h *host) start() error {
	h.end()
	h.gen++
	gen := h.gen

	hooks := idle.Hooks{
		OnWarning: func(secondsLeft int) { h.events.send(WarningMsg{Gen: gen, SecondsLeft: secondsLeft}) },
		OnTick:    func(remaining int) { h.events.send(TickMsg{Gen: gen, Remaining: remaining}) },
		OnDismiss: func() { h.events.send(DismissMsg{Gen: gen}) },
	}
	var term idle.Terminator = idle.TerminatorFunc(func(_ context.Context, t idle.Termination) error {
		h.events.send(TerminatedMsg{Gen: gen, Termination: t})
		return nil
	})

	var rec *audit.Recorder
	if h.store != nil {
		rec = h.store.Recorder()
		hooks = rec.Hooks(hooks)
		term = h.store.Terminator(term)
	}

	sup, err := idle.Start(h.ctx, idle.Config{
		Policy:     h.policy,
		Terminator: term,
		Hooks:      hooks,
		Source:     h.bus,
		Clock:      h.clock,
		Logger:     h.logger,
		Guard:      h.guard,
	})
	if err != nil {
		return err
	}
	if rec != nil {
		rec.Bind(sup)
	}
	h.sup = sup
	h.rec = rec
	return nil
}

// end closes the current supervisor, if any.
func (h *host) end() {
	if h.sup == nil {
		return
	}
	h.sup.Close()
	if h.rec != nil {
		h.rec.Closed()
	}
	h.sup = nil
	h.rec = nil
}

// current reports whether gen belongs to the live supervisor.
func (h *host) current(gen uint64) bool {
	return h.sup != nil && gen == h.gen
}
