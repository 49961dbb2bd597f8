// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/clock"
	"github.com/jeranaias/idlewatch/internal/idle"
)

// Event types in a transcript.
const (
	EventStarted    = "started"
	EventWarning    = "warning"
	EventTick       = "tick"
	EventDismissed  = "dismissed"
	EventTerminated = "terminated"
	EventActivity   = "activity"
	EventContinue   = "continue"
	EventHidden     = "hidden"
	EventVisible    = "visible"
	EventLogout     = "logout"
)

// Event is one line of a simulation transcript.
type Event struct {
	Elapsed time.Duration `json:"elapsed_ns"`
	Offset  string        `json:"offset"`
	Type    string        `json:"event"`
	Detail  string        `json:"detail,omitempty"`
}

// Result is the outcome of a simulation run.
type Result struct {
	SessionID   string            `json:"session_id"`
	Events      []Event           `json:"events"`
	Termination *idle.Termination `json:"termination,omitempty"`
	FinalState  string            `json:"final_state"`
}

// Options tunes a run.
type Options struct {
	// Ticks includes every countdown value in the transcript.
	Ticks bool
	// Start is the simulated wall time at step zero.
	Start time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// suspendable is a fake clock whose wall time can move on while its timers
// stay frozen, the way a backgrounded or sleeping host behaves.
type suspendable struct {
	*clock.Fake
	mu   sync.Mutex
	skew time.Duration
}

func (c *suspendable) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Fake.Now().Add(c.skew)
}

func (c *suspendable) sleep(d time.Duration) {
	c.mu.Lock()
	c.skew += d
	c.mu.Unlock()
}

type transcript struct {
	mu     sync.Mutex
	start  time.Time
	clock  clock.Clock
	events []Event
}

func (t *transcript) add(typ, detail string) {
	elapsed := t.clock.Now().Sub(t.start)
	t.mu.Lock()
	t.events = append(t.events, Event{
		Elapsed: elapsed,
		Offset:  elapsed.String(),
		Type:    typ,
		Detail:  detail,
	})
	t.mu.Unlock()
}

// Run replays steps against a supervisor on simulated time. Timers fire
// synchronously while time advances; between "hide" and "show" time passes
// without any timer firing.
func Run(ctx context.Context, p idle.Policy, steps []Step, opts Options) (*Result, error) {
	if opts.Start.IsZero() {
		opts.Start = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	clk := &suspendable{Fake: clock.NewFake(opts.Start)}
	bus := activity.NewBus()
	tr := &transcript{start: opts.Start, clock: clk}

	hooks := idle.Hooks{
		OnWarning: func(secondsLeft int) {
			tr.add(EventWarning, idle.FormatRemaining(secondsLeft)+" left")
		},
		OnDismiss: func() { tr.add(EventDismissed, "") },
	}
	if opts.Ticks {
		hooks.OnTick = func(remaining int) { tr.add(EventTick, idle.FormatRemaining(remaining)) }
	}
	term := idle.TerminatorFunc(func(_ context.Context, t idle.Termination) error {
		tr.add(EventTerminated, fmt.Sprintf("%s after %s idle", t.Reason, t.Idle))
		return nil
	})

	sup, err := idle.Start(ctx, idle.Config{
		Policy:     p,
		Terminator: term,
		Hooks:      hooks,
		Source:     bus,
		Clock:      clk,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	defer sup.Close()

	tr.add(EventStarted, fmt.Sprintf("timeout %s, warning %s before", p.TotalIdleTimeout, p.WarningLeadTime))

	hidden := false
	advance := func(d time.Duration) {
		if hidden {
			clk.sleep(d)
			return
		}
		clk.Advance(d)
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch st.Op {
		case OpAdvanceTo:
			elapsed := clk.Now().Sub(opts.Start)
			if st.Duration < elapsed {
				return nil, fmt.Errorf("%w %q: already at %s", ErrBadStep, st.Raw, elapsed)
			}
			advance(st.Duration - elapsed)
		case OpAdvanceBy:
			advance(st.Duration)
		case OpContinue:
			if sup.Continue() {
				tr.add(EventContinue, "timers re-armed")
			} else {
				tr.add(EventContinue, "ignored, session has ended")
			}
		case OpActivity:
			before := sup.Snapshot().Epoch
			bus.Publish(st.Kind)
			detail := string(st.Kind) + " ignored"
			if sup.Snapshot().Epoch != before {
				detail = string(st.Kind) + " re-armed timers"
			}
			tr.add(EventActivity, detail)
		case OpHide:
			hidden = true
			bus.SetVisible(false)
			tr.add(EventHidden, "timers suspended")
		case OpShow:
			hidden = false
			tr.add(EventVisible, "")
			bus.SetVisible(true)
		case OpLogout:
			tr.add(EventLogout, "")
			sup.ForceLogout()
		}
	}

	tr.mu.Lock()
	events := append([]Event(nil), tr.events...)
	tr.mu.Unlock()

	return &Result{
		SessionID:   sup.ID(),
		Events:      events,
		Termination: sup.Termination(),
		FinalState:  sup.State().String(),
	}, nil
}
