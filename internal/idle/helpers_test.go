// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/clock"
)

var t0 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func policy(total, lead time.Duration) Policy {
	return Policy{TotalIdleTimeout: total, WarningLeadTime: lead}
}

// schedulerRecorder counts Scheduler callbacks.
type schedulerRecorder struct {
	warnings []int
	timeouts int
}

func newTestScheduler(t *testing.T, p Policy, src activity.Source) (*Scheduler, *clock.Fake, *schedulerRecorder) {
	t.Helper()
	clk := clock.NewFake(t0)
	rec := &schedulerRecorder{}
	s, err := NewScheduler(p,
		func(n int) { rec.warnings = append(rec.warnings, n) },
		func() { rec.timeouts++ },
		WithClock(clk), WithSource(src), WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	t.Cleanup(s.Teardown)
	return s, clk, rec
}

// supervisorRecorder captures every hook and terminator call.
type supervisorRecorder struct {
	mu           sync.Mutex
	warnings     []int
	ticks        []int
	dismissals   int
	terminations []Termination
	terminateErr error
}

func (r *supervisorRecorder) hooks() Hooks {
	return Hooks{
		OnWarning: func(n int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.warnings = append(r.warnings, n)
		},
		OnTick: func(n int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ticks = append(r.ticks, n)
		},
		OnDismiss: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.dismissals++
		},
	}
}

func (r *supervisorRecorder) Terminate(_ context.Context, t Termination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminations = append(r.terminations, t)
	return r.terminateErr
}

func (r *supervisorRecorder) warningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warnings)
}

func (r *supervisorRecorder) terminationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.terminations)
}

func newTestSupervisor(t *testing.T, p Policy) (*Supervisor, *clock.Fake, *activity.Bus, *supervisorRecorder) {
	t.Helper()
	clk := clock.NewFake(t0)
	bus := activity.NewBus()
	rec := &supervisorRecorder{}
	sup, err := Start(context.Background(), Config{
		Policy:     p,
		Terminator: rec,
		Hooks:      rec.hooks(),
		Source:     bus,
		Clock:      clk,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(sup.Close)
	return sup, clk, bus, rec
}

// flood publishes kind every step for the given span.
func flood(clk *clock.Fake, bus *activity.Bus, kind activity.Kind, span, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < span; elapsed += step {
		clk.Advance(step)
		bus.Publish(kind)
	}
}
