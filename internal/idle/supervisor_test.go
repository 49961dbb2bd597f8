// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/clock"
)

func TestStart_Validation(t *testing.T) {
	_, err := Start(context.Background(), Config{Policy: DefaultPolicy()})
	require.Error(t, err)

	_, err = Start(context.Background(), Config{
		Policy:     policy(time.Minute, 2*time.Minute),
		Terminator: &supervisorRecorder{},
		Clock:      clock.NewFake(t0),
		Logger:     quietLogger(),
	})
	require.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestSupervisor_WarningThenSingleTermination(t *testing.T) {
	sup, clk, _, rec := newTestSupervisor(t, DefaultPolicy())

	clk.Advance(29 * time.Minute)
	require.Equal(t, []int{60}, rec.warnings)
	assert.Equal(t, 60, sup.CountdownRemaining())
	assert.Equal(t, 0, rec.terminationCount())

	clk.Advance(time.Minute)
	require.Equal(t, 1, rec.terminationCount())

	term := rec.terminations[0]
	assert.Equal(t, ReasonIdleTimeout, term.Reason)
	assert.Equal(t, sup.ID(), term.SessionID)
	assert.Equal(t, t0.Add(30*time.Minute), term.At)
	assert.Equal(t, 30*time.Minute, term.Idle)
	assert.Equal(t, StateExpired, sup.State())

	clk.Advance(time.Hour)
	assert.Equal(t, 1, rec.terminationCount())
	assert.Equal(t, 1, rec.warningCount())
	assert.Equal(t, 0, clk.Pending())

	got := sup.Termination()
	require.NotNil(t, got)
	assert.Equal(t, term, *got)
}

func TestSupervisor_CountdownWinsRace(t *testing.T) {
	sup, clk, _, rec := newTestSupervisor(t, policy(10*time.Second, 1500*time.Millisecond))

	clk.Advance(8500 * time.Millisecond)
	require.Equal(t, []int{1}, rec.warnings)

	clk.Advance(20 * time.Second)
	require.Equal(t, 1, rec.terminationCount())
	assert.Equal(t, ReasonCountdownExpired, rec.terminations[0].Reason)
	assert.Equal(t, t0.Add(9500*time.Millisecond), rec.terminations[0].At)
	assert.Equal(t, StateExpired, sup.State())
	assert.Equal(t, 0, clk.Pending())
}

func TestSupervisor_ContinueReturnsToActive(t *testing.T) {
	sup, clk, _, rec := newTestSupervisor(t, DefaultPolicy())

	clk.Advance(29 * time.Minute)
	require.Equal(t, 1, rec.warningCount())

	clk.Advance(10 * time.Second)
	assert.Equal(t, 50, sup.CountdownRemaining())

	require.True(t, sup.Continue())
	assert.Equal(t, StateActive, sup.State())
	assert.Equal(t, 1, rec.dismissals)
	ticks := len(rec.ticks)

	clk.AdvanceTo(t0.Add(58 * time.Minute))
	assert.Equal(t, 1, rec.warningCount())
	assert.Equal(t, 0, rec.terminationCount())
	assert.Len(t, rec.ticks, ticks, "dismissed countdown must not tick")

	clk.AdvanceTo(t0.Add(58*time.Minute + 10*time.Second))
	assert.Equal(t, 2, rec.warningCount())
	assert.Equal(t, 0, rec.terminationCount())

	clk.AdvanceTo(t0.Add(59*time.Minute + 10*time.Second))
	assert.Equal(t, 1, rec.terminationCount())
}

func TestSupervisor_ContinueFromWarningHook(t *testing.T) {
	clk := clock.NewFake(t0)
	rec := &supervisorRecorder{}
	hooks := rec.hooks()
	record := hooks.OnWarning

	var sup *Supervisor
	hooks.OnWarning = func(n int) {
		record(n)
		sup.Continue()
	}
	sup, err := Start(context.Background(), Config{
		Policy:     DefaultPolicy(),
		Terminator: rec,
		Hooks:      hooks,
		Clock:      clk,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	defer sup.Close()

	clk.Advance(29 * time.Minute)
	require.Equal(t, 1, rec.warningCount())
	assert.Equal(t, StateActive, sup.State())
	assert.False(t, sup.countdown.Running(), "countdown must not outlive the warning")
	assert.Equal(t, 1, rec.dismissals)
	ticks := len(rec.ticks)

	clk.Advance(30 * time.Second)
	assert.Len(t, rec.ticks, ticks)
	assert.Equal(t, StateActive, sup.State())
	assert.Equal(t, 0, rec.terminationCount())
}

func TestSupervisor_ResetWithoutWarningSkipsDismissHook(t *testing.T) {
	sup, clk, _, rec := newTestSupervisor(t, DefaultPolicy())

	clk.Advance(time.Minute)
	require.True(t, sup.Reset())
	assert.Equal(t, 0, rec.dismissals)
	assert.Equal(t, time.Duration(0), sup.TimeSinceLastActivity())
}

func TestSupervisor_ForceLogout(t *testing.T) {
	sup, clk, _, rec := newTestSupervisor(t, DefaultPolicy())

	clk.Advance(29*time.Minute + 5*time.Second)
	sup.ForceLogout()

	require.Equal(t, 1, rec.terminationCount())
	assert.Equal(t, ReasonForceLogout, rec.terminations[0].Reason)
	assert.Equal(t, StateExpired, sup.State())
	assert.False(t, sup.Continue())

	sup.ForceLogout()
	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, rec.terminationCount())
}

func TestSupervisor_ActivityDuringWarningKeepsCountdown(t *testing.T) {
	sup, clk, bus, rec := newTestSupervisor(t, DefaultPolicy())

	clk.Advance(29 * time.Minute)
	flood(clk, bus, activity.PointerMove, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, StateWarning, sup.State())
	assert.Equal(t, 1, rec.warningCount())
	assert.Equal(t, 55, sup.CountdownRemaining())

	clk.Advance(55 * time.Second)
	assert.Equal(t, 1, rec.terminationCount())
}

func TestSupervisor_CloseSilencesEveryState(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
	}{
		{"active", time.Minute},
		{"warning", 29*time.Minute + 20*time.Second},
		{"expired", 31 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sup, clk, bus, rec := newTestSupervisor(t, DefaultPolicy())
			clk.Advance(tt.advance)
			warnings, terminations := rec.warningCount(), rec.terminationCount()

			sup.Close()
			sup.Close()

			assert.Equal(t, StateStopped, sup.State())
			assert.Equal(t, 0, clk.Pending())
			assert.Equal(t, 0, bus.Subscribers())

			clk.Advance(24 * time.Hour)
			assert.Equal(t, warnings, rec.warningCount())
			assert.Equal(t, terminations, rec.terminationCount())
		})
	}
}

func TestSupervisor_StaleCountdownExpiryDiscarded(t *testing.T) {
	sup, clk, _, rec := newTestSupervisor(t, DefaultPolicy())

	clk.Advance(29 * time.Minute)
	require.True(t, sup.Continue())

	// An expiry that was already in flight when Continue ran.
	sup.handleCountdownExpired()

	assert.Equal(t, 0, rec.terminationCount())
	assert.Equal(t, StateActive, sup.State())
}

func TestSupervisor_TerminatorErrorStaysLocal(t *testing.T) {
	sup, clk, _, rec := newTestSupervisor(t, DefaultPolicy())
	rec.terminateErr = errors.New("revoke failed")

	assert.NotPanics(t, func() { clk.Advance(30 * time.Minute) })
	assert.Equal(t, 1, rec.terminationCount())
	assert.Equal(t, StateExpired, sup.State())
	assert.NotNil(t, sup.Termination())
}

func TestSupervisor_WarningHookPanicStillArmsCountdown(t *testing.T) {
	clk := clock.NewFake(t0)
	rec := &supervisorRecorder{}
	sup, err := Start(context.Background(), Config{
		Policy:     DefaultPolicy(),
		Terminator: rec,
		Hooks:      Hooks{OnWarning: func(int) { panic("render failed") }},
		Clock:      clk,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	defer sup.Close()

	assert.Panics(t, func() { clk.Advance(29 * time.Minute) })
	assert.Equal(t, 60, sup.CountdownRemaining())

	clk.Advance(time.Minute)
	assert.Equal(t, 1, rec.terminationCount())
}

func TestSupervisor_TerminatorReceivesLiveContext(t *testing.T) {
	clk := clock.NewFake(t0)
	var ctxErr error
	sup, err := Start(context.Background(), Config{
		Policy: DefaultPolicy(),
		Terminator: TerminatorFunc(func(ctx context.Context, _ Termination) error {
			ctxErr = ctx.Err()
			return nil
		}),
		Clock:  clk,
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	defer sup.Close()

	clk.Advance(30 * time.Minute)
	assert.NoError(t, ctxErr)
}

func TestGuard_ClaimsOncePerEpoch(t *testing.T) {
	g := NewGuard()

	assert.True(t, g.Claim("a", 1))
	assert.False(t, g.Claim("a", 1))
	assert.True(t, g.Claim("a", 2))
	assert.True(t, g.Claim("b", 1))

	g.Forget("a")
	assert.True(t, g.Claim("a", 1))
	assert.False(t, g.Claim("b", 1))
}

func TestSupervisor_SharedGuard(t *testing.T) {
	clk := clock.NewFake(t0)
	guard := NewGuard()
	rec := &supervisorRecorder{}

	for i := 0; i < 2; i++ {
		sup, err := Start(context.Background(), Config{
			Policy:     DefaultPolicy(),
			Terminator: rec,
			Clock:      clk,
			Logger:     quietLogger(),
			Guard:      guard,
		})
		require.NoError(t, err)
		defer sup.Close()
	}

	clk.Advance(30 * time.Minute)
	assert.Equal(t, 2, rec.terminationCount())
}
