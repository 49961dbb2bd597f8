// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/clock"
)

// suspendClock models a host that was asleep: wall time jumps by skew while
// the timers it owns stay where they were.
type suspendClock struct {
	*clock.Fake
	mu   sync.Mutex
	skew time.Duration
}

func (c *suspendClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Fake.Now().Add(c.skew)
}

func (c *suspendClock) sleep(d time.Duration) {
	c.mu.Lock()
	c.skew += d
	c.mu.Unlock()
}

func newSuspendedScheduler(t *testing.T, p Policy) (*Scheduler, *suspendClock, *activity.Bus, *schedulerRecorder) {
	t.Helper()
	clk := &suspendClock{Fake: clock.NewFake(t0)}
	bus := activity.NewBus()
	rec := &schedulerRecorder{}
	s, err := NewScheduler(p,
		func(n int) { rec.warnings = append(rec.warnings, n) },
		func() { rec.timeouts++ },
		WithClock(clk), WithSource(bus), WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	t.Cleanup(s.Teardown)
	return s, clk, bus, rec
}

func foreground(bus *activity.Bus) {
	bus.SetVisible(false)
	bus.SetVisible(true)
}

func TestReconcile_ShortAbsenceCountsAsActivity(t *testing.T) {
	s, clk, bus, rec := newSuspendedScheduler(t, DefaultPolicy())
	epoch := s.Epoch()

	clk.sleep(10 * time.Minute)
	foreground(bus)

	assert.Equal(t, epoch+1, s.Epoch())
	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, time.Duration(0), s.TimeSinceLastActivity())
	assert.Empty(t, rec.warnings)
	assert.Equal(t, 0, rec.timeouts)
}

func TestReconcile_OverdueWarningDeliveredNow(t *testing.T) {
	s, clk, bus, rec := newSuspendedScheduler(t, DefaultPolicy())

	clk.sleep(29*time.Minute + 30*time.Second)
	foreground(bus)

	require.Len(t, rec.warnings, 1)
	assert.Equal(t, 30, rec.warnings[0])
	assert.Equal(t, StateWarning, s.State())

	// The late runtime timer for the same deadline must not warn again.
	clk.Advance(29 * time.Minute)
	assert.Len(t, rec.warnings, 1)

	clk.Advance(time.Minute)
	assert.Equal(t, 1, rec.timeouts)
}

func TestReconcile_OverdueTimeoutDeliveredNow(t *testing.T) {
	s, clk, bus, rec := newSuspendedScheduler(t, DefaultPolicy())

	clk.sleep(45 * time.Minute)
	foreground(bus)

	assert.Equal(t, 1, rec.timeouts)
	assert.Empty(t, rec.warnings)
	assert.Equal(t, StateExpired, s.State())

	clk.Advance(time.Hour)
	assert.Equal(t, 1, rec.timeouts)
	assert.Empty(t, rec.warnings)
}

func TestReconcile_Outcomes(t *testing.T) {
	p := DefaultPolicy()

	t.Run("pending while warning is shown", func(t *testing.T) {
		s, clk, _, rec := newSuspendedScheduler(t, p)
		clk.Advance(p.WarningAfter())
		require.Len(t, rec.warnings, 1)

		assert.Equal(t, ReconcilePending, s.Reconcile())
		assert.Len(t, rec.warnings, 1)
	})

	t.Run("ignored once expired", func(t *testing.T) {
		s, clk, _, _ := newSuspendedScheduler(t, p)
		clk.Advance(p.TotalIdleTimeout)

		assert.Equal(t, ReconcileIgnored, s.Reconcile())
	})

	t.Run("ignored once torn down", func(t *testing.T) {
		s, _, _, _ := newSuspendedScheduler(t, p)
		s.Teardown()

		assert.Equal(t, ReconcileIgnored, s.Reconcile())
	})

	t.Run("reset", func(t *testing.T) {
		s, clk, _, _ := newSuspendedScheduler(t, p)
		clk.Advance(time.Minute)

		assert.Equal(t, ReconcileReset, s.Reconcile())
	})
}

func TestReconcile_WithoutVisibilitySupport(t *testing.T) {
	p := DefaultPolicy()
	s, clk, rec := newTestScheduler(t, p, activity.Nop{})

	clk.Advance(p.WarningAfter())
	assert.Len(t, rec.warnings, 1)
	clk.Advance(p.WarningLeadTime)
	assert.Equal(t, 1, rec.timeouts)
	assert.Equal(t, StateExpired, s.State())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "reset", ReconcileReset.String())
	assert.Equal(t, "warning", ReconcileWarning.String())
	assert.Equal(t, "timeout", ReconcileTimeout.String())
	assert.Equal(t, "pending", ReconcilePending.String())
	assert.Equal(t, "ignored", ReconcileIgnored.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}

func TestWallElapsed_IgnoresMonotonicReading(t *testing.T) {
	start := time.Now()
	later := start.Add(5 * time.Second)

	assert.Equal(t, 5*time.Second, wallElapsed(start, later))
	assert.Equal(t, 5*time.Second, wallElapsed(start.Round(0), later))
}
