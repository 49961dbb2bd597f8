// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/idlewatch/internal/clock"
)

const expiredMark = -1

func newTestCountdown() (*Countdown, *clock.Fake, *[]int, *time.Time) {
	clk := clock.NewFake(t0)
	var events []int
	var expiredAt time.Time
	c := NewCountdown(clk,
		func(n int) { events = append(events, n) },
		func() {
			events = append(events, expiredMark)
			expiredAt = clk.Now()
		},
	)
	return c, clk, &events, &expiredAt
}

func TestCountdown_TicksDownAndExpiresOnce(t *testing.T) {
	c, clk, events, expiredAt := newTestCountdown()

	c.Start(60)
	assert.True(t, c.Running())

	clk.Advance(2 * time.Minute)

	want := make([]int, 0, 62)
	for n := 60; n >= 0; n-- {
		want = append(want, n)
	}
	want = append(want, expiredMark)

	assert.Equal(t, want, *events)
	assert.Equal(t, t0.Add(60*time.Second), *expiredAt)
	assert.Equal(t, 0, c.Remaining())
	assert.False(t, c.Running())
	assert.Equal(t, 0, clk.Pending())
}

func TestCountdown_ShortStarts(t *testing.T) {
	tests := []struct {
		start     int
		want      []int
		expiresIn time.Duration
	}{
		{start: 2, want: []int{2, 1, 0, expiredMark}, expiresIn: 2 * time.Second},
		{start: 1, want: []int{1, 0, expiredMark}, expiresIn: time.Second},
		{start: 0, want: []int{0, 0, expiredMark}, expiresIn: time.Second},
		{start: -5, want: []int{0, 0, expiredMark}, expiresIn: time.Second},
	}

	for _, tt := range tests {
		t.Run(FormatRemaining(tt.start), func(t *testing.T) {
			c, clk, events, expiredAt := newTestCountdown()
			c.Start(tt.start)
			clk.Advance(10 * time.Second)

			assert.Equal(t, tt.want, *events)
			assert.Equal(t, t0.Add(tt.expiresIn), *expiredAt)
			assert.False(t, c.Running())
		})
	}
}

func TestCountdown_Dismiss(t *testing.T) {
	c, clk, events, _ := newTestCountdown()

	c.Start(10)
	clk.Advance(3 * time.Second)
	require.Equal(t, []int{10, 9, 8, 7}, *events)

	assert.True(t, c.Dismiss())
	assert.False(t, c.Dismiss())
	assert.False(t, c.Running())

	clk.Advance(time.Minute)
	assert.Equal(t, []int{10, 9, 8, 7}, *events)
	assert.Equal(t, 0, clk.Pending())
}

func TestCountdown_RestartDiscardsPreviousRun(t *testing.T) {
	c, clk, events, expiredAt := newTestCountdown()

	c.Start(5)
	clk.Advance(2 * time.Second)
	c.Start(5)
	clk.Advance(time.Minute)

	assert.Equal(t, []int{5, 4, 3, 5, 4, 3, 2, 1, 0, expiredMark}, *events)
	assert.Equal(t, t0.Add(7*time.Second), *expiredAt)
}

func TestCountdown_StaleTickDiscarded(t *testing.T) {
	c, _, events, _ := newTestCountdown()

	c.Start(3)
	c.Dismiss()
	c.tick(1)

	assert.Equal(t, []int{3}, *events)
}

func TestCountdown_NilCallbacks(t *testing.T) {
	clk := clock.NewFake(t0)
	c := NewCountdown(clk, nil, nil)

	c.Start(2)
	assert.NotPanics(t, func() { clk.Advance(5 * time.Second) })
	assert.Equal(t, 0, c.Remaining())
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{60, "1:00"},
		{59, "0:59"},
		{125, "2:05"},
		{600, "10:00"},
		{0, "0:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRemaining(tt.seconds))
	}
}
