// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/idlewatch/internal/clock"
)

// =============================================================================
// WARNING COUNTDOWN
// =============================================================================

// Countdown is the user-facing second-by-second clock shown while a warning
// is displayed. It runs on its own timers, independent of the Scheduler's
// hard deadline, so the session still ends if that deadline is delayed.
type Countdown struct {
	mu sync.Mutex

	clock    clock.Clock
	onTick   func(remaining int)
	onExpire func()

	remaining int
	running   bool
	gen       uint64
	timer     clock.Timer
}

// NewCountdown creates an idle Countdown. onTick receives every displayed
// value, including the starting value and the final 0. onExpire is called
// once per Start when the countdown reaches zero. Either may be nil.
func NewCountdown(clk clock.Clock, onTick func(remaining int), onExpire func()) *Countdown {
	if clk == nil {
		clk = clock.Real()
	}
	return &Countdown{
		clock:    clk,
		onTick:   onTick,
		onExpire: onExpire,
	}
}

// Start (re)starts the countdown at secondsLeft and reports that value.
func (c *Countdown) Start(secondsLeft int) {
	if secondsLeft < 0 {
		secondsLeft = 0
	}

	c.mu.Lock()
	c.stopLocked()
	c.gen++
	c.remaining = secondsLeft
	c.running = true
	c.scheduleLocked(c.gen)
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(secondsLeft)
	}
}

// Dismiss stops the countdown without expiring. It reports whether a
// running countdown was stopped.
func (c *Countdown) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasRunning := c.running
	c.stopLocked()
	c.gen++
	c.running = false
	return wasRunning
}

// Remaining returns the value currently displayed.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) scheduleLocked(gen uint64) {
	c.timer = c.clock.AfterFunc(time.Second, func() { c.tick(gen) })
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// tick decrements once. A tick that observes 1 or less expires: ties go to
// ending the session, never to granting another second.
func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}
	expired := false
	if c.remaining <= 1 {
		c.remaining = 0
		c.running = false
		c.timer = nil
		expired = true
	} else {
		c.remaining--
		c.scheduleLocked(gen)
	}
	remaining := c.remaining
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if expired && c.onExpire != nil {
		c.onExpire()
	}
}

// FormatRemaining renders whole seconds as M:SS using floor division.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
