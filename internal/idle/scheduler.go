// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/clock"
)

// =============================================================================
// IDLE SCHEDULER
// =============================================================================

// Scheduler owns the idle clock of one session. It converts a Policy and a
// stream of activity into two deadlines, warning and hard timeout, and fires
// the matching callback when one is reached.
//
// Every Reset and Teardown bumps an epoch token. Each timer closure captures
// the epoch it was armed under and does nothing if the epoch has moved on,
// which discards fires that were already in flight when the timer was stopped.
type Scheduler struct {
	mu sync.Mutex

	policy    Policy
	clock     clock.Clock
	source    activity.Source
	logger    *slog.Logger
	onWarning func(secondsLeft int)
	onTimeout func()

	// Activity record
	lastActivity        time.Time
	warningAcknowledged bool

	state     State
	epoch     uint64
	warnTimer clock.Timer
	hardTimer clock.Timer

	// ignoredLog keeps a flood of ignored input from flooding the log.
	ignoredLog  rate.Sometimes
	unsubscribe []func()
}

// Option configures a Scheduler or Supervisor.
type Option func(*options)

type options struct {
	clock  clock.Clock
	source activity.Source
	logger *slog.Logger
}

// WithClock sets the timer authority. Defaults to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSource sets where activity and visibility events come from.
// Defaults to activity.Nop{}.
func WithSource(src activity.Source) Option {
	return func(o *options) { o.source = src }
}

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.Real()
	}
	if o.source == nil {
		o.source = activity.Nop{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// NewScheduler validates the policy, subscribes to the configured activity
// signals and arms both timers relative to now.
//
// Callers own the returned Scheduler and must call Teardown when done,
// typically with defer.
func NewScheduler(p Policy, onWarning func(secondsLeft int), onTimeout func(), opts ...Option) (*Scheduler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if onWarning == nil || onTimeout == nil {
		return nil, fmt.Errorf("%w: onWarning and onTimeout are required", ErrInvalidPolicy)
	}
	o := buildOptions(opts)

	s := &Scheduler{
		policy:    p.clone(),
		clock:     o.clock,
		source:    o.source,
		logger:    o.logger,
		onWarning: onWarning,
		onTimeout: onTimeout,
		ignoredLog: rate.Sometimes{First: 1, Interval: ignoredLogInterval},
	}

	s.mu.Lock()
	s.resetLocked(s.clock.Now())
	s.mu.Unlock()

	s.subscribe()

	s.logger.Debug("idle scheduler armed",
		"idle_timeout", s.policy.TotalIdleTimeout,
		"warning_lead", s.policy.WarningLeadTime)
	return s, nil
}

func (s *Scheduler) subscribe() {
	var unsubs []func()
	for _, kind := range s.policy.signals() {
		unsubs = append(unsubs, s.source.Subscribe(kind, func(k activity.Kind) { s.Touch(k) }))
	}

	if vs, ok := s.source.(activity.VisibilitySource); ok {
		unsubs = append(unsubs, vs.SubscribeVisibility(func(visible bool) {
			if visible {
				s.Reconcile()
			}
		}))
	} else {
		s.logger.Debug("activity source has no visibility support; foreground resync disabled")
	}

	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		for _, u := range unsubs {
			u()
		}
		return
	}
	s.unsubscribe = append(s.unsubscribe, unsubs...)
	s.mu.Unlock()
}

// =============================================================================
// CONTROL SURFACE
// =============================================================================

// Reset records activity now and re-arms both deadlines from now. It is the
// authoritative "user is here" signal and is never throttled. Reset returns
// false once the scheduler is expired or torn down.
func (s *Scheduler) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return false
	}
	s.resetLocked(s.clock.Now())
	return true
}

// Touch handles one ambient activity event. While active every event
// re-arms the deadlines. Once the warning has been raised ambient activity
// is ignored: only an explicit Reset (the user choosing to continue) brings
// the session back to active.
func (s *Scheduler) Touch(kind activity.Kind) bool {
	s.mu.Lock()
	if s.state == StateActive && !s.warningAcknowledged {
		s.resetLocked(s.clock.Now())
		s.mu.Unlock()
		return true
	}
	state := s.state
	s.mu.Unlock()

	s.ignoredLog.Do(func() {
		s.logger.Debug("activity ignored", "kind", kind, "state", state)
	})
	return false
}

// Teardown cancels both timers and removes every activity subscription.
// No callback fires after Teardown returns. It is safe to call repeatedly
// and from any state.
func (s *Scheduler) Teardown() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.stopTimersLocked()
	s.epoch++
	s.state = StateStopped
	unsubs := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	s.logger.Debug("idle scheduler torn down")
}

// =============================================================================
// READ-ONLY ACCESSORS
// =============================================================================

// TimeSinceLastActivity reports how long ago the idle clock was last reset.
// It is meant for diagnostics and tests.
func (s *Scheduler) TimeSinceLastActivity() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now().Sub(s.lastActivity)
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Epoch returns the current epoch token.
func (s *Scheduler) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Policy returns a copy of the policy the scheduler runs with.
func (s *Scheduler) Policy() Policy {
	return s.policy.clone()
}

// Snapshot returns the scheduler's current bookkeeping.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:        s.state,
		Epoch:        s.epoch,
		LastActivity: s.lastActivity,
		WarningAt:    s.lastActivity.Add(s.policy.WarningAfter()),
		ExpiresAt:    s.lastActivity.Add(s.policy.TotalIdleTimeout),
		Idle:         s.clock.Now().Sub(s.lastActivity),
	}
}

// =============================================================================
// TIMERS
// =============================================================================

// resetLocked must be called with s.mu held.
func (s *Scheduler) resetLocked(now time.Time) {
	s.stopTimersLocked()
	s.epoch++
	s.lastActivity = now
	s.warningAcknowledged = false
	s.state = StateActive

	epoch := s.epoch
	s.warnTimer = s.clock.AfterFunc(s.policy.WarningAfter(), func() { s.fireWarning(epoch) })
	s.hardTimer = s.clock.AfterFunc(s.policy.TotalIdleTimeout, func() { s.fireTimeout(epoch) })
}

func (s *Scheduler) stopTimersLocked() {
	if s.warnTimer != nil {
		s.warnTimer.Stop()
		s.warnTimer = nil
	}
	if s.hardTimer != nil {
		s.hardTimer.Stop()
		s.hardTimer = nil
	}
}

// fireWarning moves ACTIVE to WARNING and then calls onWarning outside the lock.
func (s *Scheduler) fireWarning(epoch uint64) {
	secondsLeft, ok := s.enterWarning(epoch)
	if !ok {
		return
	}
	s.logger.Info("idle warning raised", "epoch", epoch, "seconds_left", secondsLeft)
	s.onWarning(secondsLeft)
}

func (s *Scheduler) enterWarning(epoch uint64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.state != StateActive {
		s.logger.Debug("stale warning discarded", "epoch", epoch, "current", s.epoch)
		return 0, false
	}
	s.state = StateWarning
	s.warningAcknowledged = true
	s.warnTimer = nil

	deadline := s.lastActivity.Add(s.policy.TotalIdleTimeout)
	return secondsUntil(deadline.Sub(s.clock.Now())), true
}

// fireTimeout moves to EXPIRED and then calls onTimeout outside the lock.
func (s *Scheduler) fireTimeout(epoch uint64) {
	if !s.expire(epoch) {
		return
	}
	s.logger.Info("idle timeout reached", "epoch", epoch)
	s.onTimeout()
}

// expire moves the scheduler to EXPIRED if epoch is still current. It
// returns true only for the call that performed the transition.
func (s *Scheduler) expire(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.state.Terminal() {
		s.logger.Debug("stale expiry discarded", "epoch", epoch, "current", s.epoch, "state", s.state)
		return false
	}
	s.stopTimersLocked()
	s.state = StateExpired
	return true
}

// current reports whether epoch is the live epoch and the scheduler is
// either still running or was expired under that same epoch.
func (s *Scheduler) current(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return epoch == s.epoch && s.state != StateStopped
}
