// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/clock"
)

// Hooks are presentation callbacks. All are optional.
type Hooks struct {
	// OnWarning is called when the warning is raised.
	OnWarning func(secondsLeft int)
	// OnTick is called with every countdown value while the warning is shown.
	OnTick func(remaining int)
	// OnDismiss is called when the warning is dismissed by Continue or Reset.
	OnDismiss func()
}

// Config holds everything needed to start a Supervisor.
type Config struct {
	Policy     Policy
	Terminator Terminator
	Hooks      Hooks

	// Source defaults to activity.Nop{}.
	Source activity.Source
	// Clock defaults to clock.Real().
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Guard defaults to a private guard.
	Guard *Guard
}

// Supervisor wires a Scheduler, a Countdown and a Terminator together for
// one session. The two clocks never share state; they meet only in
// terminate, which is idempotent per (instance, epoch).
type Supervisor struct {
	id         string
	clock      clock.Clock
	logger     *slog.Logger
	terminator Terminator
	hooks      Hooks
	guard      *Guard

	scheduler *Scheduler
	countdown *Countdown

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	warnEpoch   uint64
	termination *Termination
	closed      bool
}

// Start validates cfg, arms the idle timers and returns the running
// Supervisor. Callers must Close it, typically with defer.
func Start(ctx context.Context, cfg Config) (*Supervisor, error) {
	if cfg.Terminator == nil {
		return nil, errors.New("idle: a Terminator is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Guard == nil {
		cfg.Guard = NewGuard()
	}

	id := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	s := &Supervisor{
		id:         id,
		clock:      cfg.Clock,
		logger:     logger,
		terminator: cfg.Terminator,
		hooks:      cfg.Hooks,
		guard:      cfg.Guard,
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.countdown = NewCountdown(cfg.Clock, cfg.Hooks.OnTick, s.handleCountdownExpired)

	sched, err := NewScheduler(cfg.Policy, s.handleWarning, s.handleTimeout,
		WithClock(cfg.Clock),
		WithSource(cfg.Source),
		WithLogger(logger),
	)
	if err != nil {
		s.cancel()
		return nil, err
	}
	s.scheduler = sched

	logger.Info("session supervisor started",
		"idle_timeout", cfg.Policy.TotalIdleTimeout,
		"warning_lead", cfg.Policy.WarningLeadTime)
	return s, nil
}

// ID returns the instance id used in logs and in the idempotency key.
func (s *Supervisor) ID() string {
	return s.id
}

// Policy returns the policy this instance runs with.
func (s *Supervisor) Policy() Policy {
	return s.scheduler.Policy()
}

// =============================================================================
// CONTROL SURFACE
// =============================================================================

// Reset dismisses any visible warning and re-bases both deadlines on now.
// It returns false once the session has ended.
func (s *Supervisor) Reset() bool {
	ok := s.scheduler.Reset()
	dismissed := s.countdown.Dismiss()
	if dismissed {
		s.notifyDismiss()
	}
	if ok && dismissed {
		s.logger.Info("session extended")
	}
	return ok
}

// Continue is the user's answer to the warning: dismiss it and reset.
func (s *Supervisor) Continue() bool {
	return s.Reset()
}

// ForceLogout dismisses the warning and ends the session immediately.
func (s *Supervisor) ForceLogout() {
	s.countdown.Dismiss()
	s.terminate(ReasonForceLogout, s.scheduler.Epoch())
}

// Close tears the instance down. No callback of any kind runs after Close
// returns. It is safe to call more than once.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.countdown.Dismiss()
	s.scheduler.Teardown()
	s.guard.Forget(s.id)
	s.cancel()
}

// =============================================================================
// READ-ONLY ACCESSORS
// =============================================================================

// State returns the scheduler's state.
func (s *Supervisor) State() State {
	return s.scheduler.State()
}

// Snapshot returns the scheduler's bookkeeping.
func (s *Supervisor) Snapshot() Snapshot {
	return s.scheduler.Snapshot()
}

// TimeSinceLastActivity is a diagnostic accessor.
func (s *Supervisor) TimeSinceLastActivity() time.Duration {
	return s.scheduler.TimeSinceLastActivity()
}

// CountdownRemaining returns the countdown's displayed value.
func (s *Supervisor) CountdownRemaining() int {
	return s.countdown.Remaining()
}

// Termination returns how the session ended, or nil while it is live.
func (s *Supervisor) Termination() *Termination {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.termination == nil {
		return nil
	}
	t := *s.termination
	return &t
}

// =============================================================================
// CALLBACK WIRING
// =============================================================================

func (s *Supervisor) handleWarning(secondsLeft int) {
	snap := s.scheduler.Snapshot()
	if snap.State != StateWarning {
		return
	}
	s.mu.Lock()
	s.warnEpoch = snap.Epoch
	s.mu.Unlock()

	// The countdown must run even if the host hook panics.
	defer s.armCountdown(snap.Epoch, secondsLeft)
	if s.hooks.OnWarning != nil {
		s.hooks.OnWarning(secondsLeft)
	}
}

// armCountdown starts the countdown for the warning raised under epoch.
// The hook, or a Reset on another goroutine, may already have ended that
// warning. Reset re-arms the scheduler before it dismisses, so either Reset
// or the check below sees the running countdown and stops it.
func (s *Supervisor) armCountdown(epoch uint64, secondsLeft int) {
	s.countdown.Start(secondsLeft)
	if now := s.scheduler.Snapshot(); now.State == StateWarning && now.Epoch == epoch {
		return
	}
	if s.countdown.Dismiss() {
		s.notifyDismiss()
	}
}

func (s *Supervisor) notifyDismiss() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if !closed && s.hooks.OnDismiss != nil {
		s.hooks.OnDismiss()
	}
}

func (s *Supervisor) handleTimeout() {
	s.terminate(ReasonIdleTimeout, s.scheduler.Epoch())
}

func (s *Supervisor) handleCountdownExpired() {
	s.mu.Lock()
	epoch := s.warnEpoch
	s.mu.Unlock()
	s.terminate(ReasonCountdownExpired, epoch)
}

// terminate is the single terminal action shared by both clocks and by
// ForceLogout. Stale epochs are discarded and the guard absorbs the second
// of two racing expiries.
func (s *Supervisor) terminate(reason Reason, epoch uint64) {
	s.scheduler.expire(epoch)
	if !s.scheduler.current(epoch) {
		s.logger.Debug("stale termination discarded", "reason", reason, "epoch", epoch)
		return
	}
	if !s.guard.Claim(s.id, epoch) {
		s.logger.Debug("duplicate termination absorbed", "reason", reason, "epoch", epoch)
		return
	}
	s.countdown.Dismiss()

	now := s.clock.Now()
	t := Termination{
		SessionID: s.id,
		Epoch:     epoch,
		Reason:    reason,
		At:        now,
		Idle:      now.Sub(s.scheduler.Snapshot().LastActivity),
	}
	s.mu.Lock()
	s.termination = &t
	s.mu.Unlock()

	s.logger.Info("session terminated", "reason", reason, "idle", t.Idle)
	if err := s.terminator.Terminate(s.ctx, t); err != nil {
		s.logger.Warn("session terminator failed", "reason", reason, "error", err)
	}
}
