// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import "time"

// Outcome of a foreground resync.
type Outcome int

const (
	// ReconcileIgnored means the scheduler was already terminal.
	ReconcileIgnored Outcome = iota
	// ReconcileReset means the return to foreground counted as activity.
	ReconcileReset
	// ReconcileWarning means the warning deadline had passed and was delivered now.
	ReconcileWarning
	// ReconcileTimeout means the hard deadline had passed and was delivered now.
	ReconcileTimeout
	// ReconcilePending means the overdue deadline was already delivered.
	ReconcilePending
)

// String returns a string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case ReconcileIgnored:
		return "ignored"
	case ReconcileReset:
		return "reset"
	case ReconcileWarning:
		return "warning"
	case ReconcileTimeout:
		return "timeout"
	case ReconcilePending:
		return "pending"
	default:
		return "unknown"
	}
}

// Reconcile re-syncs the scheduler after the host regains the foreground.
//
// Host timers cannot be trusted across a background period: a suspended
// machine does not advance the monotonic clock, so runtime timers come back
// late. Reconcile therefore measures idle time on the wall clock. If the
// warning point has not been reached the return counts as activity and both
// deadlines are re-based. Otherwise nothing is re-based and whichever
// deadline is overdue is delivered immediately through the normal
// epoch-guarded path, so a late timer firing afterwards is discarded.
func (s *Scheduler) Reconcile() Outcome {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return ReconcileIgnored
	}
	now := s.clock.Now()
	elapsed := wallElapsed(s.lastActivity, now)
	epoch := s.epoch
	state := s.state

	if elapsed < s.policy.WarningAfter() {
		s.resetLocked(now)
		s.mu.Unlock()
		s.logger.Debug("foreground resync: treated as activity", "elapsed", elapsed)
		return ReconcileReset
	}
	overdue := elapsed >= s.policy.TotalIdleTimeout
	s.mu.Unlock()

	s.logger.Debug("foreground resync: deadline overdue", "elapsed", elapsed, "hard", overdue)
	switch {
	case overdue:
		s.fireTimeout(epoch)
		return ReconcileTimeout
	case state == StateActive:
		s.fireWarning(epoch)
		return ReconcileWarning
	default:
		return ReconcilePending
	}
}

// wallElapsed returns now-since with monotonic readings stripped.
func wallElapsed(since, now time.Time) time.Duration {
	return now.Round(0).Sub(since.Round(0))
}
