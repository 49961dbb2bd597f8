// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/idlewatch/internal/activity"
)

const (
	// DefaultTotalIdleTimeout is the inactivity period after which a session is ended.
	DefaultTotalIdleTimeout = 30 * time.Minute

	// DefaultWarningLeadTime is how long before the hard deadline the warning is raised.
	DefaultWarningLeadTime = time.Minute

	// ignoredLogInterval spaces out the debug line for activity that arrives
	// while the warning is up.
	ignoredLogInterval = time.Second
)

// ErrInvalidPolicy is returned when a Policy violates 0 < lead < total.
var ErrInvalidPolicy = errors.New("invalid idle policy")

// Policy is the immutable timing configuration of one supervisor instance.
type Policy struct {
	// TotalIdleTimeout is the hard deadline for forced termination.
	TotalIdleTimeout time.Duration
	// WarningLeadTime is how early the warning fires before the hard deadline.
	WarningLeadTime time.Duration
	// ActivitySignals lists the interaction kinds that reset the idle clock.
	// Nil means activity.DefaultKinds().
	ActivitySignals []activity.Kind
}

// DefaultPolicy returns the 30 minute / 1 minute policy with every activity kind.
func DefaultPolicy() Policy {
	return Policy{
		TotalIdleTimeout: DefaultTotalIdleTimeout,
		WarningLeadTime:  DefaultWarningLeadTime,
		ActivitySignals:  activity.DefaultKinds(),
	}
}

// Validate checks the policy. Invalid values are rejected, never clamped.
func (p Policy) Validate() error {
	if p.WarningLeadTime <= 0 {
		return fmt.Errorf("%w: warning lead time must be positive, got %v", ErrInvalidPolicy, p.WarningLeadTime)
	}
	if p.WarningLeadTime >= p.TotalIdleTimeout {
		return fmt.Errorf("%w: warning lead time %v must be shorter than idle timeout %v",
			ErrInvalidPolicy, p.WarningLeadTime, p.TotalIdleTimeout)
	}
	for _, k := range p.ActivitySignals {
		if !k.Valid() {
			return fmt.Errorf("%w: unknown activity signal %q", ErrInvalidPolicy, k)
		}
	}
	return nil
}

// WarningAfter is the idle time at which the warning fires.
func (p Policy) WarningAfter() time.Duration {
	return p.TotalIdleTimeout - p.WarningLeadTime
}

// signals returns a private copy of the configured kinds.
func (p Policy) signals() []activity.Kind {
	if p.ActivitySignals == nil {
		return activity.DefaultKinds()
	}
	out := make([]activity.Kind, len(p.ActivitySignals))
	copy(out, p.ActivitySignals)
	return out
}

// clone returns a deep copy so callers cannot mutate a running policy.
func (p Policy) clone() Policy {
	p.ActivitySignals = p.signals()
	return p
}

// secondsUntil converts a remaining duration into whole seconds, rounding
// down so the displayed value never grants extra time.
func secondsUntil(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}
