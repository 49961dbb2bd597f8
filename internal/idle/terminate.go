// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"context"
	"sync"
	"time"
)

// Reason explains why a session was ended.
type Reason string

const (
	// ReasonIdleTimeout means the scheduler's hard deadline was reached.
	ReasonIdleTimeout Reason = "idle-timeout"
	// ReasonCountdownExpired means the warning countdown reached zero.
	ReasonCountdownExpired Reason = "countdown-expired"
	// ReasonForceLogout means the user chose to log out from the warning.
	ReasonForceLogout Reason = "force-logout"
)

// Termination describes one ended session.
type Termination struct {
	SessionID string        `json:"session_id"`
	Epoch     uint64        `json:"epoch"`
	Reason    Reason        `json:"reason"`
	At        time.Time     `json:"at"`
	Idle      time.Duration `json:"idle_ns"`
}

// Terminator ends a session: it invalidates credentials and sends the user
// to an unauthenticated boundary. The supervisor calls it at most once per
// idle cycle.
type Terminator interface {
	Terminate(ctx context.Context, t Termination) error
}

// TerminatorFunc adapts a function to the Terminator interface.
type TerminatorFunc func(ctx context.Context, t Termination) error

// Terminate implements Terminator.
func (f TerminatorFunc) Terminate(ctx context.Context, t Termination) error {
	return f(ctx, t)
}

// =============================================================================
// IDEMPOTENCY GUARD
// =============================================================================

type guardKey struct {
	instance string
	epoch    uint64
}

// Guard remembers which (instance, epoch) pairs have already been
// terminated. A Guard may be shared by several supervisors.
type Guard struct {
	mu    sync.Mutex
	fired map[guardKey]struct{}
}

// NewGuard returns an empty Guard.
func NewGuard() *Guard {
	return &Guard{fired: make(map[guardKey]struct{})}
}

// Claim returns true exactly once for each (instance, epoch) pair.
func (g *Guard) Claim(instance string, epoch uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey{instance: instance, epoch: epoch}
	if _, ok := g.fired[key]; ok {
		return false
	}
	g.fired[key] = struct{}{}
	return true
}

// Forget drops every key recorded for instance, once that instance is closed.
func (g *Guard) Forget(instance string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k := range g.fired {
		if k.instance == instance {
			delete(g.fired, k)
		}
	}
}
