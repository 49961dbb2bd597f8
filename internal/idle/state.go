// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import "time"

// State is the position of a supervisor instance in its state machine.
type State int

const (
	// StateActive means the user is considered present.
	StateActive State = iota
	// StateWarning means the warning was raised and the hard deadline is pending.
	StateWarning
	// StateExpired is terminal: the session was ended by the idle policy or the user.
	StateExpired
	// StateStopped is terminal: the instance was torn down without a callback.
	StateStopped
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateWarning:
		return "WARNING"
	case StateExpired:
		return "EXPIRED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateExpired || s == StateStopped
}

// Snapshot is a read-only view of a Scheduler, for status displays and tests.
// It must not drive control flow.
type Snapshot struct {
	State        State
	Epoch        uint64
	LastActivity time.Time
	WarningAt    time.Time
	ExpiresAt    time.Time
	Idle         time.Duration
}
