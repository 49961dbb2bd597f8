// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package idle implements the idle-timeout session supervisor.
//
// A session moves through a small state machine:
//
//	ACTIVE  --(idle reaches total-lead)-->        WARNING
//	WARNING --(Continue / Reset)-->               ACTIVE
//	WARNING --(idle reaches total, or countdown)-> EXPIRED
//	any     --(Close / Teardown)-->               STOPPED
//
// # Key Types
//
//   - Policy: immutable timing configuration, validated at start
//   - Scheduler: owns the idle clock and the warning/hard-timeout timers
//   - Countdown: the independent per-second clock shown during a warning
//   - Supervisor: wires both clocks to a Terminator, exactly once per cycle
//   - Guard: idempotency guard keyed on instance id and epoch
//
// # Usage
//
//	sup, err := idle.Start(ctx, idle.Config{
//	    Policy:     idle.DefaultPolicy(),
//	    Source:     bus,
//	    Terminator: idle.TerminatorFunc(signOut),
//	    Hooks:      idle.Hooks{OnWarning: showWarning, OnTick: updateCountdown},
//	})
//	if err != nil {
//	    return err
//	}
//	defer sup.Close()
//
// Timers are stopped and replaced on every Reset. Because a runtime timer
// may already be running its callback when it is stopped, every fire also
// checks the epoch token it captured at arm time.
package idle
