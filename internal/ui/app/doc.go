// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app hosts an idle-supervised session in the terminal.
//
// Key presses and mouse events are published as activity; terminal focus
// reports drive visibility. Supervisor callbacks arrive on timer goroutines
// and reach the update loop through a queue, tagged with the session they
// belong to. After a sign-out, Enter starts a new session with the latest
// policy.
package app
