// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sim replays scripted user behavior against a session supervisor
// on simulated time and records what the supervisor did.
//
// A script is a list of steps:
//
//	29m                  advance until 29 minutes have passed
//	+10s                 advance by 10 seconds
//	continue             answer the warning ("reset" is an alias)
//	activity:key-press   ambient input of the given kind
//	hide / show          the host loses / regains the foreground
//	logout               sign out now
package sim
