// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for idlewatch.
//
// Supports both TOML and YAML configuration formats, with defaults,
// environment variable overrides, and validation. Invalid timing values are
// reported, never silently clamped.
//
// # Key Types
//
//   - Config: main configuration structure
//   - SessionConfig: idle timeout, warning lead and activity signals
//   - AuditConfig: session event log location
//   - LogConfig: diagnostic logging
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (IDLEWATCH_*)
//   - ~/.idlewatch/config.toml
//   - ~/.idlewatch/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	policy, err := cfg.Policy()
//
// Watch reloads a file when it changes. A running session keeps the policy
// it started with; the new one applies to the next session.
package config
