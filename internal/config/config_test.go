// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/idle"
)

// isolate points the config directory at a fresh temp home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{
		"IDLEWATCH_IDLE_TIMEOUT", "IDLEWATCH_WARNING_LEAD", "IDLEWATCH_ACTIVITY_SIGNALS",
		"IDLEWATCH_AUDIT_PATH", "IDLEWATCH_AUDIT", "IDLEWATCH_VERBOSE",
	} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestConfig_Default(t *testing.T) {
	isolate(t)
	cfg := Default()

	assert.Equal(t, Duration(30*time.Minute), cfg.Session.IdleTimeout)
	assert.Equal(t, Duration(time.Minute), cfg.Session.WarningLead)
	assert.Len(t, cfg.Session.ActivitySignals, len(activity.DefaultKinds()))
	assert.True(t, cfg.AuditEnabled())
	assert.Equal(t, "audit.db", filepath.Base(cfg.Audit.Path))
	assert.NoError(t, cfg.Validate())

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.NoError(t, p.Validate())
	assert.Equal(t, 29*time.Minute, p.WarningAfter())
}

func TestConfig_Validate(t *testing.T) {
	isolate(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"lead equals timeout", func(c *Config) { c.Session.WarningLead = c.Session.IdleTimeout }, "session.warning_lead"},
		{"lead exceeds timeout", func(c *Config) { c.Session.WarningLead = Duration(time.Hour) }, "session.warning_lead"},
		{"negative lead", func(c *Config) { c.Session.WarningLead = Duration(-time.Second) }, "session.warning_lead"},
		{"negative timeout", func(c *Config) { c.Session.IdleTimeout = Duration(-time.Minute) }, "session.idle_timeout"},
		{"unknown signal", func(c *Config) { c.Session.ActivitySignals = []string{"blink"} }, "session.activity_signals"},
		{"audit without path", func(c *Config) { c.Audit.Path = "" }, "audit.path"},
		{"negative retention", func(c *Config) { c.Log.RetentionDays = -1 }, "log.retention_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_ValidateDoesNotClamp(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Session.WarningLead = Duration(45 * time.Minute)

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, idle.ErrInvalidPolicy)
	assert.Equal(t, Duration(45*time.Minute), cfg.Session.WarningLead)
}

func TestConfig_DisabledAuditNeedsNoPath(t *testing.T) {
	isolate(t)
	cfg := Default()
	off := false
	cfg.Audit.Enabled = &off
	cfg.Audit.Path = ""

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath_TOML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[session]
idle_timeout = "15m"
warning_lead = "2m"
activity_signals = ["key-press", "click"]

[audit]
enabled = false

[log]
verbose = true
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, Duration(15*time.Minute), cfg.Session.IdleTimeout)
	assert.Equal(t, Duration(2*time.Minute), cfg.Session.WarningLead)
	assert.False(t, cfg.AuditEnabled())
	assert.True(t, cfg.Log.Verbose)
	assert.Equal(t, 7, cfg.Log.RetentionDays, "unset values take defaults")

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, []activity.Kind{activity.KeyPress, activity.Click}, p.ActivitySignals)
}

func TestLoadFromPath_YAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
session:
  idle_timeout: 10m
  warning_lead: 30s
audit:
  path: /tmp/idlewatch-test/audit.db
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, Duration(10*time.Minute), cfg.Session.IdleTimeout)
	assert.Equal(t, Duration(30*time.Second), cfg.Session.WarningLead)
	assert.Equal(t, "/tmp/idlewatch-test/audit.db", cfg.Audit.Path)
	assert.True(t, cfg.AuditEnabled())
}

func TestLoadFromPath_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad duration", "a.toml", "[session]\nidle_timeout = \"soon\"\n"},
		{"unknown key", "b.toml", "[session]\nidle_timout = \"5m\"\n"},
		{"invalid policy", "c.toml", "[session]\nidle_timeout = \"1m\"\nwarning_lead = \"1m\"\n"},
		{"bad yaml", "d.yaml", "session: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)
			_, err := LoadFromPath(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_PrefersTOMLThenYAMLThenDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Duration(30*time.Minute), cfg.Session.IdleTimeout)

	writeFile(t, filepath.Join(home, ".idlewatch", "config.yaml"), "session:\n  idle_timeout: 20m\n")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, Duration(20*time.Minute), cfg.Session.IdleTimeout)

	writeFile(t, filepath.Join(home, ".idlewatch", "config.toml"), "[session]\nidle_timeout = \"25m\"\n")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, Duration(25*time.Minute), cfg.Session.IdleTimeout)

	active, err := ActivePath()
	require.NoError(t, err)
	assert.Equal(t, "config.toml", filepath.Base(active))
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("IDLEWATCH_IDLE_TIMEOUT", "5m")
	t.Setenv("IDLEWATCH_WARNING_LEAD", "20s")
	t.Setenv("IDLEWATCH_ACTIVITY_SIGNALS", "key_press, SCROLL")
	t.Setenv("IDLEWATCH_AUDIT_PATH", "/var/tmp/a.db")
	t.Setenv("IDLEWATCH_AUDIT", "false")
	t.Setenv("IDLEWATCH_VERBOSE", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Duration(5*time.Minute), cfg.Session.IdleTimeout)
	assert.Equal(t, Duration(20*time.Second), cfg.Session.WarningLead)
	assert.Equal(t, []string{"key-press", "scroll"}, cfg.Session.ActivitySignals)
	assert.Equal(t, "/var/tmp/a.db", cfg.Audit.Path)
	assert.False(t, cfg.AuditEnabled())
	assert.True(t, cfg.Log.Verbose)
}

func TestApplyEnvOverrides_Malformed(t *testing.T) {
	isolate(t)
	t.Setenv("IDLEWATCH_WARNING_LEAD", "a while")

	_, err := Load()
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	isolate(t)
	for _, name := range []string{"config.toml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Session.IdleTimeout = Duration(45 * time.Minute)
			cfg.Session.WarningLead = Duration(90 * time.Second)

			require.NoError(t, Save(cfg, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			loaded, err := LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Session, loaded.Session)
			assert.Equal(t, cfg.AuditEnabled(), loaded.AuditEnabled())
		})
	}
}

func TestConfig_Get(t *testing.T) {
	isolate(t)
	cfg := Default()

	v, err := cfg.Get("session.idle_timeout")
	require.NoError(t, err)
	assert.Equal(t, Duration(30*time.Minute), v)

	v, err = cfg.Get("audit.enabled")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = cfg.Get("session.nope")
	assert.Error(t, err)
	_, err = cfg.Get("session.idle_timeout.more")
	assert.Error(t, err)
	_, err = cfg.Get("")
	assert.Error(t, err)

	assert.Contains(t, Keys(), "session.warning_lead")
	assert.Contains(t, Keys(), "log.debug_dir")
}

func TestConfig_Clone(t *testing.T) {
	isolate(t)
	cfg := Default()
	clone := cfg.Clone()

	clone.Session.ActivitySignals[0] = "changed"
	*clone.Audit.Enabled = false

	assert.NotEqual(t, "changed", cfg.Session.ActivitySignals[0])
	assert.True(t, cfg.AuditEnabled())
}

func TestConfig_ReloadGlobal(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "session:\n  idle_timeout: 45m\n")

	cfg, err := ReloadGlobal(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(45*time.Minute), cfg.Session.IdleTimeout)
	assert.Equal(t, Duration(45*time.Minute), Global().Session.IdleTimeout)

	writeFile(t, path, "session:\n  warning_lead: 2h\n")
	_, err = ReloadGlobal(path)
	require.Error(t, err)
	assert.Equal(t, Duration(45*time.Minute), Global().Session.IdleTimeout)
}

func TestConfig_GlobalInitialization(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	cfg := Global()
	require.NotNil(t, cfg)
	assert.Same(t, cfg, Global())
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	custom := Default()
	custom.Session.IdleTimeout = Duration(time.Hour)
	SetGlobal(custom)

	assert.Equal(t, Duration(time.Hour), Global().Session.IdleTimeout)
}

// TestConfig_ConcurrentAccess exercises Global, SetGlobal and ReloadGlobal
// together. Run with -race.
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_, _ = ReloadGlobal("")
		}()
	}
	wg.Wait()
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[session]\nidle_timeout = \"10m\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
			if err == nil {
				reloaded <- cfg
			}
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case cfg := <-reloaded:
			assert.Equal(t, Duration(12*time.Minute), cfg.Session.IdleTimeout)
			assert.Equal(t, Duration(12*time.Minute), Global().Session.IdleTimeout)
			assert.NotSame(t, Global(), cfg, "callers get a copy of the global")
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			writeFile(t, path, "[session]\nidle_timeout = \"12m\"\n")
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestWatch_ReportsInvalidReload(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "")
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	before := Default()
	SetGlobal(before)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failures := make(chan error, 16)
	go func() {
		_ = Watch(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
			if err != nil {
				failures <- err
			}
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case err := <-failures:
			assert.Error(t, err)
			assert.Same(t, before, Global(), "a rejected reload keeps the global")
			return
		case <-tick.C:
			writeFile(t, path, "[session]\nwarning_lead = \"2h\"\n")
		case <-deadline:
			t.Fatal("invalid reload was not reported")
		}
	}
}
