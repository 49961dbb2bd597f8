// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/idlewatch/internal/activity"
	"github.com/jeranaias/idlewatch/internal/idle"
	"github.com/jeranaias/idlewatch/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete idlewatch configuration.
type Config struct {
	Session SessionConfig `toml:"session" yaml:"session" json:"session"`
	Audit   AuditConfig   `toml:"audit" yaml:"audit" json:"audit"`
	Log     LogConfig     `toml:"log" yaml:"log" json:"log"`
}

// SessionConfig holds the idle policy.
type SessionConfig struct {
	// IdleTimeout is the inactivity period after which the session ends.
	IdleTimeout Duration `toml:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`
	// WarningLead is how long before IdleTimeout the warning appears.
	WarningLead Duration `toml:"warning_lead" yaml:"warning_lead" json:"warning_lead"`
	// ActivitySignals lists the interaction kinds that count as activity.
	ActivitySignals []string `toml:"activity_signals" yaml:"activity_signals" json:"activity_signals"`
}

// AuditConfig controls the session event log.
type AuditConfig struct {
	Enabled *bool  `toml:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `toml:"path" yaml:"path" json:"path"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Verbose       bool   `toml:"verbose" yaml:"verbose" json:"verbose"`
	JSON          bool   `toml:"json" yaml:"json" json:"json"`
	DebugDir      string `toml:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days" json:"retention_days"`
}

// Duration is a time.Duration written as "30m" in every config format.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Default returns a new Config with default values.
func Default() *Config {
	enabled := true
	signals := activity.DefaultKinds()
	names := make([]string, len(signals))
	for i, k := range signals {
		names[i] = string(k)
	}
	return &Config{
		Session: SessionConfig{
			IdleTimeout:     Duration(idle.DefaultTotalIdleTimeout),
			WarningLead:     Duration(idle.DefaultWarningLeadTime),
			ActivitySignals: names,
		},
		Audit: AuditConfig{
			Enabled: &enabled,
			Path:    defaultAuditPath(),
		},
		Log: LogConfig{
			RetentionDays: 7,
		},
	}
}

// AuditEnabled reports whether the session event log is on.
func (c *Config) AuditEnabled() bool {
	return c.Audit.Enabled == nil || *c.Audit.Enabled
}

// Policy converts the session section into an idle.Policy. The result is
// not validated; idle.Start does that.
func (c *Config) Policy() (idle.Policy, error) {
	kinds := make([]activity.Kind, 0, len(c.Session.ActivitySignals))
	for _, s := range c.Session.ActivitySignals {
		k, err := activity.ParseKind(s)
		if err != nil {
			return idle.Policy{}, fmt.Errorf("session.activity_signals: %w", err)
		}
		kinds = append(kinds, k)
	}
	return idle.Policy{
		TotalIdleTimeout: time.Duration(c.Session.IdleTimeout),
		WarningLeadTime:  time.Duration(c.Session.WarningLead),
		ActivitySignals:  kinds,
	}, nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the idlewatch configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".idlewatch"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ActivePath returns the config file Load would read, or the TOML path
// when none exists yet.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	yamlPath, err := ConfigPathYAML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}
	return tomlPath, nil
}

func defaultAuditPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "audit.db")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.idlewatch/config.toml, falling back to config.yaml and then
// to defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ActivePath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		return finish(cfg)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the file at path (TOML, or YAML by extension) with
// defaults, environment overrides and validation applied.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := decodeFile(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	fillDefaults(cfg)
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decodeFile(cfg *Config, path string) error {
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read YAML file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode YAML file: %w", err)
		}
		return nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return nil
}

// fillDefaults fills in unset values. Zero durations count as unset;
// negative ones are kept so Validate can reject them.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = defaults.Session.IdleTimeout
	}
	if cfg.Session.WarningLead == 0 {
		cfg.Session.WarningLead = defaults.Session.WarningLead
	}
	if cfg.Session.ActivitySignals == nil {
		cfg.Session.ActivitySignals = defaults.Session.ActivitySignals
	}
	if cfg.Audit.Enabled == nil {
		cfg.Audit.Enabled = defaults.Audit.Enabled
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = defaults.Audit.Path
	}
	if cfg.Log.RetentionDays == 0 {
		cfg.Log.RetentionDays = defaults.Log.RetentionDays
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const fileHeader = "# idlewatch configuration file\n# Durations use Go notation: 90s, 15m, 1h30m\n\n"

// Save writes cfg to path, choosing the format by extension.
func Save(cfg *Config, path string) error {
	if isYAML(path) {
		return SaveYAML(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveYAML writes cfg as YAML with owner-only permissions.
func SaveYAML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is see idle.ErrInvalidPolicy through a session error.
func (e ValidateErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, v := range e {
		if strings.HasPrefix(v.Field, "session.") {
			errs = append(errs, idle.ErrInvalidPolicy)
			break
		}
	}
	return errs
}

// Validate checks every section. Out-of-range values are reported, never clamped.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "session.idle_timeout",
			Message: fmt.Sprintf("must be positive, got %s", c.Session.IdleTimeout),
		})
	}
	if c.Session.WarningLead <= 0 {
		errs = append(errs, ValidationError{
			Field:   "session.warning_lead",
			Message: fmt.Sprintf("must be positive, got %s", c.Session.WarningLead),
		})
	} else if c.Session.WarningLead >= c.Session.IdleTimeout {
		errs = append(errs, ValidationError{
			Field: "session.warning_lead",
			Message: fmt.Sprintf("must be shorter than session.idle_timeout (%s), got %s",
				c.Session.IdleTimeout, c.Session.WarningLead),
		})
	}
	for _, s := range c.Session.ActivitySignals {
		if _, err := activity.ParseKind(s); err != nil {
			errs = append(errs, ValidationError{
				Field:   "session.activity_signals",
				Message: err.Error(),
			})
		}
	}

	if c.AuditEnabled() && c.Audit.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "audit.path",
			Message: "required when audit is enabled",
		})
	}
	if c.Log.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "log.retention_days",
			Message: fmt.Sprintf("must not be negative, got %d", c.Log.RetentionDays),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - IDLEWATCH_IDLE_TIMEOUT: overrides session.idle_timeout
//   - IDLEWATCH_WARNING_LEAD: overrides session.warning_lead
//   - IDLEWATCH_ACTIVITY_SIGNALS: comma list, overrides session.activity_signals
//   - IDLEWATCH_AUDIT_PATH: overrides audit.path
//   - IDLEWATCH_AUDIT: "0" or "false" disables the audit log
//   - IDLEWATCH_VERBOSE: enables verbose logging
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("IDLEWATCH_IDLE_TIMEOUT"); v != "" {
		if err := c.Session.IdleTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("IDLEWATCH_IDLE_TIMEOUT: %w", err)
		}
	}
	if v := os.Getenv("IDLEWATCH_WARNING_LEAD"); v != "" {
		if err := c.Session.WarningLead.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("IDLEWATCH_WARNING_LEAD: %w", err)
		}
	}
	if v := os.Getenv("IDLEWATCH_ACTIVITY_SIGNALS"); v != "" {
		kinds, err := activity.ParseKinds(v)
		if err != nil {
			return fmt.Errorf("IDLEWATCH_ACTIVITY_SIGNALS: %w", err)
		}
		c.Session.ActivitySignals = make([]string, len(kinds))
		for i, k := range kinds {
			c.Session.ActivitySignals[i] = string(k)
		}
	}
	if v := os.Getenv("IDLEWATCH_AUDIT_PATH"); v != "" {
		c.Audit.Path = v
	}
	if v := os.Getenv("IDLEWATCH_AUDIT"); v != "" {
		enabled := parseBool(v)
		c.Audit.Enabled = &enabled
	}
	if v := os.Getenv("IDLEWATCH_VERBOSE"); v != "" {
		c.Log.Verbose = parseBool(v)
	}
	return nil
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// =============================================================================
// GET (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its file key, e.g. "session.idle_timeout".
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Pointer {
				if field.IsNil() {
					return nil, nil
				}
				field = field.Elem()
			}
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

// Keys lists every dot-notation key Get accepts.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tagName(section)+"."+tagName(section.Type.Field(j)))
		}
	}
	return keys
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tagName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Session.ActivitySignals != nil {
		clone.Session.ActivitySignals = append([]string(nil), c.Session.ActivitySignals...)
	}
	if c.Audit.Enabled != nil {
		enabled := *c.Audit.Enabled
		clone.Audit.Enabled = &enabled
	}
	return &clone
}

// String renders the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A load failure falls back to defaults with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from path, or from the
// default location when path is empty. On success the global is replaced
// and the caller gets its own copy; on failure the global is unchanged.
// Thread-safe.
func ReloadGlobal(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = Load()
	} else {
		cfg, err = LoadFromPath(path)
	}
	if err != nil {
		return nil, err
	}
	SetGlobal(cfg)
	return cfg.Clone(), nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
