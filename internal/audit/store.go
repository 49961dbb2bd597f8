// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/idlewatch/internal/clock"
	"github.com/jeranaias/idlewatch/internal/util"
)

// ErrClosed is returned by a Store after Close.
var ErrClosed = errors.New("audit store is closed")

// Event is one row of the session log.
type Event struct {
	ID        int64             `json:"id"`
	At        time.Time         `json:"at"`
	SessionID string            `json:"session_id"`
	Epoch     uint64            `json:"epoch"`
	Type      string            `json:"event_type"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Store is an append-only SQLite event log.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp events recorded by hooks.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets where recording failures are reported.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens (creating if needed) the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("audit: database path is required")
	}
	if err := util.EnsurePrivateDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record appends e. A zero At is stamped with the store's clock.
func (s *Store) Record(ctx context.Context, e Event) (int64, error) {
	if e.Type == "" {
		return 0, errors.New("audit: event type is required")
	}
	if e.At.IsZero() {
		e.At = s.clock.Now()
	}
	detail := []byte("{}")
	if len(e.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(e.Detail); err != nil {
			return 0, fmt.Errorf("encoding event detail: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, ErrClosed
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO session_events (at, session_id, epoch, event_type, detail_json) VALUES (?, ?, ?, ?, ?)`,
		e.At.UnixMilli(), e.SessionID, int64(e.Epoch), e.Type, string(detail))
	if err != nil {
		return 0, fmt.Errorf("recording %s: %w", e.Type, err)
	}
	return res.LastInsertId()
}

// Filter narrows a query. Zero values match everything.
type Filter struct {
	SessionID string
	Type      string
	Limit     int
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	return s.Query(ctx, Filter{Limit: limit})
}

// Query returns the events matching f, newest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Event, error) {
	q := `SELECT id, at, session_id, epoch, event_type, detail_json FROM session_events WHERE 1=1`
	var args []any
	if f.SessionID != "" {
		q += ` AND session_id = ?`
		args = append(args, f.SessionID)
	}
	if f.Type != "" {
		q += ` AND event_type = ?`
		args = append(args, f.Type)
	}
	q += ` ORDER BY id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e      Event
			at     int64
			epoch  int64
			detail string
		)
		if err := rows.Scan(&e.ID, &at, &e.SessionID, &epoch, &e.Type, &detail); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.At = time.UnixMilli(at).UTC()
		e.Epoch = uint64(epoch)
		if detail != "" && detail != "{}" {
			if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
				return nil, fmt.Errorf("decoding event %d detail: %w", e.ID, err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// record is the best-effort path used by hooks: failures are logged, never returned.
func (s *Store) record(e Event) {
	if _, err := s.Record(context.Background(), e); err != nil {
		s.logger.Warn("audit record failed", "event", e.Type, "session", e.SessionID, "error", err)
	}
}
