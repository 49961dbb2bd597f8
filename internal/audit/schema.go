// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit persists session lifecycle events to a local SQLite file.
package audit

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema creates the event table. Timestamps are Unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS session_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    at INTEGER NOT NULL,
    session_id TEXT NOT NULL,
    epoch INTEGER NOT NULL,
    event_type TEXT NOT NULL,  -- SESSION_STARTED, SESSION_WARNING, ...
    detail_json TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
CREATE INDEX IF NOT EXISTS idx_session_events_at ON session_events(at);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`

// Event types, named like the rest of the session log.
const (
	EventStarted  = "SESSION_STARTED"
	EventWarning  = "SESSION_WARNING"
	EventExtended = "SESSION_EXTENDED"
	EventExpired  = "SESSION_EXPIRED"
	EventClosed   = "SESSION_CLOSED"
)
