// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jeranaias/idlewatch/internal/idle"
)

// Terminator wraps next so every termination is recorded as SESSION_EXPIRED
// before next runs. A recording failure is logged and never blocks next.
func (s *Store) Terminator(next idle.Terminator) idle.Terminator {
	return idle.TerminatorFunc(func(ctx context.Context, t idle.Termination) error {
		if _, err := s.Record(ctx, Event{
			At:        t.At,
			SessionID: t.SessionID,
			Epoch:     t.Epoch,
			Type:      EventExpired,
			Detail: map[string]string{
				"reason": string(t.Reason),
				"idle":   t.Idle.String(),
			},
		}); err != nil {
			s.logger.Warn("audit record failed", "event", EventExpired, "session", t.SessionID, "error", err)
		}
		if next == nil {
			return nil
		}
		return next.Terminate(ctx, t)
	})
}

// Session is the part of a running supervisor the recorder reads.
type Session interface {
	ID() string
	Snapshot() idle.Snapshot
}

// Recorder writes the presentation-level events of one supervisor. The
// hooks must exist before the supervisor does, so the session is bound
// after Start returns.
type Recorder struct {
	store *Store

	mu      sync.Mutex
	session Session
}

// Recorder returns an unbound Recorder.
func (s *Store) Recorder() *Recorder {
	return &Recorder{store: s}
}

// Bind attaches the running session and records SESSION_STARTED.
func (r *Recorder) Bind(sess Session) {
	r.mu.Lock()
	r.session = sess
	r.mu.Unlock()

	snap := sess.Snapshot()
	r.store.record(Event{
		At:        snap.LastActivity,
		SessionID: sess.ID(),
		Epoch:     snap.Epoch,
		Type:      EventStarted,
		Detail: map[string]string{
			"warning_at": snap.WarningAt.UTC().Format(time.RFC3339),
			"expires_at": snap.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

// Closed records SESSION_CLOSED for the bound session.
func (r *Recorder) Closed() {
	r.store.record(r.event(EventClosed, nil))
}

// Hooks wraps next so warnings and extensions are recorded. OnTick is
// passed through unrecorded.
func (r *Recorder) Hooks(next idle.Hooks) idle.Hooks {
	return idle.Hooks{
		OnWarning: func(secondsLeft int) {
			r.store.record(r.event(EventWarning, map[string]string{
				"seconds_left": strconv.Itoa(secondsLeft),
			}))
			if next.OnWarning != nil {
				next.OnWarning(secondsLeft)
			}
		},
		OnTick: next.OnTick,
		OnDismiss: func() {
			r.store.record(r.event(EventExtended, nil))
			if next.OnDismiss != nil {
				next.OnDismiss()
			}
		},
	}
}

func (r *Recorder) event(typ string, detail map[string]string) Event {
	e := Event{Type: typ, Detail: detail}

	r.mu.Lock()
	sess := r.session
	r.mu.Unlock()
	if sess != nil {
		e.SessionID = sess.ID()
		e.Epoch = sess.Snapshot().Epoch
	}
	return e
}
