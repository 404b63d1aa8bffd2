package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session event types.
const (
	EventSessionStarted = "session_started"
	EventContentLoaded  = "content_loaded"
	EventTabSelected    = "tab_selected"
	EventPaused         = "paused"
	EventResumed        = "resumed"
	EventSubmitted      = "submitted"
	EventChatMessage    = "chat_message"
	EventSessionEnded   = "session_ended"
	EventAPIFailure     = "api_failure"
)

// Event is one recorded session analytics event.
type Event struct {
	ID        string
	SessionID string
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// EventRecorder appends session analytics events. The controller depends on
// this interface so tests can substitute a no-op or capturing recorder.
type EventRecorder interface {
	Record(ctx context.Context, sessionID, eventType string, payload any) error
}

// Record appends one event to the log.
func (s *Store) Record(ctx context.Context, sessionID, eventType string, payload any) error {
	body := []byte(`{}`)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		body = b
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_events (id, session_id, event_type, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, eventType, string(body),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns all events for a session in insertion order.
func (s *Store) Events(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, event_type, payload, created_at
		 FROM session_events WHERE session_id = ? ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			payload string
			created string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByType returns the number of events of the given type for a session.
func (s *Store) CountByType(ctx context.Context, sessionID, eventType string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_events WHERE session_id = ? AND event_type = ?`,
		sessionID, eventType,
	).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// NopRecorder discards all events. Used when analytics persistence is
// disabled.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, string, any) error { return nil }
