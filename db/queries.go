package db

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	KindStartup        = "startup"
	KindModeChange     = "mode_change"
	KindCleanScheduled = "clean_scheduled"
	KindBreachLatched  = "breach_latched"
	KindBreachCleared  = "breach_cleared"
)

type Event struct {
	ID         int64
	SessionID  string
	Kind       string
	Detail     string
	OccurredAt string // controller clock, YYYY-MM-DDTHH:MM:SS
	RecordedAt time.Time
}

type Session struct {
	ID        string
	StartedAt time.Time
	Events    int
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var recorded string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Detail, &e.OccurredAt, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		t, err := time.Parse(time.RFC3339, recorded)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at %q: %w", recorded, err)
		}
		e.RecordedAt = t
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecentEvents returns up to limit events, newest first.
func RecentEvents(db *sql.DB, limit int) ([]Event, error) {
	rows, err := db.Query(`SELECT id, session_id, kind, detail, occurred_at, recorded_at FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return scanEvents(rows)
}

// EventsBySession returns a session's events in the order they happened.
func EventsBySession(db *sql.DB, sessionID string) ([]Event, error) {
	rows, err := db.Query(`SELECT id, session_id, kind, detail, occurred_at, recorded_at FROM events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for session %s: %w", sessionID, err)
	}
	return scanEvents(rows)
}

func CountEventsByKind(db *sql.DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// Sessions lists uptime sessions, most recent first.
func Sessions(db *sql.DB, limit int) ([]Session, error) {
	rows, err := db.Query(`SELECT session_id, MIN(recorded_at), COUNT(*) FROM events GROUP BY session_id ORDER BY MIN(id) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var started string
		if err := rows.Scan(&s.ID, &started, &s.Events); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if s.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("failed to parse session start %q: %w", started, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
