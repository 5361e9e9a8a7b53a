package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

func InsertEventWithTx(tx *sql.Tx, e Event) error {
	_, err := tx.Exec(`INSERT INTO events (session_id, kind, detail, occurred_at, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Kind, e.Detail, e.OccurredAt, e.RecordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert %s event: %w", e.Kind, err)
	}
	return nil
}

// InsertEvents writes all events in one transaction.
func InsertEvents(db *sql.DB, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	for _, e := range events {
		if err := InsertEventWithTx(tx, e); err != nil {
			RollbackTransaction(tx)
			return err
		}
	}
	return CommitTransaction(tx)
}

// PruneEventsBefore deletes events recorded before cutoff and returns how many
// were removed.
func PruneEventsBefore(db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM events WHERE recorded_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

// ApplyRetention prunes events older than days before now. Non-positive
// retention keeps everything.
func ApplyRetention(db *sql.DB, days int, now time.Time) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	n, err := PruneEventsBefore(db, now.AddDate(0, 0, -days))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("events", n).Int("retention_days", days).Msg("Pruned old journal events")
	}
	return n, nil
}
