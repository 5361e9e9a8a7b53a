package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/model"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

// NewSessionID identifies one uptime session in the journal.
func NewSessionID() string {
	return uuid.NewString()
}

// Recorder turns consecutive status snapshots into journal events. The
// journal is write only for the controller; nothing is restored from it.
type Recorder struct {
	db        *sql.DB
	sessionID string
	now       func() time.Time
	prev      *status.Snapshot
}

func NewRecorder(dbConn *sql.DB, sessionID string) *Recorder {
	return &Recorder{db: dbConn, sessionID: sessionID, now: time.Now}
}

// RecordStartup writes the startup event with the controller's start time.
func (r *Recorder) RecordStartup(startTime string) error {
	return InsertEvents(r.db, []Event{r.event(KindStartup, startTime, "automatic[idle -> idle]")})
}

func (r *Recorder) Emit(snap status.Snapshot) error {
	events := diffSnapshots(r.prev, snap)
	for i := range events {
		events[i].SessionID = r.sessionID
		events[i].RecordedAt = r.now()
	}

	if err := InsertEvents(r.db, events); err != nil {
		return fmt.Errorf("journal %d events: %w", len(events), err)
	}
	for _, e := range events {
		log.Debug().Str("kind", e.Kind).Str("detail", e.Detail).Msg("Journal event recorded")
	}

	r.prev = &snap
	return nil
}

func (r *Recorder) event(kind, occurredAt, detail string) Event {
	return Event{SessionID: r.sessionID, Kind: kind, Detail: detail, OccurredAt: occurredAt, RecordedAt: r.now()}
}

// diffSnapshots lists the journal-worthy changes between two ticks. With no
// previous tick only a latched breach or a running clean is reported.
func diffSnapshots(prev *status.Snapshot, cur status.Snapshot) []Event {
	var events []Event
	add := func(kind, detail string) {
		events = append(events, Event{Kind: kind, Detail: detail, OccurredAt: cur.CurrentTime})
	}

	var before status.Snapshot
	if prev != nil {
		before = *prev
		if modeChanged(before.ControlMode, cur.ControlMode) {
			add(KindModeChange, fmt.Sprintf("%s -> %s", before.ControlMode, cur.ControlMode))
		}
	}

	if cleanStarted(before.ControlMode, cur.ControlMode) {
		add(KindCleanScheduled, cur.Pending)
	}

	switch {
	case cur.Breached() && !before.Breached():
		add(KindBreachLatched, cur.Breach)
	case !cur.Breached() && before.Breached():
		add(KindBreachCleared, before.Breach)
	}
	return events
}

// modeChanged ignores automatic job progress, which is covered by clean events.
func modeChanged(a, b model.ControlMode) bool {
	if a.Kind != b.Kind {
		return true
	}
	return a.Kind == model.ModeManual && a.Manual != b.Manual
}

func cleanStarted(a, b model.ControlMode) bool {
	if b.Kind != model.ModeAutomatic || b.Current.Kind != model.JobClean {
		return false
	}
	return a.Kind != model.ModeAutomatic || a.Current != b.Current
}
