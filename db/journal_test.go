package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/filtration-controller/internal/calendar"
	"github.com/thatsimonsguy/filtration-controller/internal/model"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbConn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	return dbConn
}

func snapAt(at string, mode model.ControlMode, breach string) status.Snapshot {
	return status.Snapshot{
		CurrentTime: at,
		Mode:        mode.Kind,
		Pending:     mode.Pending(),
		Breach:      breach,
		ControlMode: mode,
	}
}

func kinds(events []Event) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestRecorderJournalsTransitions(t *testing.T) {
	dbConn := openTestDB(t)
	r := NewRecorder(dbConn, "session-a")
	r.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	stop := calendar.NewDate(2024, 5, 1).At(3, 30, 10)
	idle := model.Automatic(model.Idle(), model.Idle())
	clean := model.Automatic(model.Clean(stop), model.Idle())

	require.NoError(t, r.RecordStartup("2024-05-01T03:29:00"))
	require.NoError(t, r.Emit(snapAt("2024-05-01T03:29:56", idle, status.NoBreach)))
	require.NoError(t, r.Emit(snapAt("2024-05-01T03:30:00", clean, status.NoBreach)))
	require.NoError(t, r.Emit(snapAt("2024-05-01T03:30:04", clean, status.NoBreach)))
	require.NoError(t, r.Emit(snapAt("2024-05-01T03:30:08", model.Breach(), "2024-05-01T03:30:08")))
	require.NoError(t, r.Emit(snapAt("2024-05-01T03:30:12", model.Breach(), status.NoBreach)))
	require.NoError(t, r.Emit(snapAt("2024-05-01T03:30:16", model.ManualBridged(true, false, false, false), status.NoBreach)))
	require.NoError(t, r.Emit(snapAt("2024-05-01T03:30:20", model.ManualBridged(false, true, false, false), status.NoBreach)))

	events, err := EventsBySession(dbConn, "session-a")
	require.NoError(t, err)
	assert.Equal(t, []string{
		KindStartup,
		KindCleanScheduled,
		KindModeChange, KindBreachLatched,
		KindBreachCleared,
		KindModeChange,
		KindModeChange,
	}, kinds(events))

	assert.Equal(t, "2024-05-01T03:30:00", events[1].OccurredAt)
	assert.Equal(t, "automatic[clean(until 2024-05-01T03:30:10) -> idle] -> breach", events[2].Detail)
	assert.Equal(t, "2024-05-01T03:30:08", events[3].Detail)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), events[0].RecordedAt)
}

func TestRecorderFirstSnapshotWithBreach(t *testing.T) {
	events := diffSnapshots(nil, snapAt("2024-05-01T03:30:08", model.Breach(), "2024-05-01T03:30:08"))
	assert.Equal(t, []string{KindBreachLatched}, kinds(events))
}

func TestQueries(t *testing.T) {
	dbConn := openTestDB(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, InsertEvents(dbConn, []Event{
		{SessionID: "a", Kind: KindStartup, OccurredAt: "2024-05-01T00:00:00", RecordedAt: base},
		{SessionID: "a", Kind: KindBreachLatched, OccurredAt: "2024-05-01T00:01:00", RecordedAt: base.Add(time.Minute)},
	}))
	require.NoError(t, InsertEvents(dbConn, []Event{
		{SessionID: "b", Kind: KindStartup, OccurredAt: "2024-05-02T00:00:00", RecordedAt: base.Add(24 * time.Hour)},
	}))

	recent, err := RecentEvents(dbConn, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].SessionID)
	assert.Equal(t, KindBreachLatched, recent[1].Kind)

	counts, err := CountEventsByKind(dbConn)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{KindStartup: 2, KindBreachLatched: 1}, counts)

	sessions, err := Sessions(dbConn, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].ID)
	assert.Equal(t, 2, sessions[1].Events)
	assert.Equal(t, base, sessions[1].StartedAt)

	pruned, err := PruneEventsBefore(dbConn, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)
}

func TestInsertEventsRollsBackOnFailure(t *testing.T) {
	dbConn := openTestDB(t)
	_, err := dbConn.Exec(`CREATE TRIGGER reject_bad BEFORE INSERT ON events WHEN NEW.kind = 'bad' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = InsertEvents(dbConn, []Event{
		{SessionID: "a", Kind: KindStartup, RecordedAt: time.Now()},
		{SessionID: "a", Kind: "bad", RecordedAt: time.Now()},
	})
	require.Error(t, err)

	counts, err := CountEventsByKind(dbConn)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestNewSessionIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
	assert.Len(t, NewSessionID(), 36)
}
