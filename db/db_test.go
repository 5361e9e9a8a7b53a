package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadOnlyMissingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo", "journal.db")

	_, err := OpenReadOnly(path)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(statErr), "directory must not be created")
}

func TestOpenReadOnlyReadsButRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	rw, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, InsertEvents(rw, []Event{{SessionID: "a", Kind: KindStartup, RecordedAt: time.Now()}}))
	require.NoError(t, rw.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	events, err := RecentEvents(ro, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	assert.Error(t, InsertEvents(ro, []Event{{SessionID: "a", Kind: KindStartup, RecordedAt: time.Now()}}))
}

func TestApplyRetention(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("prunes events older than the window", func(t *testing.T) {
		dbConn := openTestDB(t)
		require.NoError(t, InsertEvents(dbConn, []Event{
			{SessionID: "old", Kind: KindStartup, RecordedAt: now.AddDate(0, 0, -100)},
			{SessionID: "new", Kind: KindStartup, RecordedAt: now.AddDate(0, 0, -1)},
		}))

		n, err := ApplyRetention(dbConn, 90, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		events, err := RecentEvents(dbConn, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "new", events[0].SessionID)
	})

	t.Run("zero keeps everything", func(t *testing.T) {
		dbConn := openTestDB(t)
		require.NoError(t, InsertEvents(dbConn, []Event{
			{SessionID: "old", Kind: KindStartup, RecordedAt: now.AddDate(-5, 0, 0)},
		}))

		n, err := ApplyRetention(dbConn, 0, now)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
