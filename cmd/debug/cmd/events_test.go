package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/filtration-controller/db"
)

func TestPrintEvents(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	printEvents(&buf, []db.Event{
		{ID: 7, Kind: db.KindBreachLatched, Detail: "2024-05-01T03:30:08", OccurredAt: "2024-05-01T03:30:08", RecordedAt: now.Add(-2 * time.Hour)},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, db.KindBreachLatched)

	buf.Reset()
	printEvents(&buf, nil, now)
	assert.Equal(t, "no events\n", buf.String())
}

func TestPrintCountsSorted(t *testing.T) {
	var buf bytes.Buffer
	printCounts(&buf, map[string]int{db.KindStartup: 1200, db.KindBreachLatched: 3})

	assert.Equal(t, "breach_latched   3\nstartup          1,200\n", buf.String())
}

func TestSessionCommandListsSessions(t *testing.T) {
	path := t.TempDir() + "/journal.db"
	dbConn, err := db.Open(path)
	assert.NoError(t, err)
	assert.NoError(t, db.InsertEvents(dbConn, []db.Event{{SessionID: "abc", Kind: db.KindStartup, RecordedAt: time.Now()}}))
	dbConn.Close()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"session", "--db", path})
	assert.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "abc")
	assert.Contains(t, buf.String(), "1 event")
}

func TestEventsCommandRejectsMissingJournal(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/missing/journal.db"

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"events", "--db", path})
	assert.Error(t, rootCmd.Execute())
	assert.NoDirExists(t, dir+"/missing")
}
