package status

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/filtration-controller/internal/model"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		SessionID:   "abc",
		StartTime:   "2024-05-01T02:59:00",
		CurrentTime: "2024-05-01T03:30:00",
		Valves:      ValvesOf(model.ValveState{true, true, false, true}),
		Mode:        model.ModeAutomatic,
		Pending:     "clean(until 2024-05-01T03:30:10) -> idle",
		DistanceCM:  0,
		Breach:      NoBreach,
	}
}

func TestFormatIsOneJSONLine(t *testing.T) {
	line, err := Format(sampleSnapshot())
	require.NoError(t, err)

	assert.Equal(t, byte('\n'), line[len(line)-1])
	assert.Equal(t, 1, bytes.Count(line, []byte("\n")))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.Equal(t, "none", decoded["breach"])
	assert.Equal(t, float64(0), decoded["distance_cm"])
	assert.Equal(t, "automatic", decoded["mode"])
	assert.Equal(t, map[string]any{"inlet": true, "drain": true, "filtered": false, "bridge": true}, decoded["valves"])
	assert.NotContains(t, decoded, "ControlMode")
}

func TestBreached(t *testing.T) {
	snap := sampleSnapshot()
	assert.False(t, snap.Breached())
	snap.Breach = "2024-05-01T03:00:00"
	assert.True(t, snap.Breached())
}

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)

	require.NoError(t, w.Emit(sampleSnapshot()))
	require.NoError(t, w.Emit(sampleSnapshot()))

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Snapshot()
	assert.False(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			snap := sampleSnapshot()
			snap.DistanceCM = uint16(i)
			_ = tr.Emit(snap)
		}(i)
		go func() {
			defer wg.Done()
			tr.Snapshot()
		}()
	}
	wg.Wait()

	snap, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "abc", snap.SessionID)
}
