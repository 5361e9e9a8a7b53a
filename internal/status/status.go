// Package status builds the per-tick status record and hands it to the
// configured sinks: the serial line, MQTT, metrics, the journal and the HTTP
// tracker.
package status

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/thatsimonsguy/filtration-controller/internal/model"
)

// NoBreach marks the absence of a latched breach in the record.
const NoBreach = "none"

// Snapshot is a point-in-time copy of the control state. It is a value type
// and safe to keep after the tick ends.
type Snapshot struct {
	SessionID      string            `json:"session"`
	StartTime      string            `json:"start_time"`
	CurrentTime    string            `json:"current_time"`
	Valves         Valves            `json:"valves"`
	Mode           model.ModeKind    `json:"mode"`
	Pending        string            `json:"pending,omitempty"`
	DistanceCM     uint16            `json:"distance_cm"`
	Breach         string            `json:"breach"`
	AlreadyCleaned bool              `json:"already_cleaned"`
	ControlMode    model.ControlMode `json:"-"`
}

type Valves struct {
	Inlet    bool `json:"inlet"`
	Drain    bool `json:"drain"`
	Filtered bool `json:"filtered"`
	Bridge   bool `json:"bridge"`
}

func ValvesOf(s model.ValveState) Valves {
	return Valves{Inlet: s[0], Drain: s[1], Filtered: s[2], Bridge: s[3]}
}

// Map returns the valve states keyed by valve name.
func (v Valves) Map() map[string]bool {
	return map[string]bool{
		"inlet":    v.Inlet,
		"drain":    v.Drain,
		"filtered": v.Filtered,
		"bridge":   v.Bridge,
	}
}

// Breached reports whether a breach is latched.
func (s Snapshot) Breached() bool {
	return s.Breach != "" && s.Breach != NoBreach
}

// Format renders the snapshot as one newline terminated JSON record.
func Format(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}
	return append(data, '\n'), nil
}

// Emitter receives one snapshot per tick.
type Emitter interface {
	Emit(snap Snapshot) error
}

// LineWriter writes each record to w, typically the serial port or stdout.
type LineWriter struct {
	w io.Writer
}

func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

func (l *LineWriter) Emit(snap Snapshot) error {
	line, err := Format(snap)
	if err != nil {
		return err
	}
	_, err = l.w.Write(line)
	return err
}

// Tracker keeps the latest snapshot for readers on other goroutines.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	ok   bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Emit(snap Snapshot) error {
	t.mu.Lock()
	t.snap = snap
	t.ok = true
	t.mu.Unlock()
	return nil
}

// Snapshot returns the latest snapshot and whether any tick has completed.
func (t *Tracker) Snapshot() (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap, t.ok
}
