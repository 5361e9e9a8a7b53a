// Package mqtt publishes status records and breach events to a broker.
package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

// Publisher sends payloads to the broker.
type Publisher interface {
	// PublishStatus sends the per-tick record to <topic>/status.
	PublishStatus(payload []byte) error

	// PublishEvent sends a breach event to <topic>/events.
	PublishEvent(payload []byte) error

	Close() error
}

func StatusTopic(base string) string { return base + "/status" }
func EventTopic(base string) string  { return base + "/events" }

// Event is a breach latch or clear notification.
type Event struct {
	Event   string `json:"event"`
	At      string `json:"at"`
	Session string `json:"session"`
}

const (
	EventBreachLatched = "BREACH_LATCHED"
	EventBreachCleared = "BREACH_CLEARED"
)

func FormatEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Emitter publishes every snapshot and an event whenever the breach latch
// changes.
type Emitter struct {
	pub      Publisher
	breached bool
}

func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{pub: pub}
}

func (e *Emitter) Emit(snap status.Snapshot) error {
	payload, err := status.Format(snap)
	if err != nil {
		return err
	}
	if err := e.pub.PublishStatus(payload); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}

	breached := snap.Breached()
	if breached == e.breached {
		return nil
	}

	ev := Event{Event: EventBreachCleared, At: snap.CurrentTime, Session: snap.SessionID}
	if breached {
		ev = Event{Event: EventBreachLatched, At: snap.Breach, Session: snap.SessionID}
	}
	data, err := FormatEvent(ev)
	if err != nil {
		return fmt.Errorf("format event: %w", err)
	}
	if err := e.pub.PublishEvent(data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	e.breached = breached
	return nil
}
