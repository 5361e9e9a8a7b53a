package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultBacklog is the number of snapshots an Async emitter holds while its
// sink is busy.
const DefaultBacklog = 4

var ErrBacklogFull = errors.New("emitter backlog full")

// Async forwards snapshots to a network sink on its own goroutine. Emit never
// blocks the control loop; when the backlog is full the snapshot is dropped.
type Async struct {
	name string
	next Emitter
	ch   chan Snapshot
}

func NewAsync(name string, next Emitter, backlog int) *Async {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Async{name: name, next: next, ch: make(chan Snapshot, backlog)}
}

func (a *Async) Emit(snap Snapshot) error {
	select {
	case a.ch <- snap:
		return nil
	default:
		return fmt.Errorf("%s: %w", a.name, ErrBacklogFull)
	}
}

// Run delivers queued snapshots in order until ctx is cancelled.
func (a *Async) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-a.ch:
			if err := a.next.Emit(snap); err != nil {
				log.Warn().Err(err).Str("emitter", a.name).Msg("Failed to emit status")
			}
		}
	}
}
