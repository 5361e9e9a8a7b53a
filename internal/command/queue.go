package command

import (
	"github.com/rs/zerolog/log"
)

const DefaultQueueSize = 8

// Queue hands commands from the serial reader and the API to the control
// loop. Producers never block; the loop takes at most one command per tick.
type Queue struct {
	ch chan Command
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Command, size)}
}

// Push enqueues c and reports whether it was accepted.
func (q *Queue) Push(c Command) bool {
	select {
	case q.ch <- c:
		log.Debug().Str("command", c.String()).Msg("Command queued")
		return true
	default:
		log.Warn().Str("command", c.String()).Msg("Command queue full, dropping command")
		return false
	}
}

// Poll returns the oldest queued command without blocking.
func (q *Queue) Poll() (Command, bool) {
	select {
	case c := <-q.ch:
		return c, true
	default:
		return None, false
	}
}

func (q *Queue) Len() int {
	return len(q.ch)
}
