package filtercontroller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/breach"
	"github.com/thatsimonsguy/filtration-controller/internal/calendar"
	"github.com/thatsimonsguy/filtration-controller/internal/command"
	"github.com/thatsimonsguy/filtration-controller/internal/model"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
	"github.com/thatsimonsguy/filtration-controller/internal/watchdog"
)

const DefaultInterval = 4 * time.Second

type Clock interface {
	DateTime() (calendar.DateTime, error)
}

type RangeFinder interface {
	Measure() (cm uint16, ok bool)
}

type CommandSource interface {
	Poll() (command.Command, bool)
}

// Runner is the control loop: sense, decide, actuate, emit, feed.
type Runner struct {
	Control   *Control
	Clock     Clock
	Range     RangeFinder
	Breach    breach.Sensor
	Commands  CommandSource
	Emitters  []status.Emitter
	Watchdog  watchdog.Watchdog
	Interval  time.Duration
	SessionID string
}

// Step runs one tick. Any returned error is fatal.
func (r *Runner) Step() error {
	now, err := r.Clock.DateTime()
	if err != nil {
		return fmt.Errorf("read clock: %w", err)
	}

	// the range finder is left alone while a breach holds the apparatus idle
	distance := r.Control.Distance
	if r.Control.Mode.Kind != model.ModeBreach {
		if cm, ok := r.Range.Measure(); ok {
			distance = model.DistanceOf(cm)
		} else {
			distance = model.NoDistance
		}
	}

	wet, err := r.Breach.Breached()
	if err != nil {
		return fmt.Errorf("read breach sensor: %w", err)
	}

	cmd := command.None
	if r.Commands != nil {
		if c, ok := r.Commands.Poll(); ok {
			cmd = c
		}
	}

	if err := r.Control.Tick(Input{Now: now, Distance: distance, Command: cmd, Breached: wet}); err != nil {
		return err
	}

	snap := r.Control.Snapshot(r.SessionID)
	log.Debug().
		Str("time", snap.CurrentTime).
		Str("mode", r.Control.Mode.String()).
		Uint16("distance_cm", snap.DistanceCM).
		Str("breach", snap.Breach).
		Msg("Tick complete")

	for _, e := range r.Emitters {
		if err := e.Emit(snap); err != nil {
			log.Warn().Err(err).Str("emitter", fmt.Sprintf("%T", e)).Msg("Failed to emit status")
		}
	}

	if r.Watchdog != nil {
		if err := r.Watchdog.Feed(); err != nil {
			log.Warn().Err(err).Msg("Failed to feed watchdog")
		}
	}
	return nil
}

// Run ticks until ctx is cancelled or a tick fails.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	log.Info().
		Str("start_time", r.Control.StartTime.String()).
		Dur("interval", interval).
		Str("session", r.SessionID).
		Msg("Starting filter controller")

	for {
		if err := r.Step(); err != nil {
			return err
		}

		if !sleep(ctx, interval) {
			log.Info().Msg("Filter controller stopped")
			return nil
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
