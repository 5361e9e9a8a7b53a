package filtercontroller

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/calendar"
	"github.com/thatsimonsguy/filtration-controller/internal/command"
	"github.com/thatsimonsguy/filtration-controller/internal/device"
	"github.com/thatsimonsguy/filtration-controller/internal/model"
)

// ErrFaultRequested is returned when the operator asks for a deliberate halt.
var ErrFaultRequested = errors.New("fault requested by operator")

const (
	// Distances above this (cm) while idle trigger a clean followed by filtering.
	IdleCleanDistance = 50
	// Distances below this (cm) while filtering trigger a clean.
	FilterMinDistance = 10

	NightlyCleanLength  calendar.Duration = 10
	DistanceCleanLength calendar.Duration = 5
)

var (
	nightlyWindowStart = calendar.NewTime(3, 0, 0)
	nightlyWindowEnd   = calendar.NewTime(4, 0, 0)
)

// Control is the aggregate operating state. It is owned by the control loop
// and mutated one tick at a time.
type Control struct {
	StartTime      calendar.DateTime
	CurrentTime    calendar.DateTime
	Valves         *device.ValveGroup
	Mode           model.ControlMode
	AlreadyCleaned bool
	Distance       model.Distance
	// WaterBreach is the latched breach time, nil when no breach is latched.
	WaterBreach *calendar.DateTime
}

// NewControl starts in Automatic(Idle, Idle) with nothing latched.
func NewControl(start calendar.DateTime, valves *device.ValveGroup) *Control {
	return &Control{
		StartTime:   start,
		CurrentTime: start,
		Valves:      valves,
		Mode:        model.Automatic(model.Idle(), model.Idle()),
	}
}

// Input is everything sensed for one tick.
type Input struct {
	Now      calendar.DateTime
	Distance model.Distance
	Command  command.Command
	Breached bool
}

// Tick runs breach latch, command application and mode execution in that
// order. Errors are fatal to the loop.
func (c *Control) Tick(in Input) error {
	c.CurrentTime = in.Now
	c.Distance = in.Distance

	if c.WaterBreach == nil && in.Breached {
		at := c.CurrentTime
		c.WaterBreach = &at
		c.Mode = model.Breach()
		log.Warn().Str("at", at.String()).Msg("Water breach detected, forcing breach mode")
	}

	if in.Command != command.None {
		if err := c.apply(in.Command); err != nil {
			return err
		}
	}

	return c.execute()
}

func (c *Control) apply(cmd command.Command) error {
	log.Info().Str("command", cmd.String()).Str("from", c.Mode.String()).Msg("Applying command")

	switch cmd {
	case command.Automatic:
		c.Mode = model.Automatic(model.Idle(), model.Idle())
	case command.ManualIdle:
		c.Mode = model.ManualJob(model.Idle())
	case command.ManualFilter:
		c.Mode = model.ManualJob(model.Filter())
	case command.ManualClean:
		c.Mode = model.ManualJob(model.Clean(calendar.DateTime{}))
	case command.BridgeInlet:
		c.Mode = model.ManualBridged(true, false, false, false)
	case command.BridgeDrain:
		c.Mode = model.ManualBridged(false, true, false, false)
	case command.BridgeFiltered:
		c.Mode = model.ManualBridged(false, false, true, false)
	case command.BridgeBridge:
		c.Mode = model.ManualBridged(false, false, false, true)
	case command.Off:
		c.Mode = model.Off()
	case command.ClearBreach:
		// mode stays as is; the operator resumes with a mode command
		c.WaterBreach = nil
	case command.Fault:
		return ErrFaultRequested
	default:
		log.Warn().Str("command", cmd.String()).Msg("Ignoring unknown command")
	}
	return nil
}

func (c *Control) execute() error {
	var err error
	switch c.Mode.Kind {
	case model.ModeAutomatic:
		action := evaluateAutomatic(c.Mode, c.CurrentTime, c.Distance, c.AlreadyCleaned)
		err = c.Valves.Apply(action.Actuate)
		if action.Transition {
			log.Info().
				Str("from", c.Mode.String()).
				Str("to", action.Mode.String()).
				Str("reason", action.Reason).
				Msg("Automatic transition")
			c.Mode = action.Mode
		}
		if action.MarkCleaned {
			c.AlreadyCleaned = true
		}
	case model.ModeManual:
		if c.Mode.Manual.Bridged {
			err = c.Valves.Set(c.Mode.Manual.Valves)
		} else {
			err = c.Valves.Apply(c.Mode.Manual.Job)
		}
	default:
		err = c.Valves.SetIdle()
	}

	if err != nil {
		return fmt.Errorf("actuate valves in %s mode: %w", c.Mode.Kind, err)
	}
	return nil
}

type automaticAction struct {
	Actuate     model.Job
	Transition  bool
	Mode        model.ControlMode
	MarkCleaned bool
	Reason      string
}

// evaluateAutomatic decides the valve policy for this tick and the mode for
// the next one from the (current, next) job pair.
func evaluateAutomatic(mode model.ControlMode, now calendar.DateTime, distance model.Distance, alreadyCleaned bool) automaticAction {
	current, next := mode.Current, mode.Next

	switch {
	case current.Kind == model.JobIdle:
		action := automaticAction{Actuate: model.Idle()}
		if needsNightlyClean(now.Time, alreadyCleaned) {
			action.Transition = true
			action.Mode = model.Automatic(model.Clean(now.AddDuration(NightlyCleanLength)), model.Idle())
			action.MarkCleaned = true
			action.Reason = "nightly clean"
		} else if distance.Valid && distance.Centimeters > IdleCleanDistance {
			action.Transition = true
			action.Mode = model.Automatic(model.Clean(now.AddDuration(DistanceCleanLength)), model.Filter())
			action.Reason = "distance above idle threshold"
		}
		return action

	case current.Kind == model.JobFilter:
		action := automaticAction{Actuate: model.Filter()}
		if !distance.Valid || distance.Centimeters < FilterMinDistance {
			action.Transition = true
			action.Mode = model.Automatic(model.Clean(now.AddDuration(DistanceCleanLength)), model.Idle())
			action.Reason = "distance below filter threshold or missing"
		}
		return action

	case current.Kind == model.JobClean && next.Kind == model.JobIdle:
		action := automaticAction{Actuate: current}
		if now.Compare(current.StopTime) >= 0 {
			action.Transition = true
			action.Mode = model.Automatic(model.Idle(), model.Idle())
			action.Reason = "clean finished"
		}
		return action

	case current.Kind == model.JobClean && next.Kind == model.JobFilter:
		action := automaticAction{Actuate: current}
		if now.Compare(current.StopTime) >= 0 {
			action.Transition = true
			action.Mode = model.Automatic(model.Filter(), model.Idle())
			action.Reason = "clean finished"
		}
		return action

	default:
		log.Warn().Str("mode", mode.String()).Msg("Unexpected automatic job pairing, holding valves idle")
		return automaticAction{Actuate: model.Idle()}
	}
}

// needsNightlyClean is true inside (03:00:00, 04:00:00] when no clean has
// run since start-up.
func needsNightlyClean(now calendar.Time, alreadyCleaned bool) bool {
	return !alreadyCleaned && now.After(nightlyWindowStart) && !now.After(nightlyWindowEnd)
}
