package device

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/gpio"
	"github.com/thatsimonsguy/filtration-controller/internal/model"
)

// Valve is a write-only output. Open reflects the last successful write; the
// hardware is never read back.
type Valve struct {
	Name string
	pin  gpio.Pin
	open bool
}

func NewValve(name string, pin gpio.Pin) *Valve {
	return &Valve{Name: name, pin: pin}
}

func (v *Valve) Open() error  { return v.Set(true) }
func (v *Valve) Close() error { return v.Set(false) }

func (v *Valve) Set(open bool) error {
	if err := gpio.Set(v.pin, open); err != nil {
		return fmt.Errorf("set valve %s open=%t: %w", v.Name, open, err)
	}
	if v.open != open {
		log.Debug().Str("valve", v.Name).Bool("open", open).Msg("Valve changed")
	}
	v.open = open
	return nil
}

func (v *Valve) IsOpen() bool {
	return v.open
}

// ValveGroup is the four valves of the apparatus.
type ValveGroup struct {
	Inlet    *Valve
	Drain    *Valve
	Filtered *Valve
	Bridge   *Valve
}

func NewValveGroup(inlet, drain, filtered, bridge gpio.Pin) *ValveGroup {
	return &ValveGroup{
		Inlet:    NewValve("inlet", inlet),
		Drain:    NewValve("drain", drain),
		Filtered: NewValve("filtered", filtered),
		Bridge:   NewValve("bridge", bridge),
	}
}

func (g *ValveGroup) valves() [4]*Valve {
	return [4]*Valve{g.Inlet, g.Drain, g.Filtered, g.Bridge}
}

// Set drives every valve to the given state, stopping at the first failure.
func (g *ValveGroup) Set(state model.ValveState) error {
	for i, v := range g.valves() {
		if err := v.Set(state[i]); err != nil {
			return err
		}
	}
	return nil
}

func (g *ValveGroup) State() model.ValveState {
	var s model.ValveState
	for i, v := range g.valves() {
		s[i] = v.IsOpen()
	}
	return s
}

var (
	IdleState   = model.ValveState{false, false, false, false}
	FilterState = model.ValveState{true, true, true, false}
	CleanState  = model.ValveState{true, true, false, true}
)

func (g *ValveGroup) SetIdle() error   { return g.Set(IdleState) }
func (g *ValveGroup) SetFilter() error { return g.Set(FilterState) }
func (g *ValveGroup) SetClean() error  { return g.Set(CleanState) }

// SetBridged drives the valves directly, bypassing any job policy.
func (g *ValveGroup) SetBridged(inlet, drain, filtered, bridge bool) error {
	return g.Set(model.ValveState{inlet, drain, filtered, bridge})
}

// Apply actuates the valve policy for a job. Clean deadlines are ignored.
func (g *ValveGroup) Apply(job model.Job) error {
	switch job.Kind {
	case model.JobFilter:
		return g.SetFilter()
	case model.JobClean:
		return g.SetClean()
	default:
		return g.SetIdle()
	}
}
