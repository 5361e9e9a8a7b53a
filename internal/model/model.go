package model

import (
	"fmt"

	"github.com/thatsimonsguy/filtration-controller/internal/calendar"
)

type JobKind string

const (
	JobIdle   JobKind = "idle"
	JobFilter JobKind = "filter"
	JobClean  JobKind = "clean"
)

// Job is a logical valve intent. StopTime is only meaningful for JobClean.
type Job struct {
	Kind     JobKind
	StopTime calendar.DateTime
}

func Idle() Job   { return Job{Kind: JobIdle} }
func Filter() Job { return Job{Kind: JobFilter} }

func Clean(stop calendar.DateTime) Job {
	return Job{Kind: JobClean, StopTime: stop}
}

func (j Job) String() string {
	if j.Kind == JobClean {
		return fmt.Sprintf("clean(until %s)", j.StopTime)
	}
	return string(j.Kind)
}

// ValveState is the open/closed setting of the four valves, in the order
// inlet, drain, filtered, bridge.
type ValveState [4]bool

// ManualControl either runs one Job or drives the valves directly.
type ManualControl struct {
	Bridged bool
	Job     Job
	Valves  ValveState
}

type ModeKind string

const (
	ModeAutomatic ModeKind = "automatic"
	ModeManual    ModeKind = "manual"
	ModeBreach    ModeKind = "breach"
	ModeOff       ModeKind = "off"
)

// ControlMode is the top level operating mode. Current and Next are used by
// Automatic, Manual by Manual.
type ControlMode struct {
	Kind    ModeKind
	Current Job
	Next    Job
	Manual  ManualControl
}

func Automatic(current, next Job) ControlMode {
	return ControlMode{Kind: ModeAutomatic, Current: current, Next: next}
}

func ManualJob(job Job) ControlMode {
	return ControlMode{Kind: ModeManual, Manual: ManualControl{Job: job}}
}

func ManualBridged(inlet, drain, filtered, bridge bool) ControlMode {
	return ControlMode{
		Kind:   ModeManual,
		Manual: ManualControl{Bridged: true, Valves: ValveState{inlet, drain, filtered, bridge}},
	}
}

func Breach() ControlMode { return ControlMode{Kind: ModeBreach} }
func Off() ControlMode    { return ControlMode{Kind: ModeOff} }

// Pending describes the job(s) attached to the mode, for status output.
func (m ControlMode) Pending() string {
	switch m.Kind {
	case ModeAutomatic:
		return fmt.Sprintf("%s -> %s", m.Current, m.Next)
	case ModeManual:
		if m.Manual.Bridged {
			v := m.Manual.Valves
			return fmt.Sprintf("bridged(%t,%t,%t,%t)", v[0], v[1], v[2], v[3])
		}
		return m.Manual.Job.String()
	default:
		return ""
	}
}

func (m ControlMode) String() string {
	if p := m.Pending(); p != "" {
		return fmt.Sprintf("%s[%s]", m.Kind, p)
	}
	return string(m.Kind)
}

// Distance is an optional range finder reading in centimeters.
type Distance struct {
	Centimeters uint16
	Valid       bool
}

func DistanceOf(cm uint16) Distance {
	return Distance{Centimeters: cm, Valid: true}
}

var NoDistance = Distance{}
