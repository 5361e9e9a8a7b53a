// Package counter models a free-running 16-bit hardware timer used for pulse
// timing. Ticks saturate at MaxTicks instead of wrapping.
package counter

import (
	"math"
	"time"
)

// DefaultPeriod is the length of one tick (16 MHz clock, prescaler 64).
const DefaultPeriod = 4 * time.Microsecond

const MaxTicks = math.MaxUint16

type Counter interface {
	// Ticks returns the ticks elapsed since the last Reset.
	Ticks() uint16
	Reset()
	// Period is the fixed duration of one tick.
	Period() time.Duration
}

// Monotonic derives ticks from the process monotonic clock.
type Monotonic struct {
	period time.Duration
	start  time.Time
	now    func() time.Time
}

func NewMonotonic(period time.Duration) *Monotonic {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Monotonic{period: period, start: time.Now(), now: time.Now}
}

func (m *Monotonic) Ticks() uint16 {
	elapsed := m.now().Sub(m.start) / m.period
	if elapsed >= MaxTicks {
		return MaxTicks
	}
	if elapsed < 0 {
		return 0
	}
	return uint16(elapsed)
}

func (m *Monotonic) Reset() {
	m.start = m.now()
}

func (m *Monotonic) Period() time.Duration {
	return m.period
}

// FakeCounter advances by Step on every read so polling loops make progress
// without real time passing.
type FakeCounter struct {
	Value  uint16
	Step   uint16
	Resets int
	Reads  int
}

func NewFakeCounter(step uint16) *FakeCounter {
	return &FakeCounter{Step: step}
}

func (f *FakeCounter) Ticks() uint16 {
	f.Reads++
	v := f.Value
	if uint32(f.Value)+uint32(f.Step) >= MaxTicks {
		f.Value = MaxTicks
	} else {
		f.Value += f.Step
	}
	return v
}

func (f *FakeCounter) Reset() {
	f.Resets++
	f.Value = 0
}

func (f *FakeCounter) Period() time.Duration {
	return DefaultPeriod
}

// Advance moves the fake counter forward by n ticks, saturating.
func (f *FakeCounter) Advance(n uint16) {
	if uint32(f.Value)+uint32(n) >= MaxTicks {
		f.Value = MaxTicks
		return
	}
	f.Value += n
}
