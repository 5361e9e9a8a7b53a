// Package rangefinder measures distance with an HC-SR04 style ultrasonic
// sensor: a trigger pulse out, an echo pulse back whose width is timed on a
// free-running counter.
package rangefinder

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/counter"
	"github.com/thatsimonsguy/filtration-controller/internal/gpio"
)

const (
	// TriggerPulse is the minimum trigger high time.
	TriggerPulse = 10 * time.Microsecond

	// EchoTimeoutTicks bounds the wait for the echo to rise (200 ms at 4 µs/tick).
	EchoTimeoutTicks uint16 = 50000

	// SettleTicks is the quiet period required between measurements (100 ms at 4 µs/tick).
	SettleTicks uint16 = 25000

	// MicrosPerCentimeter converts round-trip echo time to distance.
	MicrosPerCentimeter = 58
)

type Sensor struct {
	trigger gpio.Pin
	echo    gpio.Pin
	counter counter.Counter
	delay   func(time.Duration)
}

func New(trigger, echo gpio.Pin, c counter.Counter) *Sensor {
	return &Sensor{
		trigger: trigger,
		echo:    echo,
		counter: c,
		delay:   time.Sleep,
	}
}

// Measure returns the distance in centimeters. ok is false when there is no
// echo within the timeout, the echo pulse saturates the counter, or a pin
// fails; absence is never reported as an error.
func (s *Sensor) Measure() (cm uint16, ok bool) {
	defer s.settle()

	s.counter.Reset()

	if err := s.pulseTrigger(); err != nil {
		log.Warn().Err(err).Msg("Range finder trigger failed")
		return 0, false
	}

	for {
		high, err := s.echo.IsHigh()
		if err != nil {
			log.Warn().Err(err).Msg("Range finder echo read failed")
			return 0, false
		}
		if high {
			break
		}
		if s.counter.Ticks() >= EchoTimeoutTicks {
			log.Debug().Msg("Range finder echo timed out")
			return 0, false
		}
	}

	s.counter.Reset()

	for {
		high, err := s.echo.IsHigh()
		if err != nil {
			log.Warn().Err(err).Msg("Range finder echo read failed")
			return 0, false
		}
		if !high {
			break
		}
	}

	micros := roundTripMicros(s.counter.Ticks(), s.counter.Period())
	if micros == math.MaxUint16 {
		log.Debug().Msg("Range finder echo held high, discarding reading")
		return 0, false
	}

	return micros / MicrosPerCentimeter, true
}

func (s *Sensor) pulseTrigger() error {
	if err := s.trigger.SetHigh(); err != nil {
		return err
	}
	s.delay(TriggerPulse)
	return s.trigger.SetLow()
}

// settle blocks until the counter shows the mandatory quiet period since the
// last reset.
func (s *Sensor) settle() {
	for s.counter.Ticks() < SettleTicks {
	}
}

// roundTripMicros multiplies ticks by the tick period, saturating at MaxUint16.
func roundTripMicros(ticks uint16, period time.Duration) uint16 {
	perTick := uint32(period / time.Microsecond)
	if perTick == 0 {
		perTick = 1
	}
	product := uint32(ticks) * perTick
	if product > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(product)
}
