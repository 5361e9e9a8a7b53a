// Package gpio provides the minimal digital pin capability used by the valves,
// the range finder and the breach input. Real pins are backed either by the
// Linux GPIO character device or by the pinctrl tool; FakePin is for tests.
package gpio

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Pin is a single digital line.
type Pin interface {
	SetHigh() error
	SetLow() error
	IsHigh() (bool, error)
}

// Backends accepted by Open.
const (
	BackendGPIOCDev = "gpiocdev"
	BackendPinctrl  = "pinctrl"
)

var safeMode bool

// SetSafeMode disables every output write on real pins. Reads keep working.
func SetSafeMode(enabled bool) {
	safeMode = enabled
}

func SafeMode() bool {
	return safeMode
}

// Direction of a requested line.
type Direction int

const (
	Input Direction = iota
	Output
)

// Open requests pin number from the given backend. Output lines start low.
func Open(backend, chip string, number int, dir Direction) (Pin, error) {
	log.Debug().Str("backend", backend).Int("pin", number).Int("direction", int(dir)).Msg("Opening GPIO line")
	switch backend {
	case BackendGPIOCDev, "":
		return NewLinePin(chip, number, dir)
	case BackendPinctrl:
		return NewPinctrlPin(number, dir)
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}

// IsLow is the complement of IsHigh.
func IsLow(p Pin) (bool, error) {
	high, err := p.IsHigh()
	return !high, err
}

// Set drives p high when high is true, low otherwise.
func Set(p Pin, high bool) error {
	if high {
		return p.SetHigh()
	}
	return p.SetLow()
}
