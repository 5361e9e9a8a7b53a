package gpio

import (
	"github.com/thatsimonsguy/filtration-controller/internal/pinctrl"
)

// PinctrlPin drives a pin by shelling out to pinctrl. Each call is a process
// spawn, so it is too slow for echo timing and only suits valves and the breach input.
type PinctrlPin struct {
	number int
}

func NewPinctrlPin(number int, dir Direction) (*PinctrlPin, error) {
	p := &PinctrlPin{number: number}
	if dir == Input {
		return p, pinctrl.ConfigureInput(number, "pd")
	}
	if safeMode {
		return p, nil
	}
	return p, pinctrl.Drive(number, false)
}

func (p *PinctrlPin) SetHigh() error {
	if safeMode {
		return nil
	}
	return pinctrl.Drive(p.number, true)
}

func (p *PinctrlPin) SetLow() error {
	if safeMode {
		return nil
	}
	return pinctrl.Drive(p.number, false)
}

func (p *PinctrlPin) IsHigh() (bool, error) {
	return pinctrl.Level(p.number)
}
