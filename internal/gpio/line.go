//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// LinePin is a line on the Linux GPIO character device.
type LinePin struct {
	line   *gpiocdev.Line
	number int
	output bool
}

func NewLinePin(chip string, number int, dir Direction) (*LinePin, error) {
	if chip == "" {
		chip = "gpiochip0"
	}
	var opt gpiocdev.LineReqOption = gpiocdev.AsInput
	if dir == Output {
		opt = gpiocdev.AsOutput(0)
	}
	line, err := gpiocdev.RequestLine(chip, number, opt)
	if err != nil {
		return nil, fmt.Errorf("request gpio %d on %s: %w", number, chip, err)
	}
	return &LinePin{line: line, number: number, output: dir == Output}, nil
}

func (p *LinePin) SetHigh() error { return p.set(1) }
func (p *LinePin) SetLow() error  { return p.set(0) }

func (p *LinePin) set(v int) error {
	if safeMode {
		return nil
	}
	if err := p.line.SetValue(v); err != nil {
		return fmt.Errorf("set gpio %d to %d: %w", p.number, v, err)
	}
	return nil
}

func (p *LinePin) IsHigh() (bool, error) {
	v, err := p.line.Value()
	if err != nil {
		return false, fmt.Errorf("read gpio %d: %w", p.number, err)
	}
	return v == 1, nil
}

// Close drives outputs low and releases the line.
func (p *LinePin) Close() error {
	if p.output && !safeMode {
		_ = p.line.SetValue(0)
	}
	return p.line.Close()
}
