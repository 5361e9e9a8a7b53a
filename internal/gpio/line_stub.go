//go:build !linux

package gpio

import "errors"

// LinePin is not available on non-Linux platforms.
type LinePin struct{}

func NewLinePin(chip string, number int, dir Direction) (*LinePin, error) {
	return nil, errors.New("gpio: character device not supported on this platform (requires Linux)")
}

func (p *LinePin) SetHigh() error        { return errors.New("gpio: not supported") }
func (p *LinePin) SetLow() error         { return errors.New("gpio: not supported") }
func (p *LinePin) IsHigh() (bool, error) { return false, errors.New("gpio: not supported") }
func (p *LinePin) Close() error          { return nil }
