// Package breach reports whether the leak sensor under the apparatus is wet.
package breach

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/thatsimonsguy/filtration-controller/internal/gpio"
)

// DefaultThreshold is the analog reading above which the floor counts as wet.
const DefaultThreshold = 60

type Sensor interface {
	Breached() (bool, error)
}

// Digital treats a high input as wet.
type Digital struct {
	Pin gpio.Pin
}

func (d Digital) Breached() (bool, error) {
	high, err := d.Pin.IsHigh()
	if err != nil {
		return false, fmt.Errorf("read breach input: %w", err)
	}
	return high, nil
}

type AnalogReader interface {
	Read() (int, error)
}

// Threshold compares an analog reading against a fixed limit.
type Threshold struct {
	Reader AnalogReader
	Limit  int
}

func NewThreshold(r AnalogReader, limit int) *Threshold {
	if limit <= 0 {
		limit = DefaultThreshold
	}
	return &Threshold{Reader: r, Limit: limit}
}

func (t *Threshold) Breached() (bool, error) {
	v, err := t.Reader.Read()
	if err != nil {
		return false, fmt.Errorf("read breach sensor: %w", err)
	}
	return v > t.Limit, nil
}

// SysfsAnalog reads an IIO raw value file such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type SysfsAnalog struct {
	Path string
}

func (s SysfsAnalog) Read() (int, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return v, nil
}

// Fake is a scripted sensor for tests.
type Fake struct {
	Wet bool
	Err error
}

func (f *Fake) Breached() (bool, error) {
	return f.Wet, f.Err
}
