// Package rtc drives a DS1307-style battery-backed clock that keeps wall time
// in packed BCD registers.
package rtc

import (
	"fmt"

	"github.com/thatsimonsguy/filtration-controller/internal/bus"
	"github.com/thatsimonsguy/filtration-controller/internal/calendar"
)

// DefaultAddress is the fixed 7-bit bus address of the device.
const DefaultAddress byte = 0x68

// Register map.
const (
	RegSeconds  byte = 0x00
	RegMinutes  byte = 0x01
	RegHours    byte = 0x02
	RegDOW      byte = 0x03
	RegDOM      byte = 0x04
	RegMonth    byte = 0x05
	RegYear     byte = 0x06
	RegControl  byte = 0x07
	RegRAMBegin byte = 0x08
	RegRAMEnd   byte = 0x3F
)

// Bit flags.
const (
	FlagClockHalt byte = 0b1000_0000 // seconds register
	FlagH24H12    byte = 0b0100_0000 // hours register
	FlagAMPM      byte = 0b0010_0000 // hours register
	FlagSQWE      byte = 0b0001_0000 // control register
	FlagOutLevel  byte = 0b1000_0000 // control register
)

const yearOffset = 2000

type Clock struct {
	bus  bus.Transactor
	addr byte
}

func New(t bus.Transactor) *Clock {
	return NewAt(t, DefaultAddress)
}

func NewAt(t bus.Transactor, addr byte) *Clock {
	return &Clock{bus: t, addr: addr}
}

// DecodeBCD converts a two-nibble packed BCD byte to its decimal value.
func DecodeBCD(b byte) uint8 {
	return (b>>4)*10 + (b & 0x0F)
}

// IsRunning reports whether the oscillator is running. The seconds register
// carries a clock-halt bit, so this is the inverse of that raw bit: a set bit
// means stopped and IsRunning returns false.
func (c *Clock) IsRunning() (bool, error) {
	halted, err := c.flagSet(RegSeconds, FlagClockHalt)
	if err != nil {
		return false, err
	}
	return !halted, nil
}

// Start clears the clock-halt bit. No write is issued if the clock is already running.
func (c *Clock) Start() error {
	return c.clearFlag(RegSeconds, FlagClockHalt)
}

// Stop sets the clock-halt bit. No write is issued if the clock is already halted.
func (c *Clock) Stop() error {
	return c.setFlag(RegSeconds, FlagClockHalt)
}

func (c *Clock) Seconds() (uint8, error) {
	return c.readBCD(RegSeconds, FlagClockHalt)
}

func (c *Clock) Minutes() (uint8, error) {
	return c.readBCD(RegMinutes, 0)
}

// Hours assumes 24-hour mode; the 12/24 flag is masked out.
func (c *Clock) Hours() (uint8, error) {
	return c.readBCD(RegHours, FlagH24H12)
}

func (c *Clock) Day() (uint8, error) {
	return c.readBCD(RegDOM, 0)
}

func (c *Clock) Month() (uint8, error) {
	return c.readBCD(RegMonth, 0)
}

func (c *Clock) Year() (int, error) {
	y, err := c.readBCD(RegYear, 0)
	if err != nil {
		return 0, err
	}
	return int(y) + yearOffset, nil
}

func (c *Clock) Time() (calendar.Time, error) {
	h, err := c.Hours()
	if err != nil {
		return calendar.Time{}, err
	}
	m, err := c.Minutes()
	if err != nil {
		return calendar.Time{}, err
	}
	s, err := c.Seconds()
	if err != nil {
		return calendar.Time{}, err
	}
	return calendar.NewTime(int(h), int(m), int(s)), nil
}

func (c *Clock) Date() (calendar.Date, error) {
	y, err := c.Year()
	if err != nil {
		return calendar.Date{}, err
	}
	m, err := c.Month()
	if err != nil {
		return calendar.Date{}, err
	}
	d, err := c.Day()
	if err != nil {
		return calendar.Date{}, err
	}
	return calendar.NewDate(y, int(m), int(d)), nil
}

func (c *Clock) DateTime() (calendar.DateTime, error) {
	d, err := c.Date()
	if err != nil {
		return calendar.DateTime{}, err
	}
	t, err := c.Time()
	if err != nil {
		return calendar.DateTime{}, err
	}
	return calendar.DateTime{Date: d, Time: t}, nil
}

func (c *Clock) readBCD(register, mask byte) (uint8, error) {
	data, err := c.readRegister(register)
	if err != nil {
		return 0, err
	}
	return DecodeBCD(data &^ mask), nil
}

func (c *Clock) flagSet(register, mask byte) (bool, error) {
	data, err := c.readRegister(register)
	if err != nil {
		return false, err
	}
	return data&mask != 0, nil
}

func (c *Clock) setFlag(register, mask byte) error {
	data, err := c.readRegister(register)
	if err != nil {
		return err
	}
	if data&mask != 0 {
		return nil
	}
	return c.writeRegister(register, data|mask)
}

func (c *Clock) clearFlag(register, mask byte) error {
	data, err := c.readRegister(register)
	if err != nil {
		return err
	}
	if data&mask == 0 {
		return nil
	}
	return c.writeRegister(register, data&^mask)
}

func (c *Clock) writeRegister(register, data byte) error {
	if err := c.bus.Write(c.addr, []byte{register, data}); err != nil {
		return fmt.Errorf("write register 0x%02x: %w", register, err)
	}
	return nil
}

func (c *Clock) readRegister(register byte) (byte, error) {
	resp := make([]byte, 1)
	if err := c.bus.WriteRead(c.addr, []byte{register}, resp); err != nil {
		return 0, fmt.Errorf("read register 0x%02x: %w", register, err)
	}
	return resp[0], nil
}
