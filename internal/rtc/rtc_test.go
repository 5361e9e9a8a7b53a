package rtc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/filtration-controller/internal/bus"
	"github.com/thatsimonsguy/filtration-controller/internal/calendar"
)

func loadClock(f *bus.FakeBus) {
	f.Set(DefaultAddress, RegSeconds, 0x45)
	f.Set(DefaultAddress, RegMinutes, 0x30)
	f.Set(DefaultAddress, RegHours, 0x03)
	f.Set(DefaultAddress, RegDOW, 0x02)
	f.Set(DefaultAddress, RegDOM, 0x31)
	f.Set(DefaultAddress, RegMonth, 0x01)
	f.Set(DefaultAddress, RegYear, 0x24)
}

func TestDecodeBCD(t *testing.T) {
	tests := []struct {
		in       byte
		expected uint8
	}{
		{0x00, 0},
		{0x09, 9},
		{0x10, 10},
		{0x23, 23},
		{0x59, 59},
		{0x99, 99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, DecodeBCD(tt.in), "0x%02x", tt.in)
	}
}

func TestStartOnRunningClockIssuesNoWrites(t *testing.T) {
	f := bus.NewFakeBus()
	f.Set(DefaultAddress, RegSeconds, 0x12)
	c := New(f)

	require.NoError(t, c.Start())
	assert.Empty(t, f.Writes)

	running, err := c.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
}

func TestStopOnHaltedClockIssuesNoWrites(t *testing.T) {
	f := bus.NewFakeBus()
	f.Set(DefaultAddress, RegSeconds, FlagClockHalt|0x12)
	c := New(f)

	require.NoError(t, c.Stop())
	assert.Empty(t, f.Writes)
}

func TestStopThenStartTogglesHaltBit(t *testing.T) {
	f := bus.NewFakeBus()
	f.Set(DefaultAddress, RegSeconds, 0x37)
	c := New(f)

	require.NoError(t, c.Stop())
	assert.Equal(t, FlagClockHalt|0x37, f.Get(DefaultAddress, RegSeconds))
	running, err := c.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, c.Start())
	assert.Equal(t, byte(0x37), f.Get(DefaultAddress, RegSeconds))
	running, err = c.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)

	require.Len(t, f.Writes, 2)
	assert.Equal(t, FlagClockHalt|0x37, f.Writes[0].Value)
	assert.Equal(t, byte(0x37), f.Writes[1].Value)
}

func TestFieldAccessorsMaskControlBits(t *testing.T) {
	f := bus.NewFakeBus()
	loadClock(f)
	f.Set(DefaultAddress, RegSeconds, FlagClockHalt|0x59)
	f.Set(DefaultAddress, RegHours, FlagH24H12|0x21)
	c := New(f)

	s, err := c.Seconds()
	require.NoError(t, err)
	assert.Equal(t, uint8(59), s)

	h, err := c.Hours()
	require.NoError(t, err)
	assert.Equal(t, uint8(21), h)

	y, err := c.Year()
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
}

func TestDateTime(t *testing.T) {
	f := bus.NewFakeBus()
	loadClock(f)
	c := New(f)

	dt, err := c.DateTime()
	require.NoError(t, err)
	assert.Equal(t, calendar.NewDate(2024, 1, 31).At(3, 30, 45), dt)

	date, err := c.Date()
	require.NoError(t, err)
	assert.Equal(t, calendar.NewDate(2024, 1, 31), date)

	tm, err := c.Time()
	require.NoError(t, err)
	assert.Equal(t, calendar.NewTime(3, 30, 45), tm)
}

func TestAccessorFailuresAbort(t *testing.T) {
	for _, reg := range []byte{RegSeconds, RegMinutes, RegHours, RegDOM, RegMonth, RegYear} {
		f := bus.NewFakeBus()
		loadClock(f)
		f.FailRead[reg] = true
		c := New(f)

		dt, err := c.DateTime()
		assert.True(t, errors.Is(err, bus.ErrTransaction), "register 0x%02x", reg)
		assert.Equal(t, calendar.DateTime{}, dt)
	}
}

func TestStartPropagatesWriteFailure(t *testing.T) {
	f := bus.NewFakeBus()
	f.Set(DefaultAddress, RegSeconds, FlagClockHalt)
	f.FailWrite[RegSeconds] = true
	c := New(f)

	err := c.Start()
	assert.ErrorIs(t, err, bus.ErrTransaction)
	assert.Equal(t, FlagClockHalt, f.Get(DefaultAddress, RegSeconds))
}

func TestStartPropagatesReadFailureWithoutWriting(t *testing.T) {
	f := bus.NewFakeBus()
	f.FailRead[RegSeconds] = true
	c := New(f)

	assert.ErrorIs(t, c.Start(), bus.ErrTransaction)
	assert.Empty(t, f.Writes)
}

func TestCustomAddress(t *testing.T) {
	f := bus.NewFakeBus()
	f.Set(0x50, RegMinutes, 0x42)
	c := NewAt(f, 0x50)

	m, err := c.Minutes()
	require.NoError(t, err)
	assert.Equal(t, uint8(42), m)
}
