package shutdown

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/filtration-controller/internal/gpio"
)

func TestHaltUsesArmedHandle(t *testing.T) {
	orig := HaltFunc
	defer func() { HaltFunc = orig; Arm(nil) }()

	var got *EmergencyHandle
	HaltFunc = func(h *EmergencyHandle) { got = h }

	led := gpio.NewFakePin()
	Arm(&EmergencyHandle{Indicator: led})
	Halt(errors.New("bus hung"), "Clock read failed")

	if assert.NotNil(t, got) {
		assert.Equal(t, led, got.Indicator)
		assert.Equal(t, DefaultBlinkPeriod, got.Period)
	}
}

func TestBlinkTogglesIndicator(t *testing.T) {
	led := gpio.NewFakePin()
	blink(&EmergencyHandle{Indicator: led, Period: time.Microsecond}, 4)

	assert.Equal(t, []bool{true, false, true, false}, led.History)
}

func TestShutdownClearsIndicatorAndExits(t *testing.T) {
	origExit := ExitFunc
	defer func() { ExitFunc = origExit; Arm(nil) }()

	code := -1
	ExitFunc = func(c int) { code = c }

	led := gpio.NewFakePin()
	led.High = true
	Arm(&EmergencyHandle{Indicator: led})
	Shutdown("SIGTERM")

	assert.Equal(t, 0, code)
	assert.False(t, led.High)
}
