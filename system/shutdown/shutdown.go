package shutdown

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/gpio"
)

const DefaultBlinkPeriod = 50 * time.Millisecond

// EmergencyHandle holds the fault indicator. It is requested once at startup
// and owned only by this package, so the halt path never has to take
// hardware away from the control loop.
type EmergencyHandle struct {
	Indicator gpio.Pin
	Period    time.Duration
}

var (
	mu     sync.Mutex
	handle *EmergencyHandle
)

// Arm registers the handle used by Halt.
func Arm(h *EmergencyHandle) {
	mu.Lock()
	defer mu.Unlock()
	if h != nil && h.Period <= 0 {
		h.Period = DefaultBlinkPeriod
	}
	handle = h
}

// ExitFunc ends the process on a clean shutdown.
var ExitFunc = os.Exit

// HaltFunc runs after a fatal error has been logged. The default blinks the
// indicator forever and never returns; the watchdog, no longer fed,
// restarts the controller.
var HaltFunc = func(h *EmergencyHandle) {
	blink(h, -1)
}

// Halt is the fatal path for clock failures, valve write failures and
// operator-requested faults.
func Halt(err error, msg string) {
	log.Error().Err(err).Msg(msg)

	mu.Lock()
	h := handle
	mu.Unlock()

	if h == nil {
		log.Warn().Msg("No emergency handle armed, halting without fault indicator")
	}
	HaltFunc(h)
}

// Shutdown turns the indicator off and exits cleanly.
func Shutdown(reason string) {
	log.Info().Str("reason", reason).Msg("Filtration controller shutting down")

	mu.Lock()
	h := handle
	mu.Unlock()

	if h != nil && h.Indicator != nil {
		if err := h.Indicator.SetLow(); err != nil {
			log.Warn().Err(err).Msg("Failed to clear fault indicator")
		}
	}
	ExitFunc(0)
}

// blink toggles the indicator for cycles full periods, or forever when cycles
// is negative. Without an indicator it just blocks.
func blink(h *EmergencyHandle, cycles int) {
	if h == nil || h.Indicator == nil {
		if cycles < 0 {
			select {}
		}
		return
	}

	on := false
	for i := 0; cycles < 0 || i < cycles; i++ {
		on = !on
		if err := gpio.Set(h.Indicator, on); err != nil {
			log.Warn().Err(err).Msg("Failed to drive fault indicator")
		}
		time.Sleep(h.Period)
	}
}
