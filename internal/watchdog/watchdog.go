// Package watchdog provides the keep-alive the control loop feeds once per
// tick. If feeding stops, the supervisor restarts the controller.
package watchdog

import (
	"fmt"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog/log"
)

const (
	KindSystemd = "systemd"
	KindDevice  = "device"
	KindNone    = "none"
)

type Watchdog interface {
	Feed() error
}

// Open returns the keep-alive of the given kind.
func Open(kind, devicePath string) (Watchdog, error) {
	switch kind {
	case KindSystemd, "":
		return NewSystemd(), nil
	case KindDevice:
		return OpenDevice(devicePath)
	case KindNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown watchdog kind %q", kind)
	}
}

// Systemd feeds the service manager watchdog configured with WatchdogSec.
type Systemd struct {
	notify func(unsetEnv bool, state string) (bool, error)
}

func NewSystemd() *Systemd {
	return &Systemd{notify: daemon.SdNotify}
}

// Ready tells the service manager start-up has finished.
func (s *Systemd) Ready() error {
	sent, err := s.notify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify ready: %w", err)
	}
	if !sent {
		log.Warn().Msg("NOTIFY_SOCKET not set, systemd readiness not reported")
	}
	return nil
}

func (s *Systemd) Feed() error {
	if _, err := s.notify(false, daemon.SdNotifyWatchdog); err != nil {
		return fmt.Errorf("notify watchdog: %w", err)
	}
	return nil
}

// Interval returns the configured systemd watchdog timeout, or zero when the
// unit has none.
func Interval() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read systemd watchdog settings")
		return 0
	}
	return d
}

// Device writes to a kernel watchdog device such as /dev/watchdog.
type Device struct {
	f *os.File
}

func OpenDevice(path string) (*Device, error) {
	if path == "" {
		path = "/dev/watchdog"
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog device: %w", err)
	}
	return &Device{f: f}, nil
}

func (d *Device) Feed() error {
	if _, err := d.f.Write([]byte{0}); err != nil {
		return fmt.Errorf("feed watchdog device: %w", err)
	}
	return nil
}

// Close disarms the watchdog with the magic close character.
func (d *Device) Close() error {
	if _, err := d.f.Write([]byte("V")); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}

type Nop struct{}

func (Nop) Feed() error { return nil }

// Fake counts feeds.
type Fake struct {
	Feeds int
	Err   error
}

func (f *Fake) Feed() error {
	if f.Err != nil {
		return f.Err
	}
	f.Feeds++
	return nil
}
