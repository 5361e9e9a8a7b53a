package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thatsimonsguy/filtration-controller/internal/env"
)

const (
	BootUnitName = "filtration-gpio.service"
	MainUnitName = "filtration-controller.service"

	// WatchdogSec must comfortably exceed one tick plus a full range finder timeout.
	WatchdogSec = 30
)

type outputPin struct {
	label  string
	number *int
}

func outputPins() []outputPin {
	g := env.Cfg.GPIO
	return []outputPin{
		{"inlet_valve", g.InletValve},
		{"drain_valve", g.DrainValve},
		{"filtered_valve", g.FilteredValve},
		{"bridge_valve", g.BridgeValve},
		{"range_trigger", g.RangeTrigger},
		{"fault_indicator", g.FaultIndicator},
	}
}

// WriteStartupScript writes a boot script that drives every output low, so
// all valves are closed before the controller starts.
func WriteStartupScript() error {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Filtration GPIO pin configuration at boot", "")

	for _, p := range outputPins() {
		if p.number == nil {
			return fmt.Errorf("pin %s not configured", p.label)
		}
		lines = append(lines, fmt.Sprintf("# %s", p.label))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn dl", *p.number))
		lines = append(lines, "")
	}

	if env.Cfg.Breach.Kind == "digital" && env.Cfg.Breach.Pin != nil {
		lines = append(lines, "# breach_input", fmt.Sprintf("pinctrl set %d ip pd", *env.Cfg.Breach.Pin), "")
	}
	if env.Cfg.GPIO.RangeEcho != nil {
		lines = append(lines, "# range_echo", fmt.Sprintf("pinctrl set %d ip pd", *env.Cfg.GPIO.RangeEcho), "")
	}

	contents := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(env.Cfg.BootScriptPath, []byte(contents), 0755)
}

func InstallStartupService() error {
	unitContents := fmt.Sprintf(`[Unit]
Description=Configure filtration GPIO pins at boot
After=network.target

[Service]
Type=oneshot
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`, env.Cfg.BootScriptPath)

	return os.WriteFile(filepath.Join(env.Cfg.ServiceUnitPath, BootUnitName), []byte(unitContents), 0644)
}

// InstallControllerService writes the main unit. The controller reports
// readiness and feeds the systemd watchdog every tick.
func InstallControllerService() error {
	configPath, err := filepath.Abs(env.Cfg.ConfigFile)
	if err != nil {
		return err
	}

	unit := fmt.Sprintf(`[Unit]
Description=Water filtration controller
After=%s
Requires=%s

[Service]
Type=notify
ExecStart=%s -config-file %s
WatchdogSec=%d
Restart=always
RestartSec=2s

[Install]
WantedBy=multi-user.target
`, BootUnitName, BootUnitName, env.Cfg.BinaryPath, configPath, WatchdogSec)

	return os.WriteFile(filepath.Join(env.Cfg.ServiceUnitPath, MainUnitName), []byte(unit), 0644)
}

func RunStartupScript() error {
	cmd := exec.Command("/bin/bash", env.Cfg.BootScriptPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
