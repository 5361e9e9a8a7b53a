package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/filtration-controller/internal/config"
	"github.com/thatsimonsguy/filtration-controller/internal/env"
)

func intPtr(i int) *int { return &i }

func setupEnv(t *testing.T) string {
	dir := t.TempDir()
	prev := env.Cfg
	t.Cleanup(func() { env.Cfg = prev })

	env.Cfg = &config.Config{
		ConfigFile: "config.json",
		GPIO: config.GPIO{
			RangeTrigger:   intPtr(23),
			RangeEcho:      intPtr(24),
			InletValve:     intPtr(5),
			DrainValve:     intPtr(6),
			FilteredValve:  intPtr(13),
			BridgeValve:    intPtr(19),
			FaultIndicator: intPtr(26),
		},
		Breach:          config.Breach{Kind: "digital", Pin: intPtr(17)},
		BootScriptPath:  filepath.Join(dir, "boot.sh"),
		ServiceUnitPath: dir,
		BinaryPath:      "/usr/local/bin/filtration-controller",
	}
	return dir
}

func TestWriteStartupScriptDrivesOutputsLow(t *testing.T) {
	setupEnv(t)

	require.NoError(t, WriteStartupScript())

	raw, err := os.ReadFile(env.Cfg.BootScriptPath)
	require.NoError(t, err)
	script := string(raw)

	for _, pin := range []string{"5", "6", "13", "19", "23", "26"} {
		assert.Contains(t, script, "pinctrl set "+pin+" op pn dl")
	}
	assert.Contains(t, script, "pinctrl set 17 ip pd")
	assert.Contains(t, script, "pinctrl set 24 ip pd")
	assert.NotContains(t, script, "dh")

	info, err := os.Stat(env.Cfg.BootScriptPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestWriteStartupScriptMissingPin(t *testing.T) {
	setupEnv(t)
	env.Cfg.GPIO.BridgeValve = nil

	assert.ErrorContains(t, WriteStartupScript(), "bridge_valve")
}

func TestInstallServices(t *testing.T) {
	dir := setupEnv(t)

	require.NoError(t, InstallStartupService())
	require.NoError(t, InstallControllerService())

	boot, err := os.ReadFile(filepath.Join(dir, BootUnitName))
	require.NoError(t, err)
	assert.Contains(t, string(boot), "ExecStart="+env.Cfg.BootScriptPath)

	main, err := os.ReadFile(filepath.Join(dir, MainUnitName))
	require.NoError(t, err)
	assert.Contains(t, string(main), "Type=notify")
	assert.Contains(t, string(main), "WatchdogSec=30")
	assert.Contains(t, string(main), "Requires="+BootUnitName)
}
