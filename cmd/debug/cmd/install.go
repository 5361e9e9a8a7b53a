package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/filtration-controller/internal/bus"
	"github.com/thatsimonsguy/filtration-controller/internal/env"
	"github.com/thatsimonsguy/filtration-controller/internal/pinctrl"
	"github.com/thatsimonsguy/filtration-controller/internal/rtc"
	"github.com/thatsimonsguy/filtration-controller/system/startup"
)

var (
	runScript bool

	installBootScriptCmd = &cobra.Command{
		Use:   "install-boot-script",
		Short: "Write the boot script that closes every valve, and its unit",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			loadConfig()
			if err := startup.WriteStartupScript(); err != nil {
				return fmt.Errorf("write boot script: %w", err)
			}
			if err := startup.InstallStartupService(); err != nil {
				return fmt.Errorf("install boot unit: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "boot script written to %s\n", env.Cfg.BootScriptPath)
			if runScript {
				return startup.RunStartupScript()
			}
			return nil
		},
	}

	installServiceCmd = &cobra.Command{
		Use:   "install-service",
		Short: "Write the controller systemd unit",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			loadConfig()
			if err := startup.InstallControllerService(); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "unit %s written to %s\n", startup.MainUnitName, env.Cfg.ServiceUnitPath)
			return nil
		},
	}

	readClockCmd = &cobra.Command{
		Use:   "read-clock",
		Short: "Read the real time clock over I2C",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			loadConfig()
			b, err := bus.NewI2CBus()
			if err != nil {
				return err
			}
			defer b.Close()

			clock := rtc.NewAt(b, byte(env.Cfg.RTCAddress))
			running, err := clock.IsRunning()
			if err != nil {
				return err
			}
			now, err := clock.DateTime()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s running=%t\n", now, running)
			return nil
		},
	}

	pinsCmd = &cobra.Command{
		Use:   "pins",
		Short: "Show pinctrl state for every valve pin",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			loadConfig()
			states, err := pinctrl.ReadAll()
			if err != nil {
				return err
			}
			names := []string{"inlet", "drain", "filtered", "bridge"}
			for i, pin := range env.Cfg.ValvePins() {
				st, ok := states[pin]
				if !ok {
					fmt.Fprintf(c.OutOrStdout(), "%-9s gpio%-3d unknown\n", names[i], pin)
					continue
				}
				fmt.Fprintf(c.OutOrStdout(), "%-9s gpio%-3d %s %s %s\n", names[i], pin, st.Mode, st.Drive, st.Level)
			}
			return nil
		},
	}
)

func init() {
	installBootScriptCmd.Flags().BoolVar(&runScript, "run", false, "run the script after writing it")
}
