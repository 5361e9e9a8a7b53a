package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/filtration-controller/internal/config"
	"github.com/thatsimonsguy/filtration-controller/internal/env"
)

var (
	configPath string
	dbPath     string

	rootCmd = &cobra.Command{
		Use:          "filtration-debug",
		Short:        "Inspect and install the filtration controller",
		SilenceUsage: true,
	}
)

// Execute runs the CLI and exits with non-zero status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig fills env.Cfg from the --config file.
func loadConfig() {
	cfg := config.LoadFile(configPath)
	env.Cfg = &cfg
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to controller config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "data/journal.db", "path to the event journal")

	rootCmd.AddCommand(eventsCmd, sessionCmd, installBootScriptCmd, installServiceCmd, readClockCmd, pinsCmd)
}
