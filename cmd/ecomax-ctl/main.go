// Ecomax-ctl is a command-line tool for ecoMAX 360 heating controllers.
//
// It talks to the controller through a TCP serial bridge and provides
// commands to read the plant and thermostat state, change the operating
// preset, adjust temperature setpoints, and watch live readings in a
// full-screen view.
//
// Usage:
//
//	ecomax-ctl [command] [flags]
//
// See 'ecomax-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lormic/ecomax360/internal/logging"
	"github.com/lormic/ecomax360/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ecomax-ctl",
	Short: "ecoMAX 360 controller utility",
	Long: `A command-line utility for ecoMAX 360 heating controllers.

Reads plant and thermostat state, changes the operating preset, and
adjusts temperature setpoints over the controller's TCP serial bridge.

The bridge address comes from --host/--port flags or from the config
file (~/.config/ecomax/config.yaml).`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent by default; ECOMAX_LOG_LEVEL=debug turns on frame dumps.
		return logging.InitializeFromEnv()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ecomax-ctl %s\n", version.Full())
	},
}
