package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lormic/ecomax360/internal/client"
	"github.com/lormic/ecomax360/internal/config"
	"github.com/lormic/ecomax360/internal/protocol"
	"github.com/lormic/ecomax360/internal/watch"
)

// Device command flags
var (
	deviceHost     string
	devicePort     int
	timeoutSeconds int
	outputFormat   string
	watchSeconds   int
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceHost, "host", "", "Serial bridge IP address (overrides config file)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 0, "Serial bridge TCP port (default 8899)")
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 0, "Exchange timeout in seconds (default 10)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	// Add subcommands directly to root
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(thermostatCmd)
	rootCmd.AddCommand(setPresetCmd)
	rootCmd.AddCommand(setTempCmd)
	rootCmd.AddCommand(watchCmd)
}

// newClient builds a protocol client from flags, falling back to the
// config file for anything the flags leave unset.
func newClient() (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	host := deviceHost
	if host == "" {
		host = cfg.Device.Host
	}
	if host == "" {
		return nil, fmt.Errorf("no device address: use --host or set device.host in the config file")
	}

	port := devicePort
	if port == 0 {
		port = cfg.Device.Port
	}

	timeout := cfg.Device.Timeout()
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}

	return client.New(host, port, client.WithTimeout(timeout)), nil
}

// signalContext returns a context cancelled by Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// dataCmd reads the periodic plant data broadcast
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Read heating plant temperatures",
	Long: `Read the heating plant temperatures from the controller.

This command requests the controller's periodic data broadcast and decodes
the plant temperatures: heat source, radiator flow, domestic hot water,
buffer tank, and outside temperature.`,
	Example: `  # Read plant data
  ecomax-ctl data --host 192.168.1.50

  # JSON output for scripting
  ecomax-ctl data --host 192.168.1.50 --format json`,
	RunE: runData,
}

func runData(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	values, err := c.FetchBulkData(ctx)
	if err != nil {
		return fmt.Errorf("failed to read plant data: %w", err)
	}

	return printValues(values, protocol.FrameBulkData, "Heating Plant")
}

// thermostatCmd reads the room thermostat state
var thermostatCmd = &cobra.Command{
	Use:   "thermostat",
	Short: "Read room thermostat state",
	Long: `Read the room thermostat state from the controller.

This command queries the thermostat and decodes the current and target
temperatures, the day and night setpoints, the operating preset, and
whether the heating demand is active.`,
	Example: `  # Read thermostat state
  ecomax-ctl thermostat --host 192.168.1.50

  # JSON output for scripting
  ecomax-ctl thermostat --host 192.168.1.50 --format json`,
	RunE: runThermostat,
}

func runThermostat(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	values, err := c.FetchThermostatState(ctx)
	if err != nil {
		return fmt.Errorf("failed to read thermostat: %w", err)
	}

	return printValues(values, protocol.FrameThermostat, "Thermostat")
}

// setPresetCmd changes the thermostat operating preset
var setPresetCmd = &cobra.Command{
	Use:   "set-preset <preset>",
	Short: "Change the thermostat operating preset",
	Long: fmt.Sprintf(`Change the thermostat operating preset.

Valid presets: %s.`, strings.Join(protocol.PresetNames(), ", ")),
	Example: `  # Switch to comfort mode
  ecomax-ctl set-preset comfort --host 192.168.1.50

  # Back to the weekly schedule
  ecomax-ctl set-preset schedule --host 192.168.1.50`,
	Args: cobra.ExactArgs(1),
	RunE: runSetPreset,
}

func runSetPreset(cmd *cobra.Command, args []string) error {
	code, err := protocol.PresetWriteCode(args[0])
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := c.RequestPresetChange(ctx, code); err != nil {
		return fmt.Errorf("failed to set preset: %w", err)
	}

	fmt.Printf("Preset set to %s\n", strings.ToLower(args[0]))
	return nil
}

// setTempCmd changes a temperature setpoint
var setTempCmd = &cobra.Command{
	Use:   "set-temp <day|night> <temperature>",
	Short: "Change a temperature setpoint",
	Long: `Change the day or night temperature setpoint.

The temperature is in degrees Celsius and may carry a fractional part,
e.g. 21.5.`,
	Example: `  # Set the day setpoint to 21.5 C
  ecomax-ctl set-temp day 21.5 --host 192.168.1.50

  # Set the night setpoint to 18 C
  ecomax-ctl set-temp night 18 --host 192.168.1.50`,
	Args: cobra.ExactArgs(2),
	RunE: runSetTemp,
}

func runSetTemp(cmd *cobra.Command, args []string) error {
	var kind protocol.SetpointKind
	switch strings.ToLower(args[0]) {
	case "day":
		kind = protocol.SetpointDay
	case "night":
		kind = protocol.SetpointNight
	default:
		return fmt.Errorf("invalid setpoint %q: must be day or night", args[0])
	}

	temperature, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid temperature %q: %w", args[1], err)
	}
	if temperature < 5 || temperature > 35 {
		return fmt.Errorf("temperature %.1f out of range (5-35)", temperature)
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := c.RequestSetpointChange(ctx, kind, temperature); err != nil {
		return fmt.Errorf("failed to set %s setpoint: %w", kind, err)
	}

	fmt.Printf("%s setpoint set to %.1f C\n", kind, temperature)
	return nil
}

// watchCmd shows a live full-screen view of the readings
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch live readings in a full-screen view",
	Long: `Watch plant and thermostat readings in a full-screen terminal view.

The view refreshes automatically at the poll interval and can be refreshed
manually with 'r'. Press 'q' to quit.`,
	Example: `  # Watch with the default 30 second refresh
  ecomax-ctl watch --host 192.168.1.50

  # Faster refresh
  ecomax-ctl watch --host 192.168.1.50 --interval 10`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchSeconds, "interval", 0, "Refresh interval in seconds (default 30)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch requires an interactive terminal; use 'data --format json' for scripting")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	interval := cfg.Monitor.PollInterval()
	if watchSeconds > 0 {
		interval = time.Duration(watchSeconds) * time.Second
	}

	return watch.Run(c, c.Addr(), interval)
}

// printValues renders decoded values in the selected output format.
// Detailed output follows the registry field order; JSON emits a flat
// object keyed by field name.
func printValues(values protocol.Values, kind protocol.FrameKind, title string) error {
	switch outputFormat {
	case "json":
		out, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	case "detailed":
		fmt.Printf("%s\n%s\n", title, strings.Repeat("-", len(title)))
		for _, spec := range protocol.FieldsFor(kind) {
			value, ok := values[spec.Key]
			if !ok {
				continue
			}
			fmt.Printf("  %-22s %s\n", spec.Key, formatValue(spec.Key, value))
		}
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be detailed or json", outputFormat)
	}
}

func formatValue(key string, value protocol.Value) string {
	if key == "mode" {
		if code, ok := value.Int(); ok {
			return protocol.ModeName(code)
		}
	}
	if b, ok := value.Bool(); ok {
		if b {
			return "yes"
		}
		return "no"
	}
	if value.Type == protocol.Float32 {
		f, _ := value.Float64()
		return fmt.Sprintf("%.1f °C", f)
	}
	return value.String()
}
