// Ecomax-monitor polls an ecoMAX 360 heating controller and serves the
// readings over HTTP and WebSocket.
//
// It reads its settings from the config file (~/.config/ecomax/config.yaml),
// polls the controller at the configured interval, and exposes:
//
//	GET /values   latest snapshot as JSON
//	GET /healthz  liveness and staleness check
//	GET /ws       WebSocket snapshot stream
//
// The process runs until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lormic/ecomax360/internal/client"
	"github.com/lormic/ecomax360/internal/config"
	"github.com/lormic/ecomax360/internal/logging"
	"github.com/lormic/ecomax360/internal/poller"
	"github.com/lormic/ecomax360/internal/server"
	"github.com/lormic/ecomax360/internal/version"
)

var (
	monitorHost  string
	monitorPort  int
	listenAddr   string
	pollSeconds  int
	logLevelFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ecomax-monitor",
	Short: "ecoMAX 360 polling monitor",
	Long: `A monitoring daemon for ecoMAX 360 heating controllers.

Polls the controller over its TCP serial bridge at a fixed interval and
serves the latest readings over HTTP (/values, /healthz) and a WebSocket
stream (/ws). Settings come from the config file, overridable by flags.`,
	Version: version.Version,
	RunE:    runMonitor,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&monitorHost, "host", "", "Serial bridge IP address (overrides config file)")
	rootCmd.Flags().IntVar(&monitorPort, "port", 0, "Serial bridge TCP port (default 8899)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (default :8080)")
	rootCmd.Flags().IntVar(&pollSeconds, "interval", 0, "Poll interval in seconds (default 30)")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	if err := logging.InitializeWithFile(level, cfg.Log.File); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	host := monitorHost
	if host == "" {
		host = cfg.Device.Host
	}
	if host == "" {
		return fmt.Errorf("no device address: use --host or set device.host in the config file")
	}

	port := monitorPort
	if port == 0 {
		port = cfg.Device.Port
	}

	addr := listenAddr
	if addr == "" {
		addr = cfg.Monitor.ListenAddr
	}

	interval := cfg.Monitor.PollInterval()
	if pollSeconds > 0 {
		interval = time.Duration(pollSeconds) * time.Second
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := logging.GetLogger()
	log.Info("starting monitor",
		zap.String("version", version.Full()),
		zap.String("device", host),
		zap.Int("port", port),
		zap.String("listen", addr),
		zap.Duration("interval", interval))

	c := client.New(host, port, client.WithTimeout(cfg.Device.Timeout()))
	p := poller.New(c, interval)

	go p.Run(ctx)

	if err := server.New(addr, p).Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("monitor stopped")
	return nil
}
