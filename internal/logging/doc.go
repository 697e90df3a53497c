// Package logging provides structured logging for the ecoMAX tools.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the CLI and the monitor daemon. It provides both
// general logging functions and specialized functions for protocol-level
// logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (frame hex dumps, scanner resyncs)
//   - Info: Normal operations (connections, exchanges, poll cycles)
//   - Warn: Non-fatal issues (dropped poll cycles, retries)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("exchange completed",
//	    zap.String("command", "GET_THERMOSTAT"),
//	    zap.Int("values", 7),
//	)
//
// # Frame Logging
//
// Wire frames can be dumped at debug level to inspect exactly what crosses
// the socket:
//
//	logging.LogFrame("sending frame", frame)
//	logging.LogRawBytes("unparsed tail", scanner.Pending())
//
// # Configuration
//
// Logging is silent unless a level is set, either explicitly or through the
// ECOMAX_LOG_LEVEL environment variable:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The monitor daemon additionally mirrors output to a rotating log file:
//
//	logging.InitializeWithFile("info", "/var/log/ecomax/monitor.log")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
