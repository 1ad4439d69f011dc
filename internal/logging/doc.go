// Package logging provides structured logging for pantti.
//
// This package wraps a zap logger with package-level helpers so every
// component (store, controller, hosts) logs through one configured sink.
//
// # Log Levels
//
//   - Debug: Frame noise, listener dispatch, WebSocket payloads
//   - Info: State changes, scan start/stop, lookups, connections
//   - Warn: Recoverable problems (missing mount point, unknown event target)
//   - Error: Session-fatal decode errors, lookup failures
//
// # Structured Logging
//
//	logging.Info("Lookup completed",
//	    zap.String("barcode", "6410405176692"),
//	    zap.Int("status", 2),
//	)
//
// # Configuration
//
// Logging is silent unless a level is given or PANTTI_LOG_LEVEL is set:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The terminal host owns stdout, so it logs to a file instead:
//
//	logging.InitializeToFile("info", "/tmp/pantti.log")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
