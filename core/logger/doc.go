// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance for both the command line (console
// encoding, colored levels) and the HTTP control surface (JSON encoding).
//
// # Context Awareness
//
// Two helpers attach correlation fields:
//   - WithRayID extracts the RayID from a Fiber context (HTTP requests).
//   - WithRun tags every line emitted by one sync run with its run id.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Sync started")
//
//	l := logger.WithRun(log, runID)
//	l.Error("Sync failed", zap.Error(err))
package logger
