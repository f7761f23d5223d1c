// Package logging provides structured logging configuration for netmock.
//
// This package wraps log/slog so every netmock component logs the same way.
// Interception is quiet by default: components receive logging.Nop() unless
// the caller passes a logger, and the settings file or CLI flags can raise
// the level when a test needs to see what was matched or forwarded.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	icpt := intercept.New(intercept.Config{
//	    Registry: reg,
//	    Logger:   logger,
//	})
//
// # Levels
//
// Matched and forwarded requests are logged at Debug. Requests that hit no
// mock and are not allowlisted are logged at Warn before the diagnostic error
// is returned.
//
// # Output Formats
//
//   - Text: human-readable, the default
//   - JSON: one object per line for log aggregation
package logging
