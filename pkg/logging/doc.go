// Package logging provides structured logging for gpumon.
//
// It wraps the standard library slog package with project defaults: JSON
// records written to stderr (stdout is reserved for the frame stream),
// module/version context on every record, and LOG_LEVEL environment based
// level configuration.
//
// Set the default logger early in main:
//
//	logging.SetDefaultStructuredLoggerWithLevel("gpumon", version, "info")
//	slog.Info("starting", "period", period)
//
// Supported levels (case-insensitive): debug, info, warn, error. Debug
// records include source location.
package logging
