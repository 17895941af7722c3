// Package logging provides structured logging utilities for hwsnap components.
//
// It wraps the standard library slog package with project defaults: JSON
// output to stderr, module/version context on every record, LOG_LEVEL
// environment-based level configuration, and source location tracking for
// debug logs.
//
// Typical usage in main():
//
//	logging.SetDefaultStructuredLogger("hwsnap", version)
//	slog.Info("starting snapshot", "ttl", ttl)
//
// The LOG_LEVEL environment variable (debug, info, warn, error; default info)
// controls verbosity when no explicit level is passed.
package logging
