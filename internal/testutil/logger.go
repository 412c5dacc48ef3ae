package testutil

import "log/slog"

// DiscardLogger returns a slog.Logger that discards all output.
// Use this in tests to reduce noise; log.Logger is an alias for
// *slog.Logger, so it satisfies both.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
