package application

import "log/slog"

// ResolveLogger returns the given logger, or slog.Default when nil, so use
// cases and workers never have to nil-check before logging.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
