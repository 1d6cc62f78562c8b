// Package logging installs the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
)

// Setup makes a JSON handler at the given level the default logger.
func Setup(w io.Writer, level slog.Leveler) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
