// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New creates a JSON structured logger that writes to stdout.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
