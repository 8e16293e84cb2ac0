package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog. Debug records are kept
// outside production.
func New(environment string) *slog.Logger {
	level := slog.LevelDebug
	if environment == "production" || environment == "prod" {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "didgate")
}
