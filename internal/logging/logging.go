// Package logging configures the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"qrshield/internal/config"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init builds the logger from config and installs it as the slog default.
func Init(cfg config.LoggingConfig) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))
	slog.SetDefault(logger)
	return logger
}
