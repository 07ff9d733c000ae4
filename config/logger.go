package config

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger from GO_ENV, LOG_LEVEL, and LOG_FORMAT.
// Production uses the JSON handler; LOG_FORMAT=json forces it elsewhere too.
func NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}
	if jsonOutput() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// parseLevel maps a LOG_LEVEL value to a slog.Level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func jsonOutput() bool {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		return true
	}
	return os.Getenv("GO_ENV") == "production"
}
