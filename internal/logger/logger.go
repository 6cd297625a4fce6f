// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"

	// Output defaults to os.Stderr
	Output io.Writer
}

// NewLogger creates a configured slog.Logger.
func NewLogger(cfg Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		// Add a source location for debug and error levels
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level.
// Valid values: DEBUG, INFO, WARN, WARNING, ERROR (case-insensitive).
// Unknown or empty names return fallback.
func ParseLevel(name string, fallback slog.Level) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return fallback
	}
}

// DefaultConfig returns the default logger configuration.
// Parses the MOODTUNE_LOG_LEVEL environment variable to set the log level.
// Default: INFO
func DefaultConfig() Config {
	return Config{
		Level:  ParseLevel(os.Getenv("MOODTUNE_LOG_LEVEL"), slog.LevelInfo),
		Format: "text",
	}
}
