package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/omniprompt/internal/config"
)

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger with the
// appropriate log level, sets it as the default logger for the application,
// and returns it for explicit injection into components.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	return setup(cfg, os.Stdout)
}

// setup is the testable core of Setup, writing to the given sink.
func setup(cfg config.ServerConfig, w io.Writer) (*slog.Logger, error) {
	level, ok := parseLevel(cfg.LogLevel)
	if !ok {
		// Fall back to info rather than failing startup; the warning goes
		// through a temporary text handler since the JSON one isn't up yet.
		level = slog.LevelInfo
		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)

	// Set as default so package-level slog functions use the same sink.
	slog.SetDefault(logger)

	return logger, nil
}

// parseLevel maps a configured level string (case-insensitive) to a
// slog.Level. The second return value reports whether the string was valid.
func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
