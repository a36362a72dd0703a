package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/lunastream/internal/config"
)

// SetupLogger builds the application logger. With a log file configured it writes
// JSON lines to that file; otherwise it writes text to stderr. The returned closer
// releases the file and is never nil.
func SetupLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	level := parseLogLevel(cfg.Level)

	if cfg.File == "" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(handler), io.NopCloser(nil), nil
	}

	// Ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})
	return slog.New(handler), logFile, nil
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
