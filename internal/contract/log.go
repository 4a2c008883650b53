package contract

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevelEnv selects the structured log level.
const LogLevelEnv = "LOG_LEVEL"

// ParseLogLevel maps debug, info, warn and error to a slog level. Anything else is warn.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// NewLogger returns a text logger on stderr tagged with component.
// Stdout stays clean for command output and the MCP stdio transport.
func NewLogger(component string) *slog.Logger {
	return newLoggerTo(os.Stderr, component, ParseLogLevel(os.Getenv(LogLevelEnv)))
}

func newLoggerTo(w io.Writer, component string, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("component", component)
}
