package util

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds a zerolog logger writing JSON, or human-readable lines when format is "console"
func NewLogger(level, format string) zerolog.Logger {
	return NewLoggerTo(os.Stderr, level, format)
}

// NewLoggerTo is NewLogger with an explicit output
func NewLoggerTo(out io.Writer, level, format string) zerolog.Logger {
	var output io.Writer = out
	if format == "console" || format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(output).
		Level(ParseLogLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLogLevel converts a level name to a zerolog.Level, defaulting to info
func ParseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
