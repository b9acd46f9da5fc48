// Package telemetry provides structured logging and metrics for faultdrill.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	// Format is console or json.
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
	// Output is stderr, stdout or a file path.
	Output string `yaml:"output"`
}

// DefaultLoggingConfig logs warnings and errors to stderr in console form.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: "warn", Format: "console", Output: "stderr"}
}

// NewLogger builds a logger from cfg. Components derive children with
// logger.With().Str("component", name).
func NewLogger(cfg LoggingConfig) (zerolog.Logger, error) {
	var w io.Writer
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("open log file: %w", err)
		}
		w = f
	}
	return newLogger(w, cfg), nil
}

func newLogger(w io.Writer, cfg LoggingConfig) zerolog.Logger {
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(cfg.Level))
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
