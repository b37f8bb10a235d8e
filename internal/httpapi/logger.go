package httpapi

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "topomap"

// NewLogger is the service logger: JSON lines on stdout.
func NewLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return newLogger(os.Stdout, parseLevel(level))
}

// NewConsoleLogger is the logger for one-shot CLI commands. Lines go to stderr in console
// format so stdout carries only command output. Unless the level was set explicitly, info
// is raised to warn to keep routine load messages off the terminal.
func NewConsoleLogger(level string, explicit bool) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, consoleLevel(level, explicit))
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", serviceName).Logger()
}

func consoleLevel(level string, explicit bool) zerolog.Level {
	lvl := parseLevel(level)
	if !explicit && lvl == zerolog.InfoLevel {
		return zerolog.WarnLevel
	}
	return lvl
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
