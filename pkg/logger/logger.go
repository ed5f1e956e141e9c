// Package logger builds the process-wide zerolog logger for the
// scheduling binaries.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls log output. Level is a zerolog level name (debug, info,
// warn, error); anything unparseable falls back to info. Pretty switches
// from JSON to the console writer for local development.
type Config struct {
	Level  string
	Pretty bool
	Output io.Writer
}

// New returns a logger configured per cfg. Callers typically assign the
// result to zerolog's global log.Logger.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
