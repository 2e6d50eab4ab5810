// Package logging configures zerolog for the concierge process. Components
// take child loggers tagged with their name so log lines can be filtered per
// pipeline stage.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output instead of JSON
	File   string // optional log file, appended to
	Out    io.Writer
}

// Setup builds the root logger. An unknown level falls back to info. When
// File is set, lines go to both the chosen writer and the file.
func Setup(opts Options) zerolog.Logger {
	level := parseLevel(opts.Level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	if opts.File != "" {
		if f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			out = zerolog.MultiLevelWriter(out, f)
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component derives a child logger tagged with the component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
