// Package logging builds the zerolog logger of the validator command.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// New returns logger writing to w. stdout is reserved for the
// validation result, so callers pass stderr.
func New(w io.Writer, cfg Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := w
	switch cfg.Format {
	case "", "json":
	case "console":
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.Kitchen,
		}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// WithComponent returns a logger with a component tag.
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
