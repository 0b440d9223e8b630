// Package logging provides the zerolog-based run log for folio. Output is a
// human-readable console stream when stderr is a terminal and JSON lines
// otherwise.
//
//	log := logging.New(logging.Config{Level: "debug"})
//	log.Warn().Str("record", name).Str("image", ref).Msg("image not found")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Standard field names shared by every component.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldRecord    = "record"
	FieldImage     = "image"
	FieldPath      = "path"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error, disabled.
	Level string

	// Format is auto, console, or json. Auto picks console for terminals.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer

	// NoColor disables ANSI colors in console mode.
	NoColor bool
}

var defaultLogger = New(Config{Level: envOr("FOLIO_LOG_LEVEL", "info"), Format: envOr("FOLIO_LOG_FORMAT", "auto")})

// Nop discards all output.
var Nop = zerolog.Nop()

// New creates a logger from cfg.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal(out) {
			format = "console"
		}
	}

	var w io.Writer = out
	if format == "console" || format == "pretty" {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}

	level := ParseLevel(cfg.Level)
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// Component returns a child of logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str(FieldComponent, name).Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall back
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
