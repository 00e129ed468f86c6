// Package logger builds the *slog.Logger values used across skim. The
// handler behind a logger follows its Format: charmbracelet/log for people
// at a terminal, slog's JSON handler for services and log files, and slog's
// text handler otherwise.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Format selects the handler a logger writes through.
type Format int

const (
	FormatText Format = iota
	FormatPretty
	FormatJSON
)

// FormatAuto is accepted by ParseFormat and resolved by the caller,
// usually to FormatPretty on a terminal and FormatJSON elsewhere.
const FormatAuto = "auto"

func (f Format) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// ParseFormat parses a --log-format value. ok is false for "auto" (or the
// empty string), which leaves the choice to the caller.
func ParseFormat(s string) (f Format, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatAuto:
		return FormatText, false, nil
	case "text":
		return FormatText, true, nil
	case "pretty":
		return FormatPretty, true, nil
	case "json":
		return FormatJSON, true, nil
	default:
		return FormatText, false, fmt.Errorf("unknown log format %q (want auto, pretty, json or text)", s)
	}
}

type config struct {
	level     slog.Level
	format    Format
	source    bool
	component string
	out       []io.Writer
}

// New builds a logger from opts. The zero configuration logs text at Info
// level to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}

	w := io.Writer(os.Stdout)
	if len(c.out) == 1 {
		w = c.out[0]
	} else if len(c.out) > 1 {
		w = io.MultiWriter(c.out...)
	}

	l := slog.New(c.handler(w))
	if c.component != "" {
		l = l.With("component", c.component)
	}
	return l
}

func (c *config) handler(w io.Writer) slog.Handler {
	if c.format == FormatPretty {
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
	}

	opts := &slog.HandlerOptions{Level: c.level, AddSource: c.source}
	if c.format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
