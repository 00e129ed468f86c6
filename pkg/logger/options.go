package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithFormat picks the output handler.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithOutput replaces the destination. Several writers receive the same
// bytes.
func WithOutput(w ...io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// WithComponent tags every record with component=name.
func WithComponent(name string) Option {
	return func(c *config) {
		c.component = name
	}
}

// WithSource reports the caller's file:line.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
