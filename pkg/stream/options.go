package stream

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/skim/pkg/logger"
)

// Recorder is notified when sessions start and finish. pkg/metrics provides
// the Prometheus implementation.
type Recorder interface {
	SessionStarted()
	SessionFinished(state State, reason string, frames int, elapsed time.Duration)
}

// Option configures a Session created with NewSession.
type Option func(*options)

type options struct {
	id           uuid.UUID
	logger       *slog.Logger
	tee          io.Writer
	maxFrameSize int
	recorder     Recorder
}

func newOptions(opts []Option) options {
	o := options{
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}
	return o
}

// WithID overrides the generated session identity.
func WithID(id uuid.UUID) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithLogger sets the logger used for session diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTee copies every raw byte read from the stream to w, e.g. to record a
// transcript of the wire traffic.
func WithTee(w io.Writer) Option {
	return func(o *options) {
		o.tee = w
	}
}

// WithMaxFrameSize bounds the size of a single SSE frame.
func WithMaxFrameSize(n int) Option {
	return func(o *options) {
		o.maxFrameSize = n
	}
}

// WithRecorder reports session lifecycle events to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}
