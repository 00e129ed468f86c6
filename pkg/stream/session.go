// Package stream consumes a summary stream: an SSE byte stream whose "data:"
// payloads are either escaped summary text or one of two control sentinels.
//
// A Session reassembles frames across arbitrary read boundaries, accumulates
// content, and ends in exactly one terminal state. Rendering is left to the
// caller, which subscribes through an Observer or the Snapshots iterator.
package stream

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/skim/pkg/sse"
)

// Session is the state of one summary stream.
//
//	ACTIVE --content--> ACTIVE
//	ACTIVE --[DONE]--> DONE
//	ACTIVE --[ERROR], EOF, read failure, cancel--> FAILED
//
// Once terminal, a Session never processes another byte and its text is
// frozen. Accessors are safe to call from other goroutines while Ingest runs.
type Session struct {
	opts options

	mu        sync.Mutex
	state     State
	text      strings.Builder
	err       error
	frames    int
	ingesting bool
}

// NewSession returns an active session with a fresh identity.
func NewSession(opts ...Option) *Session {
	return &Session{
		opts:  newOptions(opts),
		state: StateActive,
	}
}

// Ingest creates a session and consumes body with it. The session is
// returned even on failure so callers can inspect partial text.
func Ingest(ctx context.Context, body io.ReadCloser, obs Observer, opts ...Option) (*Session, error) {
	s := NewSession(opts...)
	return s, s.Ingest(ctx, body, obs)
}

// ID returns the session identity.
func (s *Session) ID() uuid.UUID {
	return s.opts.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the text accumulated so far. When the session failed the
// text is partial and must not be treated as a finished summary.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Err returns the terminal error of a failed session, nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Frames returns the number of frames processed.
func (s *Session) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Ingest reads body until the session reaches a terminal state. It returns
// nil when the done sentinel arrives and the terminal error otherwise; that
// same error is passed to obs.OnError exactly once. body is closed on every
// return path. Cancelling ctx closes body to unblock a pending read and
// fails the session with ErrCanceled.
//
// Calling Ingest on a terminal session returns ErrSessionClosed and leaves
// the session untouched.
func (s *Session) Ingest(ctx context.Context, body io.ReadCloser, obs Observer) error {
	if body == nil {
		return ErrNilBody
	}
	defer body.Close()

	s.mu.Lock()
	switch {
	case s.state.Terminal():
		s.mu.Unlock()
		return ErrSessionClosed
	case s.ingesting:
		s.mu.Unlock()
		return ErrIngestInProgress
	}
	s.ingesting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.ingesting = false
		s.mu.Unlock()
	}()

	if obs == nil {
		obs = ObserverFuncs{}
	}

	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	if s.opts.recorder != nil {
		s.opts.recorder.SessionStarted()
	}
	start := time.Now()

	err := s.consume(ctx, body, obs)

	elapsed := time.Since(start)
	state, frames := s.State(), s.Frames()
	if s.opts.recorder != nil {
		s.opts.recorder.SessionFinished(state, Reason(err), frames, elapsed)
	}

	log := s.opts.logger.With(
		"session_id", s.ID().String(),
		"frames", frames,
		"duration", elapsed,
	)
	if err != nil {
		log.Warn("summary stream failed", "reason", Reason(err), "error", err)
	} else {
		log.Debug("summary stream complete", "chars", len(s.Text()))
	}

	return err
}

func (s *Session) consume(ctx context.Context, body io.Reader, obs Observer) error {
	readerOpts := []sse.ReaderOption{sse.WithMaxFrameSize(s.opts.maxFrameSize)}
	if s.opts.tee != nil {
		readerOpts = append(readerOpts, sse.WithTee(s.opts.tee))
	}
	reader := sse.NewReader(body, readerOpts...)

	for {
		if err := ctx.Err(); err != nil {
			return s.fail(obs, canceled(err))
		}

		frame, err := reader.Next()
		if err != nil {
			// A read unblocked by the cancel hook looks like a transport
			// failure; report it as the cancellation it is.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.fail(obs, canceled(ctxErr))
			}
			return s.fail(obs, &TransportError{Err: err})
		}

		if frame == nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.fail(obs, canceled(ctxErr))
			}
			if n := reader.Discarded(); n > 0 {
				s.opts.logger.Debug("discarded unterminated sse frame",
					"session_id", s.ID().String(),
					"bytes", n,
				)
			}
			return s.fail(obs, ErrIncompleteStream)
		}

		done, err := s.apply(frame, obs)
		if err != nil || done {
			return err
		}
	}
}

// apply interprets the data lines of one frame in order. Content lines are
// accumulated and reported with a single progress callback; a sentinel ends
// the session after any content that preceded it in the frame is reported.
func (s *Session) apply(frame *sse.Frame, obs Observer) (bool, error) {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()

	if frame.Ignored > 0 {
		s.opts.logger.Debug("ignored unrecognized sse lines",
			"session_id", s.ID().String(),
			"lines", frame.Ignored,
		)
	}

	pending := false
	for _, payload := range frame.Data {
		kind, msg := classify(payload)
		switch kind {
		case payloadDone:
			if pending {
				s.progress(obs)
			}
			s.finish(StateDone, nil)
			return true, nil

		case payloadError:
			if pending {
				s.progress(obs)
			}
			return false, s.fail(obs, &ServerError{Message: msg})

		default:
			s.mu.Lock()
			s.text.WriteString(Unescape(msg))
			s.mu.Unlock()
			pending = true
		}
	}

	if pending {
		s.progress(obs)
	}
	return false, nil
}

func (s *Session) progress(obs Observer) {
	obs.OnProgress(s.Text())
}

func (s *Session) finish(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.err = err
}

func (s *Session) fail(obs Observer, err error) error {
	s.finish(StateFailed, err)
	obs.OnError(err)
	return err
}
