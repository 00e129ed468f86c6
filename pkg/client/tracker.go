package client

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/skim/pkg/stream"
)

// Tracker keeps track of the one session whose output is current. Starting a
// new session supersedes the previous one: its context is canceled and any
// callbacks it still delivers are dropped.
//
// Guarded callbacks run one at a time, and Begin and Stop wait for a running
// callback to return, so no callback of a superseded session runs after
// Begin returns. Guarded handlers must not call back into the Tracker.
type Tracker struct {
	// emit serializes guarded callbacks with changes of the current session.
	emit sync.Mutex

	mu      sync.Mutex
	current uuid.UUID
	cancel  context.CancelFunc
}

// Begin supersedes the current session and returns the context and identity
// for the next one. Pass the ID to the session with stream.WithID.
func (t *Tracker) Begin(parent context.Context) (context.Context, uuid.UUID) {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.New()

	t.emit.Lock()
	t.mu.Lock()
	prev := t.cancel
	t.current = id
	t.cancel = cancel
	t.mu.Unlock()
	t.emit.Unlock()

	if prev != nil {
		prev()
	}
	return ctx, id
}

// Current reports whether id identifies the current session.
func (t *Tracker) Current(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id != uuid.Nil && id == t.current
}

// Stop cancels the current session, if any, leaving none current.
func (t *Tracker) Stop() {
	t.emit.Lock()
	t.mu.Lock()
	cancel := t.cancel
	t.current = uuid.Nil
	t.cancel = nil
	t.mu.Unlock()
	t.emit.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Guard wraps h so that events from superseded sessions are discarded.
func (t *Tracker) Guard(h Handler) Handler {
	return HandlerFuncs{
		Progress: func(id uuid.UUID, text string) {
			t.deliver(id, func() { h.OnProgress(id, text) })
		},
		Error: func(id uuid.UUID, err error) {
			t.deliver(id, func() { h.OnError(id, err) })
		},
		Complete: func(id uuid.UUID, text string) {
			t.deliver(id, func() { h.OnComplete(id, text) })
		},
	}
}

// deliver runs fn if id is current, holding off Begin and Stop until fn
// returns.
func (t *Tracker) deliver(id uuid.UUID, fn func()) {
	t.emit.Lock()
	defer t.emit.Unlock()
	if t.Current(id) {
		fn()
	}
}

// Start begins a tracked session on c, superseding the current one.
func (t *Tracker) Start(ctx context.Context, c *Client, text string, h Handler, opts ...stream.Option) (*stream.Session, error) {
	ctx, id := t.Begin(ctx)
	opts = append(slices.Clip(opts), stream.WithID(id))
	return c.Start(ctx, text, t.Guard(h), opts...)
}
