package stream

import (
	"context"
	"io"
	"iter"
)

// Snapshots ingests body lazily, yielding the accumulated text after every
// content frame. When the session fails, the final pair carries an empty
// string and the terminal error. Breaking out of the loop abandons the
// session: body is closed and the session fails with ErrCanceled.
func (s *Session) Snapshots(ctx context.Context, body io.ReadCloser) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		obs := ObserverFuncs{
			Progress: func(text string) {
				if stopped {
					return
				}
				if !yield(text, nil) {
					stopped = true
					cancel()
				}
			},
		}

		if err := s.Ingest(ctx, body, obs); err != nil && !stopped {
			yield("", err)
		}
	}
}
