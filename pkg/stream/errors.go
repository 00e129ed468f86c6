package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteStream is the failure reported when the stream ends
	// without a done or error sentinel. Text accumulated up to that point
	// is a truncated summary.
	ErrIncompleteStream = errors.New("incomplete stream: server closed the connection before the summary finished")

	// ErrCanceled is the failure reported when the caller abandons a session
	// through its context. It is joined with the context's own error.
	ErrCanceled = errors.New("stream canceled")

	// ErrSessionClosed is returned when Ingest is called on a session that
	// already reached a terminal state.
	ErrSessionClosed = errors.New("stream session already finished")

	// ErrIngestInProgress is returned when Ingest is called while another
	// Ingest on the same session is still running.
	ErrIngestInProgress = errors.New("stream session is already being ingested")

	// ErrNilBody is returned when Ingest is given no stream to read.
	ErrNilBody = errors.New("stream body is nil")
)

// TransportError reports a failure reading the byte stream itself: a
// dropped connection, a reset, or an oversized frame.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reading summary stream: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is a failure signaled by the producer with an error sentinel.
// Message is the producer's text, verbatim.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// UserMessage renders a terminal session error for display to an end user.
// Server messages pass through untouched; other kinds map to fixed text.
func UserMessage(err error) string {
	var serverErr *ServerError
	var transportErr *TransportError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &serverErr):
		return serverErr.Message
	case errors.As(err, &transportErr):
		return "Lost connection to the summary service. Please try again."
	case errors.Is(err, ErrIncompleteStream):
		return "The summary ended unexpectedly and may be incomplete. Please try again."
	case errors.Is(err, ErrCanceled):
		return "Summary canceled."
	default:
		return err.Error()
	}
}

// Reason returns a short, stable label for how a session ended, suitable for
// metrics and logs.
func Reason(err error) string {
	var serverErr *ServerError
	var transportErr *TransportError

	switch {
	case err == nil:
		return "done"
	case errors.As(err, &serverErr):
		return "server_error"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, ErrIncompleteStream):
		return "incomplete"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	default:
		return "unknown"
	}
}

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
