package sse

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

// ContentType is the MIME type of an SSE response.
const ContentType = "text/event-stream"

// ErrWriterClosed is returned by a Writer after Close.
var ErrWriterClosed = errors.New("sse: writer closed")

// flusher matches both bufio.Writer and writers that flush without error.
type flusher interface {
	Flush() error
}

// Writer emits SSE frames to an underlying io.Writer, flushing after every
// frame when the writer supports it.
type Writer struct {
	w      io.Writer
	frames int
	closed bool
}

// NewWriter returns a Writer that writes frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteData writes payload as one frame. A payload containing newlines is
// split over several "data:" lines.
func (w *Writer) WriteData(payload string) error {
	var b strings.Builder
	for line := range strings.SplitSeq(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return w.write(b.String())
}

// WriteComment writes a comment frame, typically used as a keep-alive.
func (w *Writer) WriteComment(text string) error {
	return w.write(": " + text + "\n\n")
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close marks the writer closed. It does not close the underlying writer.
func (w *Writer) Close() error {
	w.closed = true
	return nil
}

func (w *Writer) write(s string) error {
	if w.closed {
		return ErrWriterClosed
	}

	if _, err := io.WriteString(w.w, s); err != nil {
		return err
	}
	w.frames++

	switch f := w.w.(type) {
	case flusher:
		return f.Flush()
	case http.Flusher:
		f.Flush()
	}
	return nil
}
