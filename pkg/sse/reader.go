package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

const (
	initialBufferSize = 64 * 1024

	// DefaultMaxFrameSize is the largest frame a Reader accepts before
	// failing with bufio.ErrTooLong.
	DefaultMaxFrameSize = 1024 * 1024
)

var frameDelimiter = []byte("\n\n")

// ScanFrames is a bufio.SplitFunc that yields the raw text of each frame in
// an SSE byte stream. Frames end at a blank line ("\n\n"). Bytes after the
// last delimiter are held back until more input arrives, so frame boundaries
// never depend on how the source chunks its reads. An unterminated remainder
// is never a frame, not even at EOF: the scanner stops and drops it.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, frameDelimiter); i >= 0 {
		return i + len(frameDelimiter), data[:i], nil
	}

	// Request more data, or end the scan at EOF.
	return 0, nil, nil
}

// Reader reads SSE frames from a source io.Reader. When a destination writer
// is configured every raw byte read from the source is copied to it verbatim,
// in a tee pipe fashion.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
type Reader struct {
	scanner   *bufio.Scanner
	discarded int
}

// ReaderOption configures a Reader created with NewReader.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	dest         io.Writer
	maxFrameSize int
}

// WithTee copies all raw bytes read from the source to dest.
func WithTee(dest io.Writer) ReaderOption {
	return func(c *readerConfig) {
		c.dest = dest
	}
}

// WithMaxFrameSize bounds the size of a single frame. Values <= 0 keep
// DefaultMaxFrameSize.
func WithMaxFrameSize(n int) ReaderOption {
	return func(c *readerConfig) {
		if n > 0 {
			c.maxFrameSize = n
		}
	}
}

// NewReader returns a Reader that parses SSE frames from src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	cfg := &readerConfig{maxFrameSize: DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dest != nil {
		src = io.TeeReader(src, cfg.dest)
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, min(initialBufferSize, cfg.maxFrameSize)), cfg.maxFrameSize)
	r := &Reader{scanner: scanner}
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := ScanFrames(data, atEOF)
		if atEOF && token == nil {
			r.discarded = len(data)
		}
		return advance, token, err
	})

	return r
}

// Discarded returns the size of the unterminated remainder dropped when the
// source ended, or 0.
func (r *Reader) Discarded() int {
	return r.discarded
}

// Next returns the next non-empty frame from the source. It blocks until a
// complete frame is available. Next returns nil, nil when the source is
// exhausted.
func (r *Reader) Next() (*Frame, error) {
	for r.scanner.Scan() {
		// Invalid UTF-8 is replaced rather than rejected, matching how a
		// browser TextDecoder treats a malformed response body.
		raw := strings.ToValidUTF8(r.scanner.Text(), "\uFFFD")

		f := ParseFrame(raw)
		if f.Empty() && f.Ignored == 0 {
			// Leading blank lines or keep-alive comments.
			continue
		}
		return f, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, nil
}
