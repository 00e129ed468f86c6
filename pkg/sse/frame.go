// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// framing layer for skim. It carves blank-line delimited frames out of an
// arbitrarily chunked byte stream, parses their fields, and offers a small
// writer for the summary producer.
//
// Field handling follows the WHATWG event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"strings"
)

// Frame represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Frame struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type.
	Type string

	// Data holds the value of every "data:" line in the frame, in order.
	Data []string

	// ID is the last event ID from the "id:" field, if present.
	ID string

	// Ignored counts lines that carried no recognized field.
	Ignored int
}

// Payload returns the concatenation of the frame's data lines.
func (f *Frame) Payload() string {
	return strings.Join(f.Data, "")
}

// Empty reports whether the frame carried no fields at all, e.g. a run of
// keep-alive newlines.
func (f *Frame) Empty() bool {
	return len(f.Data) == 0 && f.Type == "" && f.ID == ""
}

// ParseFrame parses the raw text of one frame (without its trailing blank
// line) into a Frame.
func ParseFrame(raw string) *Frame {
	f := &Frame{}
	for line := range strings.SplitSeq(raw, "\n") {
		f.parseLine(line)
	}
	return f
}

// parseLine processes a single SSE line and accumulates the field into the
// frame.
//
// A line has the form "field:value" where the first space after the colon is
// optional and stripped if present. Lines without a colon are not fields this
// package understands and are counted as ignored.
func (f *Frame) parseLine(line string) {
	if line == "" {
		return
	}

	// Lines starting with ':' are comments.
	if strings.HasPrefix(line, ":") {
		return
	}

	field, value, ok := strings.Cut(line, ":")
	if !ok {
		f.Ignored++
		return
	}
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "data":
		f.Data = append(f.Data, value)
	case "event":
		f.Type = value
	case "id":
		f.ID = value
	case "retry":
		// Reconnection is a caller concern.
	default:
		f.Ignored++
	}
}
