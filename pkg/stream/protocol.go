package stream

import "strings"

// Control sentinels carried in-band in "data:" payloads. Everything else is
// summary content.
const (
	// DoneSentinel marks successful completion of a summary stream.
	DoneSentinel = "[DONE]"

	// ErrorSentinelPrefix precedes a human-readable failure message.
	ErrorSentinelPrefix = "[ERROR] "

	errorMarker = "[ERROR]"
)

type payloadKind int

const (
	payloadContent payloadKind = iota
	payloadDone
	payloadError
)

// classify maps one data payload onto the control protocol. For error
// payloads the returned string is the message after the prefix.
func classify(payload string) (payloadKind, string) {
	switch {
	case payload == DoneSentinel:
		return payloadDone, ""
	case strings.HasPrefix(payload, ErrorSentinelPrefix):
		return payloadError, payload[len(ErrorSentinelPrefix):]
	case payload == errorMarker:
		return payloadError, ""
	default:
		return payloadContent, payload
	}
}

// Escape encodes real newlines as the two-character sequence `\n` so content
// can travel inside a single "data:" line.
func Escape(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// ErrorPayload builds the payload of an error sentinel frame.
func ErrorPayload(message string) string {
	return ErrorSentinelPrefix + message
}
