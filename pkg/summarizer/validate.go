package summarizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinTextLength and MaxTextLength bound the submitted text, in characters.
	MinTextLength = 10
	MaxTextLength = 50000

	maxSpecialRatio = 0.5
	maxRepeatRun    = 50
)

// ValidationError reports text rejected before any model call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateText checks submitted text and returns it trimmed. Besides length
// limits it rejects input that looks like an injection attempt: mostly
// punctuation, or one character repeated more than 50 times in a row.
func ValidateText(text string) (string, error) {
	n := utf8.RuneCountInString(text)
	switch {
	case n < MinTextLength:
		return "", invalid("Text must be at least %d characters long", MinTextLength)
	case n > MaxTextLength:
		return "", invalid("Text must be at most %d characters long", MaxTextLength)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", invalid("Text cannot be empty")
	}

	if specialRatio(text, n) > maxSpecialRatio {
		return "", invalid("Text contains excessive special characters")
	}

	if longestRun(text) > maxRepeatRun {
		return "", invalid("Text contains suspicious repeated patterns")
	}

	return trimmed, nil
}

func specialRatio(text string, n int) float64 {
	special := 0
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	return float64(special) / float64(n)
}

// longestRun returns the longest run of one repeated character. Newlines
// break runs and are never counted.
func longestRun(text string) int {
	longest, run := 0, 0
	prev := rune(-1)
	for _, r := range text {
		switch {
		case r == '\n':
			run = 0
		case r == prev:
			run++
		default:
			run = 1
		}
		prev = r
		longest = max(longest, run)
	}
	return longest
}
