package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is returned when the summary service answers with a non-2xx
// status instead of a stream.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("summary service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("summary service returned %d: %s", e.StatusCode, e.Detail)
}

// newStatusError extracts a human readable detail from an error body. Both
// {"detail": "..."} and {"error": "..."} bodies are understood, as is a
// validation detail list of {"msg": "..."} objects.
func newStatusError(status int, body []byte) *StatusError {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}

	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case len(payload.Detail) > 0:
			detail = decodeDetail(payload.Detail)
		case payload.Error != "":
			detail = payload.Error
		}
	}

	return &StatusError{StatusCode: status, Detail: detail}
}

func decodeDetail(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return string(raw)
}
