package elastic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResponseError is a non-2xx answer from the cluster.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Detail returns the cluster's reason text.
func (e *ResponseError) Detail() string { return e.Reason }

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func parseResponseError(status int, body []byte) *ResponseError {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var cause errorCause
		if err := json.Unmarshal(envelope.Error, &cause); err == nil && cause.Reason != "" {
			return &ResponseError{Status: status, Type: cause.Type, Reason: cause.Reason}
		}
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err == nil {
			return &ResponseError{Status: status, Reason: msg}
		}
	}
	return &ResponseError{Status: status, Reason: strings.TrimSpace(string(body))}
}
