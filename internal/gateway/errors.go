package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// APIError is a non-2xx response from the backend. It unwraps to the
// matching core error class.
type APIError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error: %s (status: %d, endpoint: %s %s)", e.Message, e.StatusCode, e.Method, e.Endpoint)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return core.ErrAuthentication
	case e.StatusCode == http.StatusNotFound:
		return core.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return core.ErrReferentialIntegrity
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		if mentionsReference(e.Message) {
			return core.ErrReferentialIntegrity
		}
		return core.ErrValidation
	case e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500:
		return core.ErrTransientNetwork
	default:
		return nil
	}
}

// Backends word the "still referenced" rejection differently; these are
// the forms seen for accounts and categories.
var referenceHints = []string{"in use", "referenc", "associated", "foreign key", "has transactions", "vinculad", "possui transa"}

func mentionsReference(msg string) bool {
	msg = strings.ToLower(msg)
	for _, h := range referenceHints {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{core.ErrTransientNetwork, e.Err}
}

// errorMessage pulls a human message out of an error body, accepting the
// {"message": ...} and {"error": ...} shapes and falling back to raw text.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
