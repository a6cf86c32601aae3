package client

import (
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx response from the leaderboard service.
type HTTPError struct {
	StatusCode int
	Message    string // the "error" field of the body, when present
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lilyhop: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("lilyhop: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsValidation returns true when the service rejected the submission.
func (e *HTTPError) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsUnauthorized returns true when the submit token was missing or wrong.
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsRetryable returns true for rate limits (429) and server errors (5xx).
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// TransportError wraps a failure to reach the service at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lilyhop: http request: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
