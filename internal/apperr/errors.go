// Package apperr defines the error taxonomy shared by the client, cache,
// and gateway layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates the requested resource does not exist upstream.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the upstream rejected the bearer credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoCredential indicates an operation requiring a session was attempted
	// without a stored credential.
	ErrNoCredential = errors.New("no credential stored")
)

// Status is a non-2xx upstream response carried as an error. Body holds the
// raw response text for UI-level reporting.
type Status struct {
	Code int
	Body string
}

func (s *Status) Error() string {
	if s.Body == "" {
		return fmt.Sprintf("upstream status %d", s.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", s.Code, s.Body)
}

// Unwrap maps 401 and 404 onto their sentinel errors so callers can use
// errors.Is without inspecting codes.
func (s *Status) Unwrap() error {
	switch s.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// Status error.
func StatusCode(err error) int {
	var s *Status
	if errors.As(err, &s) {
		return s.Code
	}
	return 0
}

// Retryable reports whether a failed request may be retried. Transport
// errors and 5xx responses are assumed transient. Client errors are final:
// retrying a 4xx is never correct, except 408 and 429 which signal a
// transient condition.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var s *Status
	if !errors.As(err, &s) {
		// No status attached: the request never produced a response.
		return true
	}
	switch s.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	default:
		return s.Code >= 500
	}
}
