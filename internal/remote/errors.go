package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for the taxonomy of spec §7. Implementations wrap one of
// these in *APIError; callers use errors.Is against the sentinel.
var (
	ErrAuth               = errors.New("remote: authentication failed")
	ErrForbidden          = errors.New("remote: forbidden")
	ErrNotFound           = errors.New("remote: not found")
	ErrConflict           = errors.New("remote: conflict")
	ErrRateLimited        = errors.New("remote: rate limited")
	ErrNetwork            = errors.New("remote: network error")
	ErrServer             = errors.New("remote: server error")
	ErrValidation         = errors.New("remote: validation failed")
	ErrMaxRetriesExceeded = errors.New("remote: max retries exceeded")
)

// APIError wraps a classified failure from an HTTP call, carrying enough
// context to form a useful message and to compute a retry delay.
type APIError struct {
	Kind       error
	StatusCode int
	Method     string
	URL        string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error { return e.Kind }

// classifyStatus maps an HTTP status code to a taxonomy sentinel.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status >= 500:
		return ErrServer
	default:
		return ErrServer
	}
}

// Retryable reports whether the retry policy of spec §4.9/§7 allows a retry
// for this error: RateLimited, Network, and Server are retryable; Auth,
// Forbidden, NotFound, Conflict, and Validation are not.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrNetwork), errors.Is(err, ErrServer):
		return true
	default:
		return false
	}
}
