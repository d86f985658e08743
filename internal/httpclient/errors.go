package httpclient

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// maxSnippet bounds how much of a response body is kept on errors.
const maxSnippet = 500

// StatusError is returned for a non-2xx response, after retries when the
// status was retryable.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, snippet([]byte(e.Body)))
}

// Unwrap exposes the server's Retry-After hint to the retry loop.
func (e *StatusError) Unwrap() error {
	if e.RetryAfter <= 0 {
		return nil
	}
	return &backoff.RetryAfterError{Duration: e.RetryAfter}
}

// TransportError is returned when no response could be read: dial failures,
// timeouts, resets and truncated bodies.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a 2xx body is not valid JSON.
type ParseError struct {
	Method  string
	URL     string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: response is not JSON: %v; body=%q", e.Method, e.URL, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func snippet(b []byte) string {
	if len(b) > maxSnippet {
		b = b[:maxSnippet]
	}
	return string(b)
}
