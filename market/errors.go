package market

import "fmt"

// FailureClass classifies terminal upstream call failures.
type FailureClass string

const (
	// Unauthorized triggers one forced token refresh and one replay of the
	// call; a second Unauthorized is terminal.
	Unauthorized FailureClass = "unauthorized"
	// RateLimited, ServerError and Timeout are retried with exponential
	// backoff up to the configured attempt bound.
	RateLimited FailureClass = "rate_limited"
	ServerError FailureClass = "server_error"
	Timeout     FailureClass = "timeout"
	// Malformed responses are terminal immediately.
	Malformed FailureClass = "malformed"
)

// FetchError is a classified failure of one upstream call attempt.
type FetchError struct {
	Endpoint   string
	Class      FailureClass
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Endpoint, e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Class, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether a later attempt of the same call may succeed.
func (e *FetchError) Retryable() bool {
	switch e.Class {
	case RateLimited, ServerError, Timeout:
		return true
	}
	return false
}

// Classification implements the pipeline error classifier.
func (e *FetchError) Classification() string { return string(e.Class) }

// HTTPStatus implements the pipeline error classifier.
func (e *FetchError) HTTPStatus() int { return e.StatusCode }

// classifyStatus maps a non-2xx response code onto a failure class. Codes
// outside the documented taxonomy are treated as server errors.
func classifyStatus(code int) FailureClass {
	switch {
	case code == 401 || code == 403:
		return Unauthorized
	case code == 429:
		return RateLimited
	default:
		return ServerError
	}
}
