package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrMalformedResponse reports a response with no usable text.
var ErrMalformedResponse = errors.New("llmclient: malformed response")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// RateLimitError is returned when the provider throttles the caller.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}
func (e *RateLimitError) Unwrap() error { return e.Err }

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindCanceled    ErrorKind = "canceled"
	KindRateLimited ErrorKind = "rate_limited"
	KindMalformed   ErrorKind = "malformed_response"
	KindUnavailable ErrorKind = "unavailable"
)

// Classify maps a provider error onto an ErrorKind.
func Classify(err error) ErrorKind {
	var rl *RateLimitError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &rl):
		return KindRateLimited
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	default:
		return KindUnavailable
	}
}
