package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting the dependency.
var ErrCircuitOpen = errors.New("circuit breaker open")

// DependencyError is a failed call to an upstream dependency. Retryable
// marks failures worth another attempt (timeouts, 5xx, rate limiting);
// everything else is permanent for the current request.
type DependencyError struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *DependencyError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// NewHTTPError builds a DependencyError from an HTTP status.
func NewHTTPError(op string, status int, err error) *DependencyError {
	return &DependencyError{
		Op:         op,
		StatusCode: status,
		Retryable:  status >= http.StatusInternalServerError || status == http.StatusTooManyRequests,
		Err:        err,
	}
}

// IsRetryable reports whether a failure is transient: network timeouts,
// context deadlines, and DependencyErrors flagged retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var depErr *DependencyError
	if errors.As(err, &depErr) {
		return depErr.Retryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
