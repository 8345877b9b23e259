package cta

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/travigo/cta-train-analytics/pkg/retry"
)

// ErrMissingRoute means the positions payload had no route entry, which only
// happens when the upstream contract has changed
var ErrMissingRoute = errors.New("positions response has no route")

type HTTPStatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s for %s", e.Status, e.URL)
}

// UpstreamError carries the error the Train Tracker API reported inside an otherwise successful response
type UpstreamError struct {
	Code    string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("train tracker error %s (%s): %v", e.Code, e.Message, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsRetryable treats throttling, server errors and network failures as transient
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return retry.StatusRetryable(statusErr.StatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
