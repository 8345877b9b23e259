package ingest

import (
	"errors"
	"fmt"
)

var ErrDeliveryExhausted = errors.New("delivery attempts exhausted")

// DeliveryExhaustedError carries the units that were still failing when the writer ran out of attempts
type DeliveryExhaustedError struct {
	Stream   string
	Attempts int
	Units    []Unit
}

func (e *DeliveryExhaustedError) Error() string {
	return fmt.Sprintf("%d records to %s still failing after %d attempts", len(e.Units), e.Stream, e.Attempts)
}

func (e *DeliveryExhaustedError) Unwrap() error {
	return ErrDeliveryExhausted
}

// SinkError is a failure of the batch call itself rather than of individual units
type SinkError struct {
	Sink      string
	Code      string
	Retryable bool
	Err       error
}

func (e *SinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s sink %s: %v", e.Sink, e.Code, e.Err)
	}
	return fmt.Sprintf("%s sink %s", e.Sink, e.Code)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

func IsRetryable(err error) bool {
	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.Retryable
	}

	return false
}
