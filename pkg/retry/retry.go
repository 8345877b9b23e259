// Package retry wraps single external calls with capped exponential backoff.
//
// A Policy is applied explicitly at each call site with the predicate that
// decides which failures are transient for that call. Errors the predicate
// rejects, and the final error once attempts run out, are returned unmodified.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 10 * time.Second
)

type Policy struct {
	// Name identifies the wrapped call in log lines
	Name string

	// MaxAttempts is the total number of calls, including the first one
	MaxAttempts int

	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Retryable reports whether err is transient. A nil predicate never retries.
	Retryable func(error) bool

	Logger zerolog.Logger
}

func (p Policy) Do(ctx context.Context, operation func() error) error {
	attempt := 0

	return backoff.RetryNotify(func() error {
		attempt++

		err := operation()
		if err == nil {
			return nil
		}

		if p.Retryable == nil || !p.Retryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}, p.backOff(ctx), func(err error, delay time.Duration) {
		p.Logger.Warn().
			Err(err).
			Str("call", p.Name).
			Int("attempt", attempt).
			Int("maxattempts", p.attempts()).
			Dur("delay", delay).
			Msg("Retrying failed call")
	})
}

// Call is Do for operations that return a value
func Call[T any](ctx context.Context, p Policy, operation func() (T, error)) (T, error) {
	var result T

	err := p.Do(ctx, func() error {
		value, err := operation()
		if err != nil {
			return err
		}

		result = value
		return nil
	})

	return result, err
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}

	return p.MaxAttempts
}

func (p Policy) backOff(ctx context.Context) backoff.BackOffContext {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = defaultInitialInterval
	exponential.MaxInterval = defaultMaxInterval
	exponential.MaxElapsedTime = 0

	if p.InitialInterval > 0 {
		exponential.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exponential.MaxInterval = p.MaxInterval
	}
	exponential.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exponential, uint64(p.attempts()-1)), ctx)
}

// StatusRetryable is the HTTP status rule shared by the upstream API and the sinks: throttling and server errors
func StatusRetryable(statusCode int) bool {
	return statusCode == 429 || statusCode >= 500
}
