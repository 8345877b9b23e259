package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func testPolicy(attempts int) Policy {
	return Policy{
		Name:            "test",
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Retryable: func(err error) bool {
			return errors.Is(err, errTransient)
		},
	}
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	calls := 0

	err := testPolicy(3).Do(context.Background(), func() error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0

	err := testPolicy(3).Do(context.Background(), func() error {
		calls++
		return errFatal
	})

	assert.Same(t, errFatal, err)
	assert.Equal(t, 1, calls)
}

func TestDoReturnsAfterRecovery(t *testing.T) {
	calls := 0

	err := testPolicy(5).Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoWithoutPredicateCallsOnce(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 4}

	err := policy.Do(context.Background(), func() error {
		calls++
		return errTransient
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testPolicy(5).Do(ctx, func() error {
		calls++
		return errTransient
	})

	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestCall(t *testing.T) {
	calls := 0

	value, err := Call(context.Background(), testPolicy(3), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 2, calls)
}

func TestStatusRetryable(t *testing.T) {
	assert.True(t, StatusRetryable(429))
	assert.True(t, StatusRetryable(500))
	assert.True(t, StatusRetryable(503))
	assert.False(t, StatusRetryable(400))
	assert.False(t, StatusRetryable(404))
	assert.False(t, StatusRetryable(200))
}
