package trainstatus

import (
	"context"
	"errors"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog"
)

// Consumer runs the handler once per queue delivery. Successful invocations,
// including lines with no trains, are acked; every error rejects the delivery
// onto the queue's rejected list.
type Consumer struct {
	Handler *Handler
	Timeout time.Duration
	Logger  zerolog.Logger

	// Context bounds every invocation, cancelling it stops in-flight work
	Context context.Context
}

func (c *Consumer) Consume(delivery rmq.Delivery) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}

	ctx := parent
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, c.Timeout)
		defer cancel()
	}

	response, err := c.Handler.Handle(ctx, []byte(delivery.Payload()))
	if err != nil {
		event := c.Logger.Error()
		if errors.Is(err, ErrValidation) {
			event = c.Logger.Warn()
		}
		event.Err(err).Str("payload", delivery.Payload()).Msg("Train status invocation failed")

		deliveries.WithLabelValues("rejected").Inc()
		if err := delivery.Reject(); err != nil {
			c.Logger.Error().Err(err).Msg("Failed to reject delivery")
		}
		return
	}

	c.Logger.Debug().Int("status", response.StatusCode).Str("body", response.Body).Msg("Train status invocation finished")

	deliveries.WithLabelValues("acked").Inc()
	if err := delivery.Ack(); err != nil {
		c.Logger.Error().Err(err).Msg("Failed to ack delivery")
	}
}
