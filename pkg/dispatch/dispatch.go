package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"github.com/travigo/cta-train-analytics/pkg/retry"
	"github.com/travigo/cta-train-analytics/pkg/trainstatus"
)

const ResponseBody = "Processed all train lines"

// Publisher is the part of an rmq queue the dispatcher needs
type Publisher interface {
	PublishBytes(payload ...[]byte) error
}

// Dispatcher publishes one trigger message per train line
type Dispatcher struct {
	Queue       Publisher
	Lines       []ctdf.TrainLine
	Retry       retry.Policy
	Parallelism int
	Logger      zerolog.Logger
}

func NewDispatcher(queue Publisher, lines []ctdf.TrainLine, logger zerolog.Logger) *Dispatcher {
	logger = logger.With().Str("component", "dispatcher").Logger()

	return &Dispatcher{
		Queue: queue,
		Lines: lines,
		Retry: retry.Policy{
			Name:            "publish-trigger",
			MaxAttempts:     3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Retryable:       PublishRetryable,
			Logger:          logger,
		},
		Parallelism: 4,
		Logger:      logger,
	}
}

// Dispatch publishes every line even when some fail and returns how many
// were published along with the joined errors of the rest
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	parallelism := d.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	var published atomic.Int64
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(parallelism)

	for _, line := range d.Lines {
		p.Go(func(ctx context.Context) error {
			body, err := trainstatus.EncodeTrigger(line)
			if err != nil {
				return err
			}

			err = d.Retry.Do(ctx, func() error {
				return d.Queue.PublishBytes(body)
			})
			if err != nil {
				d.Logger.Error().Err(err).Str("line", line.Name).Msg("Failed to publish trigger")
				return fmt.Errorf("publish %s: %w", line.Name, err)
			}

			published.Add(1)
			d.Logger.Debug().Str("line", line.Name).Str("abbrev", line.Code).Msg("Published trigger")

			return nil
		})
	}

	err := p.Wait()
	d.Logger.Info().Int64("published", published.Load()).Int("lines", len(d.Lines)).Msg("Dispatched train lines")

	return int(published.Load()), err
}

// PublishRetryable treats everything except redis reply errors and cancellation as a connection problem
func PublishRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var replyErr redis.Error
	return !errors.As(err, &replyErr)
}
