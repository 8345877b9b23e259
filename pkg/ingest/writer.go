package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"github.com/travigo/cta-train-analytics/pkg/retry"
)

// Writer delivers records to a Sink, resubmitting only the records the sink
// reports as failed.
//
// There are two independent retry layers. Transport retries the batch call
// itself when it errors. The attempt loop in DeliverUnits handles calls that
// succeeded but rejected some of the records inside them.
type Writer struct {
	Sink      Sink
	Stream    string
	Transport retry.Policy
	Logger    zerolog.Logger
}

func NewWriter(sink Sink, stream string, logger zerolog.Logger) *Writer {
	logger = logger.With().Str("component", "ingest-writer").Str("stream", stream).Logger()

	return &Writer{
		Sink:   sink,
		Stream: stream,
		Transport: retry.Policy{
			Name:            "put-record-batch",
			MaxAttempts:     3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Retryable:       IsRetryable,
			Logger:          logger,
		},
		Logger: logger,
	}
}

func (w *Writer) Deliver(ctx context.Context, records []ctdf.TrainLocation, maxAttempts int) error {
	units, err := NewUnits(records)
	if err != nil {
		return err
	}

	return w.DeliverUnits(ctx, units, maxAttempts)
}

// DeliverUnits makes at most maxAttempts batch calls. An empty batch is a no-op.
func (w *Writer) DeliverUnits(ctx context.Context, units []Unit, maxAttempts int) error {
	remaining := units
	attempt := 0

	for len(remaining) > 0 && attempt < maxAttempts {
		outcome, err := retry.Call(ctx, w.Transport, func() (*BatchOutcome, error) {
			return w.Sink.PutRecordBatch(ctx, w.Stream, remaining)
		})
		if err != nil {
			return err
		}
		batchSubmissions.WithLabelValues(w.Stream).Inc()

		// a sink that reports nothing has not confirmed any record
		if outcome == nil {
			outcome = &BatchOutcome{FailedCount: len(remaining)}
		}

		if outcome.FailedCount == 0 {
			unitsAccepted.WithLabelValues(w.Stream).Add(float64(len(remaining)))

			w.Logger.Info().
				Int("records", len(remaining)).
				Int("attempt", attempt+1).
				Msg("Batch delivered")
			return nil
		}

		failed := failedUnits(remaining, outcome)
		unitsAccepted.WithLabelValues(w.Stream).Add(float64(len(remaining) - len(failed)))
		unitsFailed.WithLabelValues(w.Stream).Add(float64(len(failed)))

		w.Logger.Warn().
			Int("submitted", len(remaining)).
			Int("failed", len(failed)).
			Int("attempt", attempt+1).
			Int("maxattempts", maxAttempts).
			Msg("Batch partially failed")

		remaining = failed
		attempt++
	}

	if len(remaining) == 0 {
		return nil
	}

	deliveriesExhausted.WithLabelValues(w.Stream).Inc()

	return &DeliveryExhaustedError{
		Stream:   w.Stream,
		Attempts: attempt,
		Units:    remaining,
	}
}

// failedUnits picks the units at the positions the outcome marks as failed,
// keeping their submitted order. A position the sink did not report on is
// treated as failed, and results past the submitted count are ignored. If the
// sink claims failures but none can be located the whole batch is retried.
func failedUnits(submitted []Unit, outcome *BatchOutcome) []Unit {
	var failed []Unit

	for i, unit := range submitted {
		if i >= len(outcome.Results) || outcome.Results[i].Failed() {
			failed = append(failed, unit)
		}
	}

	if len(failed) == 0 {
		return submitted
	}

	return failed
}
