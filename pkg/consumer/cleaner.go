package consumer

import (
	"context"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog"
)

const DefaultCleanInterval = 5 * time.Minute

// RunCleaner returns unacked deliveries of dead connections to their ready
// lists until the context is cancelled
func RunCleaner(ctx context.Context, connection rmq.Connection, interval time.Duration, logger zerolog.Logger) {
	cleaner := rmq.NewCleaner(connection)

	logger.Info().Dur("interval", interval).Msg("Starting queue cleaner process")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Clean(cleaner, logger)
		}
	}
}

func Clean(cleaner *rmq.Cleaner, logger zerolog.Logger) int64 {
	returned, err := cleaner.Clean()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to clean")
		return 0
	}

	if returned != 0 {
		logger.Info().Int64("returned", returned).Msg("Cleaned deliveries")
	}

	return returned
}
