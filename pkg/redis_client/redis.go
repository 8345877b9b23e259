package redis_client

import (
	"context"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/config"
)

// Connection is the redis client plus the rmq queue connection layered on it
type Connection struct {
	Client *redis.Client
	Queues rmq.Connection
}

// Connect pings redis before opening the queue connection. The tag names this
// process in rmq's bookkeeping so the cleaner can recover its unacked deliveries.
func Connect(ctx context.Context, cfg config.RedisConfig, tag string, logger zerolog.Logger) (*Connection, error) {
	client := NewClient(cfg)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	errChan := make(chan error, 10)
	go logQueueErrors(errChan, logger)

	queues, err := rmq.OpenConnectionWithRedisClient(tag, client, errChan)
	if err != nil {
		client.Close()
		return nil, err
	}

	logger.Info().Str("address", cfg.Address).Int("database", cfg.Database).Msg("Redis connection setup")

	return &Connection{
		Client: client,
		Queues: queues,
	}, nil
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr: cfg.Address,
		DB:   cfg.Database,
	}

	if cfg.Password != "" {
		options.Password = cfg.Password
	}

	return redis.NewClient(options)
}

func logQueueErrors(errChan <-chan error, logger zerolog.Logger) {
	for err := range errChan {
		switch err := err.(type) {
		case *rmq.HeartbeatError:
			if err.Count == rmq.HeartbeatErrorLimit {
				logger.Error().Err(err).Msg("Queue heartbeat failed too often, consumers stopped")
			} else {
				logger.Warn().Err(err).Msg("Queue heartbeat error")
			}
		case *rmq.ConsumeError:
			logger.Warn().Err(err).Msg("Queue consume error")
		case *rmq.DeliveryError:
			logger.Warn().Err(err).Msg("Queue delivery error")
		default:
			logger.Error().Err(err).Msg("Queue error")
		}
	}
}
