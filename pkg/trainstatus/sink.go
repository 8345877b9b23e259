package trainstatus

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/config"
	"github.com/travigo/cta-train-analytics/pkg/database"
	"github.com/travigo/cta-train-analytics/pkg/elastic_client"
	"github.com/travigo/cta-train-analytics/pkg/ingest"
	"github.com/travigo/cta-train-analytics/pkg/objectstore"
	"github.com/travigo/cta-train-analytics/pkg/redis_client"
)

// OpenSink connects the sink selected by the configuration. The returned
// close function releases its connection.
func OpenSink(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ingest.Sink, func(context.Context) error, error) {
	switch cfg.Sink {
	case config.SinkElasticsearch:
		client, err := elastic_client.Connect(ctx, cfg.Elasticsearch, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect elasticsearch: %w", err)
		}

		return &ingest.ElasticsearchSink{Client: client}, func(context.Context) error { return nil }, nil
	case config.SinkMongoDB:
		instance, err := database.Connect(ctx, cfg.MongoDB, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}

		if err := database.CreateTrainLocationIndexes(ctx, instance.Database, cfg.DeliveryStream); err != nil {
			logger.Warn().Err(err).Str("collection", cfg.DeliveryStream).Msg("Creating index")
		}

		return &ingest.MongoSink{Database: instance.Database}, instance.Disconnect, nil
	case config.SinkRedis:
		client := redis_client.NewClient(cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}

		return &ingest.RedisStreamSink{Client: client}, func(context.Context) error { return client.Close() }, nil
	case config.SinkMinio:
		if err := cfg.Require(config.MinioEndpointVariable, config.MinioBucketVariable); err != nil {
			return nil, nil, err
		}

		store, err := objectstore.NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, nil, fmt.Errorf("connect object store: %w", err)
		}

		return &ingest.ObjectStoreSink{Store: store, Bucket: cfg.Minio.Bucket}, func(context.Context) error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported sink %q", cfg.Sink)
	}
}
