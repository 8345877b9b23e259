package elastic_client

import (
	"context"
	"errors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/config"
)

var ErrNoAddress = errors.New("elasticsearch address not set")

// Connect builds a client with the library's own retries disabled; batch calls
// are retried by the ingest writer's transport policy instead.
func Connect(ctx context.Context, cfg config.ElasticsearchConfig, logger zerolog.Logger) (*elasticsearch.Client, error) {
	if cfg.Address == "" {
		return nil, ErrNoAddress
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.Address},
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableRetry: true,
	})
	if err != nil {
		return nil, err
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.New("elasticsearch info request failed: " + res.Status())
	}

	logger.Info().Str("address", cfg.Address).Msg("Elasticsearch client setup")

	return es, nil
}
