package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func (m *MongoInstance) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func Connect(ctx context.Context, cfg config.MongoDBConfig, logger zerolog.Logger) (*MongoInstance, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	logger.Info().Str("database", cfg.Database).Msg("MongoDB connection setup")

	return &MongoInstance{
		Client:   client,
		Database: client.Database(cfg.Database),
	}, nil
}
