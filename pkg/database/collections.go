package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TrainLocationIndexes are the lookups the location collection is queried by:
// one train's positions over time, and all positions captured at one moment
func TrainLocationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "train_id", Value: 1}, {Key: "current_timestamp", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "current_timestamp", Value: 1}},
		},
	}
}

func CreateTrainLocationIndexes(ctx context.Context, database *mongo.Database, collectionName string) error {
	_, err := database.Collection(collectionName).Indexes().CreateMany(ctx, TrainLocationIndexes(), options.CreateIndexes())

	return err
}
