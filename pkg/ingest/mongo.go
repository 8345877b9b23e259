package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink inserts each batch unordered into the collection named by the stream,
// so one rejected document does not stop the rest of the batch
type MongoSink struct {
	Database *mongo.Database
}

func (s *MongoSink) PutRecordBatch(ctx context.Context, stream string, units []Unit) (*BatchOutcome, error) {
	ids := make([]string, len(units))
	documents := make([]interface{}, len(units))

	for i, unit := range units {
		var document bson.M
		if err := bson.UnmarshalExtJSON(bytes.TrimSpace(unit.Data), false, &document); err != nil {
			return nil, &SinkError{Sink: "mongodb", Code: "encode", Retryable: false, Err: err}
		}

		id := primitive.NewObjectID()
		document["_id"] = id

		ids[i] = id.Hex()
		documents[i] = document
	}

	collection := s.Database.Collection(stream)
	_, err := collection.InsertMany(ctx, documents, options.InsertMany().SetOrdered(false))

	return insertManyOutcome(ids, err)
}

func insertManyOutcome(ids []string, err error) (*BatchOutcome, error) {
	outcome := &BatchOutcome{Results: make([]UnitResult, len(ids))}
	for i, id := range ids {
		outcome.Results[i].RecordID = id
	}

	if err == nil {
		return outcome, nil
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && bulkErr.WriteConcernError == nil && len(bulkErr.WriteErrors) > 0 {
		for _, writeErr := range bulkErr.WriteErrors {
			if writeErr.Index < 0 || writeErr.Index >= len(outcome.Results) {
				continue
			}

			result := &outcome.Results[writeErr.Index]
			if !result.Failed() {
				outcome.FailedCount++
			}
			result.ErrorCode = strconv.Itoa(writeErr.Code)
			result.ErrorMessage = writeErr.Message
		}

		return outcome, nil
	}

	return nil, &SinkError{
		Sink:      "mongodb",
		Code:      mongoErrorCode(err),
		Retryable: mongoRetryable(err),
		Err:       err,
	}
}

func mongoRetryable(err error) bool {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("RetryableWriteError")
	}

	return false
}

func mongoErrorCode(err error) string {
	var commandErr mongo.CommandError
	if errors.As(err, &commandErr) {
		return fmt.Sprintf("%s(%d)", commandErr.Name, commandErr.Code)
	}

	return "write"
}
