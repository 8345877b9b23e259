package ingest

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStreamSink appends every unit to a Redis stream in one pipeline.
// Reply errors fail the single entry, connection errors fail the whole call.
type RedisStreamSink struct {
	Client *redis.Client

	// MaxLen approximately caps the stream length when set
	MaxLen int64
}

func (s *RedisStreamSink) PutRecordBatch(ctx context.Context, stream string, units []Unit) (*BatchOutcome, error) {
	pipe := s.Client.Pipeline()
	commands := make([]*redis.StringCmd, len(units))

	for i, unit := range units {
		commands[i] = pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			MaxLen: s.MaxLen,
			Approx: s.MaxLen > 0,
			Values: map[string]interface{}{"data": unit.Data},
		})
	}

	// reply errors are per command and inspected below, anything else means the pipeline never ran
	if _, err := pipe.Exec(ctx); err != nil && !isReplyError(err) {
		return nil, &SinkError{Sink: "redis", Code: "transport", Retryable: true, Err: err}
	}

	outcome := &BatchOutcome{Results: make([]UnitResult, len(units))}

	for i, command := range commands {
		id, err := command.Result()
		switch {
		case err == nil && id != "":
			outcome.Results[i].RecordID = id
			continue
		case err == nil:
			outcome.Results[i].ErrorCode = "no_id"
			outcome.Results[i].ErrorMessage = "XADD returned no entry id"
		case isReplyError(err):
			outcome.Results[i].ErrorCode = "reply"
			outcome.Results[i].ErrorMessage = err.Error()
		default:
			return nil, &SinkError{Sink: "redis", Code: "transport", Retryable: true, Err: err}
		}

		outcome.FailedCount++
	}

	return outcome, nil
}

func isReplyError(err error) bool {
	var replyErr redis.Error
	return errors.As(err, &replyErr)
}
