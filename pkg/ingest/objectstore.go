package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"github.com/travigo/cta-train-analytics/pkg/objectstore"
)

type ObjectWriter interface {
	PutObject(ctx context.Context, bucket string, key string, data []byte) error
}

// ObjectStoreSink writes each batch as one newline delimited JSON object under
// <prefix>/<stream>/YYYY/MM/DD/HH/. A single PUT lands or fails as a whole, so
// every position shares the outcome. Throttling and connection failures are
// reported as failed units for the writer to resubmit; anything else fails the call.
type ObjectStoreSink struct {
	Store  ObjectWriter
	Bucket string
	Prefix string

	Now func() time.Time

	sequence atomic.Uint64
}

func (s *ObjectStoreSink) PutRecordBatch(ctx context.Context, stream string, units []Unit) (*BatchOutcome, error) {
	var body bytes.Buffer
	for _, unit := range units {
		body.Write(unit.Data)
	}

	key := s.objectKey(stream)

	err := s.Store.PutObject(ctx, s.Bucket, key, body.Bytes())
	if err != nil && !objectstore.IsRetryable(err) {
		return nil, &SinkError{Sink: "objectstore", Code: "put", Retryable: false, Err: err}
	}

	outcome := &BatchOutcome{Results: make([]UnitResult, len(units))}

	for i := range outcome.Results {
		if err != nil {
			outcome.Results[i].ErrorCode = "put_failed"
			outcome.Results[i].ErrorMessage = err.Error()
			outcome.FailedCount++
			continue
		}

		outcome.Results[i].RecordID = fmt.Sprintf("%s#%d", key, i)
	}

	return outcome, nil
}

func (s *ObjectStoreSink) objectKey(stream string) string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	at := now().UTC()

	name := fmt.Sprintf("%s-%s-%06d.json", stream, at.Format("20060102T150405.000000000Z"), s.sequence.Add(1))

	return path.Join(s.Prefix, stream, at.Format("2006/01/02/15"), name)
}
