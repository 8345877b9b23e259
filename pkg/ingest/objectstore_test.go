package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/cta-train-analytics/pkg/objectstore"
)

type fakeObjectWriter struct {
	mu      sync.Mutex
	objects map[string][]byte
	errs    []error
	calls   int
}

func (w *fakeObjectWriter) PutObject(ctx context.Context, bucket string, key string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls++
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return err
		}
	}

	if w.objects == nil {
		w.objects = map[string][]byte{}
	}
	w.objects[bucket+"/"+key] = data
	return nil
}

var sinkTime = time.Date(2025, 6, 25, 15, 30, 25, 0, time.UTC)

func newObjectStoreSink(writer ObjectWriter) *ObjectStoreSink {
	return &ObjectStoreSink{
		Store:  writer,
		Bucket: "cta",
		Prefix: "raw",
		Now:    func() time.Time { return sinkTime },
	}
}

func TestObjectStoreSinkWritesOneObjectPerBatch(t *testing.T) {
	writer := &fakeObjectWriter{}

	outcome, err := newObjectStoreSink(writer).PutRecordBatch(context.Background(), "locations", testUnits(3))

	require.NoError(t, err)
	assert.Equal(t, 0, outcome.FailedCount)
	require.Len(t, outcome.Results, 3)
	require.Len(t, writer.objects, 1)

	for key, data := range writer.objects {
		assert.True(t, strings.HasPrefix(key, "cta/raw/locations/2025/06/25/15/locations-"), key)
		assert.True(t, strings.HasSuffix(key, ".json"), key)
		assert.Equal(t, "{\"n\":0}\n{\"n\":1}\n{\"n\":2}\n", string(data))
	}
}

func TestObjectStoreSinkKeysAreUnique(t *testing.T) {
	writer := &fakeObjectWriter{}
	sink := newObjectStoreSink(writer)

	for i := 0; i < 3; i++ {
		_, err := sink.PutRecordBatch(context.Background(), "locations", testUnits(1))
		require.NoError(t, err)
	}

	assert.Len(t, writer.objects, 3)
}

func TestObjectStoreSinkTransientFailureFailsEveryUnit(t *testing.T) {
	writer := &fakeObjectWriter{errs: []error{&objectstore.Error{Code: objectstore.CodeThrottled, Retryable: true}}}

	outcome, err := newObjectStoreSink(writer).PutRecordBatch(context.Background(), "locations", testUnits(2))

	require.NoError(t, err)
	assert.Equal(t, 2, outcome.FailedCount)
	assert.True(t, outcome.Results[0].Failed())
	assert.True(t, outcome.Results[1].Failed())
}

func TestObjectStoreSinkPermanentFailureFailsCall(t *testing.T) {
	writer := &fakeObjectWriter{errs: []error{&objectstore.Error{Code: objectstore.CodeBucketNotFound}}}

	outcome, err := newObjectStoreSink(writer).PutRecordBatch(context.Background(), "locations", testUnits(2))

	assert.Nil(t, outcome)
	assert.False(t, IsRetryable(err))

	var storeErr *objectstore.Error
	assert.True(t, errors.As(err, &storeErr))
}

func TestWriterResubmitsAfterTransientObjectStoreFailure(t *testing.T) {
	writer := &fakeObjectWriter{errs: []error{&objectstore.Error{Code: objectstore.CodeEndpointUnreachable, Retryable: true}}}

	err := newTestWriter(newObjectStoreSink(writer)).DeliverUnits(context.Background(), testUnits(2), 5)

	require.NoError(t, err)
	assert.Equal(t, 2, writer.calls)
	assert.Len(t, writer.objects, 1)
}
