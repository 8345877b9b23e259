package archiver

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"github.com/travigo/cta-train-analytics/pkg/ingest"
	"github.com/travigo/cta-train-analytics/pkg/objectstore"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// listFailures fails that many ListPrefix calls before answering
	listFailures int
	listErr      error
	listCalls    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) ListPrefix(ctx context.Context, bucket string, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.listFailures > 0 {
		s.listFailures--
		return nil, s.listErr
	}

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, bucket+"/"+prefix) {
			keys = append(keys, strings.TrimPrefix(key, bucket+"/"))
		}
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *memoryStore) GetObject(ctx context.Context, bucket string, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, &objectstore.Error{Code: objectstore.CodeObjectNotFound}
	}
	return data, nil
}

func (s *memoryStore) PutObject(ctx context.Context, bucket string, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[bucket+"/"+key] = data
	return nil
}

const rawObject = `{"train_id":"2025-06-25#Purple#110#5","current_timestamp":"2025-06-25T10:30:25-05:00","prediction_generated_timestamp":"2025-06-25T10:30:20","destination_station":"Linden","next_station":"Davis","next_station_arrival_time":"2025-06-25T10:31:20","is_approaching_station":"0","is_train_delayed":"0"}
{"train_id":"2025-06-25#Red#901#1","current_timestamp":"2025-06-25T10:30:25-05:00","prediction_generated_timestamp":"2025-06-25T10:30:20","destination_station":"Howard","next_station":"Clark/Lake","next_station_arrival_time":"2025-06-25T10:32:20","is_approaching_station":"1","is_train_delayed":"0"}

{"train_id":"2025-06-26#Purple#112#5","current_timestamp":"2025-06-26T05:00:01-05:00","prediction_generated_timestamp":"2025-06-26T05:00:00","destination_station":"Linden","next_station":"Main","next_station_arrival_time":"2025-06-26T05:01:00","is_approaching_station":"0","is_train_delayed":"1"}
`

func newTestArchiver(store ObjectStore, partition string) *Archiver {
	archiver := NewArchiver(store, "cta", "parquet", partition, zerolog.Nop())
	archiver.Retry.InitialInterval = time.Millisecond
	archiver.Retry.MaxInterval = time.Millisecond
	archiver.Now = func() time.Time { return time.Date(2025, 6, 27, 1, 2, 3, 0, time.UTC) }

	return archiver
}

func isParquet(data []byte) bool {
	return len(data) > 8 && bytes.HasPrefix(data, []byte("PAR1")) && bytes.HasSuffix(data, []byte("PAR1"))
}

func TestPerformPartitionsByServiceDate(t *testing.T) {
	store := newMemoryStore()
	store.objects["cta/raw/2025/06/25/batch-1.json"] = []byte(rawObject)
	store.objects["cta/raw/2025/06/25/manifest.txt"] = []byte("ignored")

	result, err := newTestArchiver(store, PartitionServiceDate).Perform(context.Background(), "raw/")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Objects)
	assert.Equal(t, 3, result.Records)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, map[string]string{
		"2025-06-25": "parquet/service_date=2025-06-25/part-20250627T010203Z.parquet",
		"2025-06-26": "parquet/service_date=2025-06-26/part-20250627T010203Z.parquet",
	}, result.Partitions)

	for _, key := range result.Partitions {
		assert.True(t, isParquet(store.objects["cta/"+key]), key)
	}
}

func TestPerformArchivesDeliveredBatches(t *testing.T) {
	store := newMemoryStore()
	sink := &ingest.ObjectStoreSink{
		Store:  store,
		Bucket: "cta",
		Prefix: "raw",
		Now:    func() time.Time { return time.Date(2025, 6, 25, 15, 30, 25, 0, time.UTC) },
	}
	writer := ingest.NewWriter(sink, "cta-train-analytics-stream", zerolog.Nop())

	require.NoError(t, writer.Deliver(context.Background(), []ctdf.TrainLocation{
		{TrainID: "2025-06-25#Purple#110#5", CurrentTimestamp: "2025-06-25T10:30:25-05:00", NextStation: "Davis"},
		{TrainID: "2025-06-25#Red#901#1", CurrentTimestamp: "2025-06-25T10:30:25-05:00", NextStation: "Clark/Lake"},
	}, 3))
	require.NoError(t, writer.Deliver(context.Background(), []ctdf.TrainLocation{
		{TrainID: "2025-06-26#Purple#112#5", CurrentTimestamp: "2025-06-26T05:00:01-05:00", NextStation: "Main"},
	}, 3))

	result, err := newTestArchiver(store, PartitionTrainLine).Perform(context.Background(), "raw/cta-train-analytics-stream/2025/06/25/")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Objects)
	assert.Equal(t, 3, result.Records)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, map[string]string{
		"Purple": "parquet/train_line=Purple/part-20250627T010203Z.parquet",
		"Red":    "parquet/train_line=Red/part-20250627T010203Z.parquet",
	}, result.Partitions)

	for _, key := range result.Partitions {
		assert.True(t, isParquet(store.objects["cta/"+key]), key)
	}
}

func TestPerformPartitionsByTrainLine(t *testing.T) {
	store := newMemoryStore()
	store.objects["cta/raw/a.json"] = []byte(rawObject)

	result, err := newTestArchiver(store, PartitionTrainLine).Perform(context.Background(), "raw/")

	require.NoError(t, err)
	assert.Len(t, result.Partitions, 2)
	assert.Equal(t, "parquet/train_line=Purple/part-20250627T010203Z.parquet", result.Partitions["Purple"])
	assert.Equal(t, "parquet/train_line=Red/part-20250627T010203Z.parquet", result.Partitions["Red"])
}

func TestPerformAppendsNewObjectPerRun(t *testing.T) {
	store := newMemoryStore()
	store.objects["cta/raw/a.json"] = []byte(rawObject)
	archiver := newTestArchiver(store, PartitionTrainLine)

	_, err := archiver.Perform(context.Background(), "raw/")
	require.NoError(t, err)

	archiver.Now = func() time.Time { return time.Date(2025, 6, 28, 1, 2, 3, 0, time.UTC) }
	_, err = archiver.Perform(context.Background(), "raw/")
	require.NoError(t, err)

	assert.Contains(t, store.objects, "cta/parquet/train_line=Red/part-20250627T010203Z.parquet")
	assert.Contains(t, store.objects, "cta/parquet/train_line=Red/part-20250628T010203Z.parquet")
}

func TestPerformSkipsMalformedRecords(t *testing.T) {
	store := newMemoryStore()
	store.objects["cta/raw/a.json"] = []byte(`{"train_id":"not-a-train-id"}
not json
{"train_id":"2025-06-25#Red#901#1"}
`)

	result, err := newTestArchiver(store, PartitionServiceDate).Perform(context.Background(), "raw/")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Records)
	assert.Equal(t, 2, result.Skipped)
}

func TestPerformNothingToArchive(t *testing.T) {
	store := newMemoryStore()

	result, err := newTestArchiver(store, PartitionServiceDate).Perform(context.Background(), "raw/")

	require.NoError(t, err)
	assert.Equal(t, 0, result.Records)
	assert.Empty(t, result.Partitions)
	assert.Empty(t, store.objects)
}

func TestPerformRetriesTransientStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.objects["cta/raw/a.json"] = []byte(rawObject)
	store.listFailures = 2
	store.listErr = &objectstore.Error{Code: objectstore.CodeThrottled, Retryable: true}

	result, err := newTestArchiver(store, PartitionServiceDate).Perform(context.Background(), "raw/")

	require.NoError(t, err)
	assert.Equal(t, 3, store.listCalls)
	assert.Equal(t, 3, result.Records)
}

func TestPerformStopsOnPermanentStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.listFailures = 5
	store.listErr = &objectstore.Error{Code: objectstore.CodeBucketNotFound}

	_, err := newTestArchiver(store, PartitionServiceDate).Perform(context.Background(), "raw/")

	var storeErr *objectstore.Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, objectstore.CodeBucketNotFound, storeErr.Code)
	assert.Equal(t, 1, store.listCalls)
}

func TestPerformRejectsUnknownPartition(t *testing.T) {
	_, err := newTestArchiver(newMemoryStore(), "next_station").Perform(context.Background(), "raw/")

	assert.Error(t, err)
}

func TestEncodeParquet(t *testing.T) {
	rows, skipped, err := decodeObject([]byte(rawObject))
	require.NoError(t, err)
	require.Equal(t, 0, skipped)
	require.Len(t, rows, 3)

	assert.Equal(t, "2025-06-25", rows[0].ServiceDate)
	assert.Equal(t, "Purple", rows[0].TrainLine)
	assert.Equal(t, "Davis", rows[0].NextStation)

	encoded, err := EncodeParquet(rows)
	require.NoError(t, err)
	assert.True(t, isParquet(encoded))
}
