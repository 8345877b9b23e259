package archiver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"github.com/travigo/cta-train-analytics/pkg/objectstore"
	"github.com/travigo/cta-train-analytics/pkg/retry"
)

const (
	PartitionServiceDate = "service_date"
	PartitionTrainLine   = "train_line"
)

type ObjectStore interface {
	ListPrefix(ctx context.Context, bucket string, prefix string) ([]string, error)
	GetObject(ctx context.Context, bucket string, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket string, key string, data []byte) error
}

// Archiver re-encodes raw delivered location objects into Parquet, one object
// per partition value per run. Earlier runs are never overwritten.
type Archiver struct {
	Store  ObjectStore
	Bucket string

	Destination     string
	PartitionColumn string

	Retry retry.Policy
	Now   func() time.Time

	Logger zerolog.Logger
}

type ArchiveResult struct {
	Objects int
	Records int
	Skipped int

	// Keys of the written Parquet objects by partition value
	Partitions map[string]string
}

func NewArchiver(store ObjectStore, bucket string, destination string, partitionColumn string, logger zerolog.Logger) *Archiver {
	logger = logger.With().Str("component", "archiver").Str("bucket", bucket).Logger()

	return &Archiver{
		Store:           store,
		Bucket:          bucket,
		Destination:     destination,
		PartitionColumn: partitionColumn,
		Retry: retry.Policy{
			Name:            "object-store",
			MaxAttempts:     4,
			InitialInterval: time.Second,
			MaxInterval:     15 * time.Second,
			Retryable:       objectstore.IsRetryable,
			Logger:          logger,
		},
		Logger: logger,
	}
}

func (a *Archiver) Perform(ctx context.Context, sourcePrefix string) (*ArchiveResult, error) {
	if a.PartitionColumn != PartitionServiceDate && a.PartitionColumn != PartitionTrainLine {
		return nil, fmt.Errorf("unsupported partition column %q", a.PartitionColumn)
	}

	a.Logger.Info().Str("prefix", sourcePrefix).Msg("Reading raw location objects")

	keys, err := retry.Call(ctx, a.Retry, func() ([]string, error) {
		return a.Store.ListPrefix(ctx, a.Bucket, sourcePrefix)
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", sourcePrefix, err)
	}

	result := &ArchiveResult{Partitions: map[string]string{}}
	partitions := map[string][]ArchivedLocation{}

	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}

		data, err := retry.Call(ctx, a.Retry, func() ([]byte, error) {
			return a.Store.GetObject(ctx, a.Bucket, key)
		})
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		result.Objects++

		rows, skipped, err := decodeObject(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if skipped > 0 {
			a.Logger.Warn().Str("key", key).Int("skipped", skipped).Msg("Skipped malformed records")
		}
		result.Skipped += skipped

		for _, row := range rows {
			value := row.partitionValue(a.PartitionColumn)
			partitions[value] = append(partitions[value], row)
		}
		result.Records += len(rows)
	}

	if result.Records == 0 {
		a.Logger.Info().Int("objects", result.Objects).Msg("No records to archive")
		return result, nil
	}

	run := a.now().UTC().Format("20060102T150405Z")

	values := make([]string, 0, len(partitions))
	for value := range partitions {
		values = append(values, value)
	}
	sort.Strings(values)

	for _, value := range values {
		encoded, err := EncodeParquet(partitions[value])
		if err != nil {
			return nil, fmt.Errorf("encode partition %s: %w", value, err)
		}

		key := path.Join(a.Destination, fmt.Sprintf("%s=%s", a.PartitionColumn, value), fmt.Sprintf("part-%s.parquet", run))

		err = a.Retry.Do(ctx, func() error {
			return a.Store.PutObject(ctx, a.Bucket, key, encoded)
		})
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", key, err)
		}

		result.Partitions[value] = key
		a.Logger.Info().Str("key", key).Int("records", len(partitions[value])).Msg("Written partition")
	}

	a.Logger.Info().
		Int("objects", result.Objects).
		Int("records", result.Records).
		Int("partitions", len(result.Partitions)).
		Msg("Archive complete")

	return result, nil
}

func (a *Archiver) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// decodeObject reads newline delimited locations. Lines that are not a
// location with a well formed train_id are counted and skipped.
func decodeObject(data []byte) ([]ArchivedLocation, int, error) {
	var rows []ArchivedLocation
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var location ctdf.TrainLocation
		if err := json.Unmarshal(line, &location); err != nil {
			skipped++
			continue
		}

		row, err := NewArchivedLocation(location)
		if err != nil {
			skipped++
			continue
		}

		rows = append(rows, row)
	}

	return rows, skipped, scanner.Err()
}
