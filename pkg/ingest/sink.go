package ingest

import (
	"context"
)

// Sink accepts a batch of units in one call and reports an outcome per unit.
// Results must be in the same order as the submitted units.
type Sink interface {
	PutRecordBatch(ctx context.Context, stream string, units []Unit) (*BatchOutcome, error)
}

type BatchOutcome struct {
	FailedCount int
	Results     []UnitResult
}

type UnitResult struct {
	RecordID     string
	ErrorCode    string
	ErrorMessage string
}

func (r UnitResult) Failed() bool {
	return r.ErrorCode != ""
}
