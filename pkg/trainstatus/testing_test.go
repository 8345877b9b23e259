package trainstatus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/travigo/cta-train-analytics/pkg/cta"
	"github.com/travigo/cta-train-analytics/pkg/ctdf"

	_ "time/tzdata"
)

type fakeFetcher struct {
	positions *cta.PositionsResponse
	err       error

	mu    sync.Mutex
	lines []string
}

func (f *fakeFetcher) FetchPositions(ctx context.Context, lineCode string) (*cta.PositionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lines = append(f.lines, lineCode)
	return f.positions, f.err
}

type deliverCall struct {
	records     []ctdf.TrainLocation
	maxAttempts int
}

type fakeWriter struct {
	err error

	mu    sync.Mutex
	calls []deliverCall
}

func (w *fakeWriter) Deliver(ctx context.Context, records []ctdf.TrainLocation, maxAttempts int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls = append(w.calls, deliverCall{records: records, maxAttempts: maxAttempts})
	return w.err
}

func chicago(t *testing.T) *time.Location {
	location, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	return location
}

// 2025-06-25 10:30:25 in Chicago
var fixedNow = time.Date(2025, 6, 25, 15, 30, 25, 0, time.UTC)

func newTestHandler(t *testing.T, fetcher PositionsFetcher, writer LocationWriter) *Handler {
	return &Handler{
		Client:              fetcher,
		Writer:              writer,
		MaxDeliveryAttempts: 5,
		Location:            chicago(t),
		Now:                 func() time.Time { return fixedNow },
		Logger:              zerolog.Nop(),
	}
}

func twoTrains() *cta.PositionsResponse {
	return &cta.PositionsResponse{CTATT: cta.PositionsEnvelope{
		ErrorCode: "0",
		Routes: []cta.Route{{
			Name: "p",
			Trains: cta.Trains{
				{RunNumber: "110", Direction: "5", DestinationName: "Forest Park", NextStationName: "Belmont", PredictionGeneratedTime: "2025-06-20T12:42:56", ArrivalTime: "2025-06-20T12:43:56", IsApproaching: "1", IsDelayed: "0"},
				{RunNumber: "512", Direction: "1", DestinationName: "Linden", NextStationName: "Wilson", IsApproaching: "0", IsDelayed: "1"},
			},
		}},
	}}
}

const purpleTrigger = `{"train_line_abbrev":"P","train_line":"Purple"}`
