package trainstatus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/cta"
	"github.com/travigo/cta-train-analytics/pkg/ctdf"
)

const (
	BodyExecutionSuccessful = "Execution successful"
	BodyNoTrainsRunning     = "No records written due to no trains running"
)

type PositionsFetcher interface {
	FetchPositions(ctx context.Context, lineCode string) (*cta.PositionsResponse, error)
}

type LocationWriter interface {
	Deliver(ctx context.Context, records []ctdf.TrainLocation, maxAttempts int) error
}

type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Handler runs one invocation for one line: fetch, normalise, deliver
type Handler struct {
	Client PositionsFetcher
	Writer LocationWriter

	MaxDeliveryAttempts int

	// Location is the time zone capture timestamps are recorded in
	Location *time.Location
	Now      func() time.Time

	Logger zerolog.Logger
}

func (h *Handler) Handle(ctx context.Context, body []byte) (Response, error) {
	line, err := ParseTrigger(body)
	if err != nil {
		return Response{}, err
	}

	logger := h.Logger.With().Str("line", line.Name).Str("abbrev", line.Code).Logger()
	logger.Info().Msg("Processing train line")

	records, err := h.Locations(ctx, line)
	if err != nil {
		invocations.WithLabelValues(line.Name, "error").Inc()
		return Response{}, err
	}

	if len(records) == 0 {
		invocations.WithLabelValues(line.Name, "empty").Inc()
		logger.Info().Msg("No trains running")

		return Response{StatusCode: http.StatusNoContent, Body: BodyNoTrainsRunning}, nil
	}

	recordsFetched.WithLabelValues(line.Name).Add(float64(len(records)))

	if err := h.Writer.Deliver(ctx, records, h.MaxDeliveryAttempts); err != nil {
		invocations.WithLabelValues(line.Name, "error").Inc()
		return Response{}, fmt.Errorf("deliver %s locations: %w", line.Name, err)
	}

	invocations.WithLabelValues(line.Name, "success").Inc()
	logger.Info().Int("records", len(records)).Msg("Delivered train locations")

	return Response{StatusCode: http.StatusOK, Body: BodyExecutionSuccessful}, nil
}

// Locations fetches and normalises the current positions of one line without delivering them
func (h *Handler) Locations(ctx context.Context, line ctdf.TrainLine) ([]ctdf.TrainLocation, error) {
	positions, err := h.Client.FetchPositions(ctx, line.Code)
	if err != nil {
		return nil, fmt.Errorf("fetch %s positions: %w", line.Name, err)
	}

	records, err := cta.Normalize(positions, line, h.capturedAt())
	if err != nil {
		return nil, fmt.Errorf("normalize %s positions: %w", line.Name, err)
	}

	return records, nil
}

func (h *Handler) capturedAt() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	if h.Location == nil {
		return now()
	}

	return now().In(h.Location)
}
