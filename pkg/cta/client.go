package cta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/travigo/cta-train-analytics/pkg/retry"
)

const DefaultPositionsURL = "https://lapi.transitchicago.com/api/1.0/ttpositions.aspx"

type Client struct {
	PositionsURL string
	APIKey       string

	HTTPClient *http.Client
	Retry      retry.Policy
	Logger     zerolog.Logger
}

func NewClient(apiKey string, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "cta-client").Logger()

	return &Client{
		PositionsURL: DefaultPositionsURL,
		APIKey:       apiKey,
		HTTPClient:   &http.Client{Timeout: 20 * time.Second},
		Retry: retry.Policy{
			Name:            "ttpositions",
			MaxAttempts:     3,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			Retryable:       IsRetryable,
			Logger:          logger,
		},
		Logger: logger,
	}
}

// FetchPositions returns the live positions of every train on the line
func (c *Client) FetchPositions(ctx context.Context, lineCode string) (*PositionsResponse, error) {
	return retry.Call(ctx, c.Retry, func() (*PositionsResponse, error) {
		return c.fetchPositionsOnce(ctx, lineCode)
	})
}

func (c *Client) fetchPositionsOnce(ctx context.Context, lineCode string) (*PositionsResponse, error) {
	query := url.Values{}
	query.Set("rt", lineCode)
	query.Set("key", c.APIKey)
	query.Set("outputType", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PositionsURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	c.Logger.Debug().Str("line", lineCode).Msg("Requesting train positions")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)

		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        c.PositionsURL,
		}
	}

	var positions PositionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&positions); err != nil {
		return nil, fmt.Errorf("decode positions response: %w", err)
	}

	c.Logger.Info().
		Str("line", lineCode).
		Str("tmst", positions.CTATT.Timestamp).
		Int("routes", len(positions.CTATT.Routes)).
		Msg("Retrieved train positions")

	return &positions, nil
}
