package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/travigo/cta-train-analytics/pkg/retry"
)

// ElasticsearchSink writes each batch as one _bulk request of create actions.
// Using create keeps the sink compatible with data streams.
type ElasticsearchSink struct {
	Client *elasticsearch.Client
}

type bulkResponse struct {
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemOutcome `json:"items"`
}

type bulkItemOutcome struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

func (s *ElasticsearchSink) PutRecordBatch(ctx context.Context, stream string, units []Unit) (*BatchOutcome, error) {
	var body bytes.Buffer
	action := fmt.Sprintf(`{"create":{"_index":%q}}`, stream)

	for _, unit := range units {
		body.WriteString(action)
		body.WriteByte('\n')
		body.Write(unit.Data)
	}

	res, err := s.Client.Bulk(&body, s.Client.Bulk.WithContext(ctx))
	if err != nil {
		return nil, &SinkError{Sink: "elasticsearch", Code: "transport", Retryable: true, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		reason, _ := io.ReadAll(io.LimitReader(res.Body, 4096))

		return nil, &SinkError{
			Sink:      "elasticsearch",
			Code:      res.Status(),
			Retryable: retry.StatusRetryable(res.StatusCode),
			Err:       fmt.Errorf("%s", bytes.TrimSpace(reason)),
		}
	}

	var response bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, &SinkError{Sink: "elasticsearch", Code: "decode", Retryable: false, Err: err}
	}

	return bulkOutcome(response), nil
}

func bulkOutcome(response bulkResponse) *BatchOutcome {
	outcome := &BatchOutcome{Results: make([]UnitResult, 0, len(response.Items))}

	for _, item := range response.Items {
		var result UnitResult

		// every item has exactly one key, the action name
		for _, itemOutcome := range item {
			result.RecordID = itemOutcome.ID

			if itemOutcome.Error != nil {
				result.ErrorCode = itemOutcome.Error.Type
				result.ErrorMessage = itemOutcome.Error.Reason
			} else if itemOutcome.Status >= 300 {
				result.ErrorCode = fmt.Sprintf("status_%d", itemOutcome.Status)
			}
		}

		if result.Failed() {
			outcome.FailedCount++
		}
		outcome.Results = append(outcome.Results, result)
	}

	return outcome
}
