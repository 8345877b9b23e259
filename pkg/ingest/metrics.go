package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cta_ingest_batch_submissions_total",
		Help: "Batch calls made to the delivery stream",
	}, []string{"stream"})
	unitsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cta_ingest_units_accepted_total",
		Help: "Records the delivery stream accepted",
	}, []string{"stream"})
	unitsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cta_ingest_units_failed_total",
		Help: "Records the delivery stream reported as failed, counted per attempt",
	}, []string{"stream"})
	deliveriesExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cta_ingest_deliveries_exhausted_total",
		Help: "Deliveries that ran out of attempts with records still failing",
	}, []string{"stream"})
)
