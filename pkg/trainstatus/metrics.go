package trainstatus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cta_train_status_invocations_total",
		Help: "Train status invocations by line and result",
	}, []string{"line", "result"})

	recordsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cta_train_status_records_fetched_total",
		Help: "Normalised train locations produced per line",
	}, []string{"line"})

	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cta_train_status_queue_deliveries_total",
		Help: "Queue deliveries by outcome",
	}, []string{"outcome"})
)
