package operations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavecli_operation_runs_total",
		Help: "Pipeline runs by final status.",
	}, []string{"status"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mavecli_operation_step_duration_seconds",
		Help:    "Wall time of pipeline steps.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"step", "status"})

	// ImputationGaps counts cells the imputation engine could not fill.
	ImputationGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavecli_imputation_gaps_total",
		Help: "Matrix cells left undefined because no eligible neighbor row existed.",
	})
)
