// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesAudited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_queries_total",
			Help: "Total number of queries audited",
		},
		[]string{"mode"},
	)

	QueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_query_failures_total",
			Help: "Total number of failed audits by verdict",
		},
		[]string{"mode", "verdict"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_query_duration_seconds",
			Help:    "Duration of one audited search call in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		},
		[]string{"mode"},
	)

	RunPassRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_run_pass_rate",
			Help: "Pass rate of the most recent completed run (0-100)",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_runs_completed_total",
			Help: "Total number of completed audit runs by outcome",
		},
		[]string{"outcome"},
	)

	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_oracle_calls_total",
			Help: "Total number of relevance oracle calls by status",
		},
		[]string{"status"},
	)
)
