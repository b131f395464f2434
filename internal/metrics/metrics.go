package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildsync_runs_total",
			Help: "Completed sync runs by kind and terminal status",
		},
		[]string{"kind", "status"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guildsync_run_duration_seconds",
			Help:    "Wall time of sync runs from start to completion",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	SnapshotsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildsync_snapshots_total",
			Help: "Raw upstream payloads appended to the snapshot store",
		},
		[]string{"endpoint"},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildsync_records_skipped_total",
			Help: "Malformed payload records skipped during normalization",
		},
		[]string{"payload"},
	)

	PayloadParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildsync_payload_parse_failures_total",
			Help: "Payloads that could not be parsed as JSON or had no recognised shape",
		},
		[]string{"payload"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildsync_upstream_requests_total",
			Help: "Requests sent to the guild data API by endpoint family and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guildsync_upstream_circuit_open",
			Help: "1 while the guild data API circuit breaker is open or half-open",
		},
	)
)

func ObserveRun(kind, status string, elapsed time.Duration) {
	SyncRuns.WithLabelValues(kind, status).Inc()
	SyncRunDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func SnapshotSaved(endpointFamily string) {
	SnapshotsSaved.WithLabelValues(endpointFamily).Inc()
}

func RecordSkipped(payload string) {
	RecordsSkipped.WithLabelValues(payload).Inc()
}

func PayloadRejected(payload string) {
	PayloadParseFailures.WithLabelValues(payload).Inc()
}

func UpstreamRequest(endpointFamily, outcome string) {
	UpstreamRequests.WithLabelValues(endpointFamily, outcome).Inc()
}

func SetCircuitOpen(open bool) {
	if open {
		UpstreamCircuitState.Set(1)
		return
	}
	UpstreamCircuitState.Set(0)
}
