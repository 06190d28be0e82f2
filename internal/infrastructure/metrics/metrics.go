package metrics

import (
	"time"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_ingests_total",
			Help: "Total dataset ingests by kind, format and outcome",
		},
		[]string{"kind", "format", "outcome"},
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_ingest_duration_seconds",
			Help:    "Time spent decoding and parsing an uploaded dataset",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "format"},
	)

	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_records_ingested_total",
			Help: "Total case records or operations day rows accepted",
		},
		[]string{"kind"},
	)

	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_rows_dropped_total",
			Help: "Total rows skipped because they carried no case",
		},
		[]string{"kind"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_http_requests_total",
			Help: "Total HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_websocket_clients",
			Help: "Number of connected dashboard WebSocket clients",
		},
	)
)

// Recorder reports ingest telemetry to the package collectors.
type Recorder struct{}

var _ ports.IngestRecorder = Recorder{}

// RecordIngest implements ports.IngestRecorder.
func (Recorder) RecordIngest(kind domain.DatasetKind, format domain.FileFormat, outcome string, records, dropped int, elapsed time.Duration) {
	k, f := string(kind), string(format)
	if k == "" {
		k = "unknown"
	}
	if f == "" {
		f = "unknown"
	}
	IngestsTotal.WithLabelValues(k, f, outcome).Inc()
	IngestDuration.WithLabelValues(k, f).Observe(elapsed.Seconds())
	if records > 0 {
		RecordsIngested.WithLabelValues(k).Add(float64(records))
	}
	if dropped > 0 {
		RowsDropped.WithLabelValues(k).Add(float64(dropped))
	}
}
