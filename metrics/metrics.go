package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_records_ingested_total",
			Help: "Total number of sensor records ingested",
		},
		[]string{"source"},
	)

	RecordsMalformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_records_malformed_total",
			Help: "Total number of malformed feed records skipped",
		},
		[]string{"reason"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_generated_total",
			Help: "Total number of candidate alerts produced by detectors",
		},
		[]string{"kind", "severity"},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_suppressed_total",
			Help: "Total number of candidate alerts dropped by the suppressor",
		},
		[]string{"reason"},
	)

	DetectorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_detector_failures_total",
			Help: "Total number of isolated detector failures",
		},
		[]string{"detector"},
	)

	DetectionCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_detection_cycle_duration_seconds",
			Help:    "Time taken to run one full detection cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	FeedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_feed_reconnects_total",
			Help: "Total number of feed reconnect attempts",
		},
	)

	SinkWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_sink_write_failures_total",
			Help: "Total number of alert sink write failures",
		},
	)
)
