// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesTotal counts frames seen by the fast path, by terminal outcome
	// (pass / drop / tx).
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_frames_total",
			Help: "Total number of frames processed, by outcome",
		},
		[]string{"outcome"},
	)

	// ResponsesTotal counts responses served directly from the fast path.
	ResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strix_responses_total",
			Help: "Total number of responses transmitted by the fast path",
		},
	)

	// ResponseBuildSeconds observes end-to-end frame handling time for
	// frames that produced a response.
	ResponseBuildSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strix_response_build_seconds",
			Help:    "Time from frame receipt to rewritten frame, for responses",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	// TransmitErrorsTotal counts failures writing a rewritten frame.
	TransmitErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strix_transmit_errors_total",
			Help: "Total number of transmit failures",
		},
	)

	// TableEntries tracks the current response table size.
	TableEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "strix_table_entries",
			Help: "Current number of entries in the response table",
		},
	)

	// RoutesLoadedTotal counts response variants loaded into the table.
	RoutesLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strix_routes_loaded_total",
			Help: "Total number of response variants loaded into the table",
		},
	)

	// RoutesSkippedTotal counts variants skipped at load, by reason.
	RoutesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_routes_skipped_total",
			Help: "Total number of response variants skipped at load, by reason",
		},
		[]string{"reason"},
	)
)

// RegisterPassThroughReasons exposes pass-through counts by reason, read
// from the pipeline's atomic counters so the hot path never touches a
// Prometheus vector.
func RegisterPassThroughReasons(reasons map[string]func() uint64) {
	for reason, read := range reasons {
		prometheus.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        "strix_passthrough_total",
				Help:        "Total number of frames passed through, by reason",
				ConstLabels: prometheus.Labels{"reason": reason},
			},
			func() float64 { return float64(read()) },
		))
	}
}
