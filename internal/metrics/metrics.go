// Package metrics exposes Prometheus collectors for the fetch scheduler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	schedRecordsScanned     prometheus.Counter
	schedRecordsSkipped     *prometheus.CounterVec
	schedItemsDispatched    prometheus.Counter
	schedLaneItems          *prometheus.GaugeVec
	fetchPagesTotal         *prometheus.CounterVec
	fetchDurationSeconds    prometheus.Histogram
	fetchHostWaitSeconds    prometheus.Histogram
	fetchActiveThreads      prometheus.Gauge
	runsTotal               *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		schedRecordsScanned = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fetchmill_records_scanned_total",
				Help: "Total page records examined by the candidate filter.",
			},
		)

		schedRecordsSkipped = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchmill_records_skipped_total",
				Help: "Records rejected by the candidate filter, labeled by reason.",
			},
			[]string{"reason"},
		)

		schedItemsDispatched = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fetchmill_items_dispatched_total",
				Help: "Work items handed to the fetch executor.",
			},
		)

		schedLaneItems = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fetchmill_lane_items",
				Help: "Work items assigned to each lane in the current run.",
			},
			[]string{"lane"},
		)

		fetchPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchmill_fetch_pages_total",
				Help: "Fetch attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fetchmill_fetch_duration_seconds",
				Help:    "Histogram of single-page fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
		)

		fetchHostWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fetchmill_host_wait_seconds",
				Help:    "Histogram of per-host politeness wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		fetchActiveThreads = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fetchmill_active_fetch_threads",
				Help: "Fetch threads currently processing an item.",
			},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchmill_runs_total",
				Help: "Completed fetch runs, labeled by status.",
			},
			[]string{"status"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScanned counts one examined page record.
func ObserveScanned() {
	if schedRecordsScanned != nil {
		schedRecordsScanned.Inc()
	}
}

// ObserveSkipped counts one filtered-out record.
func ObserveSkipped(reason string) {
	if schedRecordsSkipped != nil {
		schedRecordsSkipped.WithLabelValues(reason).Inc()
	}
}

// ObserveDispatched counts work items handed off to the executor.
func ObserveDispatched(n int) {
	if schedItemsDispatched != nil {
		schedItemsDispatched.Add(float64(n))
	}
}

// SetLaneDepth records the number of items routed to a lane.
func SetLaneDepth(lane string, n int) {
	if schedLaneItems != nil {
		schedLaneItems.WithLabelValues(lane).Set(float64(n))
	}
}

// ObserveFetch records one fetch attempt and its latency.
func ObserveFetch(outcome string, duration time.Duration) {
	if fetchPagesTotal != nil {
		fetchPagesTotal.WithLabelValues(outcome).Inc()
	}
	if fetchDurationSeconds != nil {
		fetchDurationSeconds.Observe(duration.Seconds())
	}
}

// ObserveHostWait records the duration of a politeness wait.
func ObserveHostWait(duration time.Duration) {
	if fetchHostWaitSeconds != nil {
		fetchHostWaitSeconds.Observe(duration.Seconds())
	}
}

// IncActiveThreads increments the active fetch thread gauge.
func IncActiveThreads() {
	if fetchActiveThreads != nil {
		fetchActiveThreads.Inc()
	}
}

// DecActiveThreads decrements the active fetch thread gauge.
func DecActiveThreads() {
	if fetchActiveThreads != nil {
		fetchActiveThreads.Dec()
	}
}

// ObserveRun counts one completed run.
func ObserveRun(status string) {
	if runsTotal != nil {
		runsTotal.WithLabelValues(status).Inc()
	}
}
