// Package metrics exposes the Prometheus counters of the import and export
// pipelines.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type importMetrics struct {
	rows       *prometheus.CounterVec
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	uploads    *prometheus.CounterVec
	exports    *prometheus.CounterVec
	backfilled prometheus.Counter
}

var (
	once     sync.Once
	registry *importMetrics
)

func get() *importMetrics {
	once.Do(func() {
		registry = &importMetrics{
			rows: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "orderops",
				Subsystem: "import",
				Name:      "rows_total",
				Help:      "Reconciled rows segmented by import kind and outcome.",
			}, []string{"kind", "status"}),
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "orderops",
				Subsystem: "import",
				Name:      "runs_total",
				Help:      "Import runs segmented by kind and result.",
			}, []string{"kind", "result"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "orderops",
				Subsystem: "import",
				Name:      "run_duration_seconds",
				Help:      "Wall time of one import run.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"kind"}),
			uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "orderops",
				Subsystem: "mall",
				Name:      "uploads_total",
				Help:      "Shopping-mall uploads segmented by mall and result.",
			}, []string{"mall", "result"}),
			exports: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "orderops",
				Subsystem: "mall",
				Name:      "exports_total",
				Help:      "Reconstructed exports segmented by mall and result.",
			}, []string{"mall", "result"}),
			backfilled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "orderops",
				Subsystem: "orders",
				Name:      "manufacturer_backfilled_total",
				Help:      "Order lines that received a manufacturer after the fact.",
			}),
		}
		prometheus.MustRegister(
			registry.rows,
			registry.runs,
			registry.duration,
			registry.uploads,
			registry.exports,
			registry.backfilled,
		)
	})
	return registry
}

// ObserveRow counts one reconciled row.
func ObserveRow(kind, status string) {
	get().rows.WithLabelValues(kind, status).Inc()
}

// ObserveRun records a finished import run. result is "ok" or "failed".
func ObserveRun(kind, result string, elapsed time.Duration) {
	m := get()
	m.runs.WithLabelValues(kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveUpload counts a mall upload; result is "accepted", "duplicate" or "failed".
func ObserveUpload(mall, result string) {
	get().uploads.WithLabelValues(mall, result).Inc()
}

func ObserveExport(mall, result string) {
	get().exports.WithLabelValues(mall, result).Inc()
}

func AddBackfilled(n int64) {
	if n > 0 {
		get().backfilled.Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	get()
	return promhttp.Handler()
}
