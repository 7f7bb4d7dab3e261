package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "streamer"

// Metrics holds the Prometheus counters, histograms, and gauges for the streamer.
type Metrics struct {
	Batches            *prometheus.CounterVec
	DocumentsIndexed   prometheus.Counter
	DocumentsFailed    prometheus.Counter
	EventsDropped      prometheus.Counter
	DecodeErrors       prometheus.Counter
	BulkRequests       *prometheus.CounterVec
	BulkDuration       prometheus.Histogram
	ProcessingDuration prometheus.Histogram
	PipelineRunning    prometheus.Gauge
}

// NewMetrics creates and registers all streamer metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Batches,
		m.DocumentsIndexed,
		m.DocumentsFailed,
		m.EventsDropped,
		m.DecodeErrors,
		m.BulkRequests,
		m.BulkDuration,
		m.ProcessingDuration,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Subscription batches processed, by parsing strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		DocumentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Bulk items the search cluster accepted.",
		}),
		DocumentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_failed_total",
			Help:      "Bulk items the search cluster rejected.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Log events that produced no document.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Payloads that could not be decoded into a log batch.",
		}),
		BulkRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_requests_total",
			Help:      "Bulk requests sent, by outcome.",
		}, []string{"status"}),
		BulkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_request_duration_seconds",
			Help:      "Latency of bulk requests to the search cluster.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Duration of a single decode-transform-deliver cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the consumer loop is active, 0 when shut down.",
		}),
	}
}
