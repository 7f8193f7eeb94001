package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. Each
// Metrics owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	FilesAnalyzed    *prometheus.CounterVec
	Detections       *prometheus.CounterVec
	Redactions       *prometheus.CounterVec
	Errors           *prometheus.CounterVec
	DetectLatency    prometheus.Histogram
	QueueDepth       prometheus.Gauge
	RetentionRemoved prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FilesAnalyzed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_analyzed_total",
			Help:      "Uploaded files analyzed, by document type.",
		}, []string{"document_type"}),
		Detections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pii_detections_total",
			Help:      "PII matches found, by category and confidence.",
		}, []string{"category", "confidence"}),
		Redactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redactions_total",
			Help:      "Redacted files produced, by output type and mode.",
		}, []string{"document_type", "mode"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed operations by operation and error kind.",
		}, []string{"op", "kind"}),
		DetectLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detect_latency_ms",
			Help:      "Time spent scanning one document for PII in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_queue_depth",
			Help:      "Batch analysis jobs waiting for a worker.",
		}),
		RetentionRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_removed_total",
			Help:      "Stored objects deleted by the retention janitor.",
		}),
	}
}

func (m *Metrics) ObserveDetectLatency(d time.Duration) {
	m.DetectLatency.Observe(float64(d.Microseconds()) / 1000)
}

// Handler serves this registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
