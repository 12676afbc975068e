package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the writer queue collectors. A nil *Metrics records nothing.
type Metrics struct {
	Enqueued  prometheus.Counter
	Processed *prometheus.CounterVec
	Failed    *prometheus.CounterVec
	Depth     prometheus.Gauge
	Duration  *prometheus.HistogramVec
}

// NewMetrics registers the queue collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Jobs accepted onto the queue
		Enqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tasklist",
			Subsystem: "writer_queue",
			Name:      "jobs_enqueued_total",
			Help:      "Total number of mutations accepted by the writer queue",
		}),

		// Jobs executed, successful or not
		Processed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasklist",
			Subsystem: "writer_queue",
			Name:      "jobs_processed_total",
			Help:      "Total number of mutations executed by the writer queue",
		}, []string{"op"}),

		Failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasklist",
			Subsystem: "writer_queue",
			Name:      "jobs_failed_total",
			Help:      "Total number of mutations that failed, by error code",
		}, []string{"op", "code"}),

		Depth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tasklist",
			Subsystem: "writer_queue",
			Name:      "depth",
			Help:      "Mutations waiting to be executed",
		}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tasklist",
			Subsystem: "writer_queue",
			Name:      "job_duration_seconds",
			Help:      "Time spent executing a mutation",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
	}
}

func (m *Metrics) enqueued() {
	if m == nil {
		return
	}
	m.Enqueued.Inc()
	m.Depth.Inc()
}

func (m *Metrics) dequeued() {
	if m == nil {
		return
	}
	m.Depth.Dec()
}

func (m *Metrics) observe(op string, d time.Duration, code string) {
	if m == nil {
		return
	}
	m.Processed.WithLabelValues(op).Inc()
	m.Duration.WithLabelValues(op).Observe(d.Seconds())
	if code != "" {
		m.Failed.WithLabelValues(op, code).Inc()
	}
}
