package butterbrot

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of one run. Each run gets its own
// registry so concurrent engines (and tests) never share counters.
type Metrics struct {
	Registry *prometheus.Registry

	accepted  prometheus.Counter
	rejected  prometheus.Counter
	invalid   prometheus.Counter
	points    prometheus.Counter
	flushes   prometheus.Counter
	remaining *prometheus.GaugeVec
	flushTime prometheus.Histogram
}

// NewMetrics registers the butterbrot collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		accepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "butterbrot",
			Name:      "samples_accepted_total",
			Help:      "Accepted Metropolis-Hastings transitions, warm-up excluded",
		}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: "butterbrot",
			Name:      "proposals_rejected_total",
			Help:      "Escaping candidates refused by the acceptance test",
		}),
		invalid: f.NewCounter(prometheus.CounterOpts{
			Namespace: "butterbrot",
			Name:      "proposals_invalid_total",
			Help:      "Candidates that did not escape within the iteration cap",
		}),
		points: f.NewCounter(prometheus.CounterOpts{
			Namespace: "butterbrot",
			Name:      "points_total",
			Help:      "Orbit points written into the histogram",
		}),
		flushes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "butterbrot",
			Name:      "flushes_total",
			Help:      "Write-back phases flushed into the histogram",
		}),
		remaining: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "butterbrot",
			Name:      "worker_remaining",
			Help:      "Samples left per worker",
		}, []string{"worker"}),
		flushTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "butterbrot",
			Name:      "flush_duration_seconds",
			Help:      "Time spent holding the histogram lock per flush",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// observePhase records one worker phase. Nil receivers are ignored.
func (m *Metrics) observePhase(worker int, delta SamplerStats, points int, held time.Duration, remaining int) {
	if m == nil {
		return
	}
	m.accepted.Add(float64(delta.Accepted))
	m.rejected.Add(float64(delta.Rejected))
	m.invalid.Add(float64(delta.Invalid))
	m.points.Add(float64(points))
	m.flushes.Inc()
	m.flushTime.Observe(held.Seconds())
	m.remaining.WithLabelValues(strconv.Itoa(worker)).Set(float64(remaining))
}
