package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxbot_pipeline_outcomes_total",
			Help: "Terminal pipeline outcomes by category.",
		}, []string{"category"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxbot_pipeline_duration_seconds",
			Help:    "Wall-clock time of one pipeline invocation.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// ObserveOutcome is safe on a nil receiver so the pipeline can run
// without metrics wired (tests, one-shot CLI use).
func (m *Metrics) ObserveOutcome(category string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(category).Inc()
	m.duration.Observe(elapsed.Seconds())
}
