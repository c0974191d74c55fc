package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors of a pipeline.
type Metrics struct {
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	Builds        prometheus.Counter
	Failures      *prometheus.CounterVec // by stage
	BuildDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg, if reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emojifont",
			Name:      "cache_hits_total",
			Help:      "Requests served from the result cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emojifont",
			Name:      "cache_misses_total",
			Help:      "Requests not found in the result cache.",
		}),
		Builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emojifont",
			Name:      "builds_total",
			Help:      "Pipeline runs building a subset font.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emojifont",
			Name:      "failures_total",
			Help:      "Failed pipeline runs, by stage.",
		}, []string{"stage"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "emojifont",
			Name:      "build_duration_seconds",
			Help:      "Duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheHits, m.CacheMisses, m.Builds, m.Failures, m.BuildDuration)
	}
	return m
}
