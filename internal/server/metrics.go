package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for the run service.
type Metrics struct {
	RunsStarted  prometheus.Counter
	RunsFinished *prometheus.CounterVec
	StepsTotal   prometheus.Counter
	RunDuration  prometheus.Histogram
	RunningGauge prometheus.Gauge
}

// NewMetrics registers the run service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lahc",
			Name:      "runs_started_total",
			Help:      "Number of search runs started.",
		}),
		RunsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lahc",
			Name:      "runs_finished_total",
			Help:      "Number of search runs finished, by terminal status.",
		}, []string{"status"}),
		StepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lahc",
			Name:      "steps_total",
			Help:      "Total search steps attempted across all runs.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lahc",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of finished search runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		RunningGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lahc",
			Name:      "runs_running",
			Help:      "Number of search runs currently in flight.",
		}),
	}
}
