package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry      *prometheus.Registry
	turnsTotal    *prometheus.CounterVec
	turnFailures  prometheus.Counter
	turnDuration  prometheus.Histogram
	finalOutcomes *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Name:      "turns_total",
			Help:      "Completed conversation turns by terminal agent.",
		}, []string{"agent"}),
		turnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "careflow",
			Name:      "turn_failures_total",
			Help:      "Turns that failed before a reply was produced.",
		}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "careflow",
			Name:      "turn_duration_seconds",
			Help:      "Wall time of one conversation turn.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		finalOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Name:      "final_outcomes_total",
			Help:      "Recorded final dispositions by action.",
		}, []string{"action"}),
	}
	m.registry.MustRegister(m.turnsTotal, m.turnFailures, m.turnDuration, m.finalOutcomes)
	return m
}
