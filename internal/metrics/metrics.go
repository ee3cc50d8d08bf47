// Package metrics exposes Prometheus instrumentation for the scrape
// pipeline — phase outcome counts and phase duration histograms, so an
// operator can see where time and failures concentrate without reading logs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	phaseOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scrapeservice",
		Name:      "phase_outcomes_total",
		Help:      "Count of phase completions by phase and outcome kind.",
	}, []string{"phase", "outcome"})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scrapeservice",
		Name:      "phase_duration_seconds",
		Help:      "Phase wall-clock duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"phase"})
)

// RecordPhaseOutcome increments the outcome counter for a phase.
func RecordPhaseOutcome(phase, outcome string) {
	phaseOutcomes.WithLabelValues(phase, outcome).Inc()
}

// ObservePhaseDuration records how long a phase took.
func ObservePhaseDuration(phase string, seconds float64) {
	phaseDuration.WithLabelValues(phase).Observe(seconds)
}
