// Package telemetry registers this controller's custom Prometheus metrics
// against controller-runtime's global registry, the same registry the
// manager already exposes on its metrics port.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// ReconcileTotal counts reconciles by rollout strategy and outcome phase.
	ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kulta_rollout_reconcile_total",
		Help: "Total number of Rollout reconciles, by strategy and resulting phase.",
	}, []string{"strategy", "phase"})

	// ReconcileDuration observes wall-clock time spent in one Reconcile call.
	ReconcileDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kulta_rollout_reconcile_duration_seconds",
		Help:    "Time spent in one Rollout reconcile, by strategy.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	// PhaseTransitionsTotal counts phase transitions, by strategy and the
	// (old, new) phase pair.
	PhaseTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kulta_rollout_phase_transitions_total",
		Help: "Total number of Rollout phase transitions, by strategy, old phase and new phase.",
	}, []string{"strategy", "from", "to"})
)

func init() {
	metrics.Registry.MustRegister(ReconcileTotal, ReconcileDuration, PhaseTransitionsTotal)
}

// ObserveReconcile records one Reconcile call's duration and outcome.
func ObserveReconcile(strategy, phase string, start time.Time) {
	ReconcileDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	ReconcileTotal.WithLabelValues(strategy, phase).Inc()
}

// ObserveTransition records a phase transition.
func ObserveTransition(strategy, from, to string) {
	PhaseTransitionsTotal.WithLabelValues(strategy, from, to).Inc()
}
