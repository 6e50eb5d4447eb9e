package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReconcileIncrementsCounterAndHistogram(t *testing.T) {
	ReconcileTotal.Reset()
	ReconcileDuration.Reset()

	before := testutil.ToFloat64(ReconcileTotal.WithLabelValues("canary", "Progressing"))
	ObserveReconcile("canary", "Progressing", time.Now().Add(-10*time.Millisecond))
	after := testutil.ToFloat64(ReconcileTotal.WithLabelValues("canary", "Progressing"))

	if after != before+1 {
		t.Fatalf("ReconcileTotal = %v, want %v", after, before+1)
	}
	if count := testutil.CollectAndCount(ReconcileDuration); count == 0 {
		t.Fatal("expected ReconcileDuration to have observed at least one sample")
	}
}

func TestObserveTransitionIncrementsCounter(t *testing.T) {
	PhaseTransitionsTotal.Reset()

	ObserveTransition("blueGreen", "Preview", "Completed")
	got := testutil.ToFloat64(PhaseTransitionsTotal.WithLabelValues("blueGreen", "Preview", "Completed"))
	if got != 1 {
		t.Fatalf("PhaseTransitionsTotal = %v, want 1", got)
	}
}
