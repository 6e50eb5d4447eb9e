package rollout

import (
	"context"
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	gatewayv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

// newScheme is shared by every test file in this package: it registers the
// types any Reconcile call might touch (the Rollout itself, the
// ReplicaSets it creates, and the HTTPRoutes it patches).
func newScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	for _, add := range []func(*runtime.Scheme) error{
		rolloutv1alpha1.AddToScheme,
		appsv1.AddToScheme,
		gatewayv1beta1.AddToScheme,
	} {
		if err := add(scheme); err != nil {
			t.Fatalf("AddToScheme: %v", err)
		}
	}
	return scheme
}

func TestUpdateRolloutStatusIsNoopWhenUnchanged(t *testing.T) {
	scheme := newScheme(t)
	rollout := &rolloutv1alpha1.Rollout{
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "default"},
		Status:     rolloutv1alpha1.RolloutStatus{Phase: rolloutv1alpha1.RolloutPhaseProgressing},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(rollout.DeepCopy()).Build()
	r := &RolloutReconciler{Client: c}

	if err := r.updateRolloutStatus(context.Background(), rollout, rollout.Status); err != nil {
		t.Fatalf("updateRolloutStatus returned error: %v", err)
	}
}

func TestUpdateRolloutStatusWritesNewStatus(t *testing.T) {
	scheme := newScheme(t)
	rollout := &rolloutv1alpha1.Rollout{
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "default"},
		Status:     rolloutv1alpha1.RolloutStatus{Phase: rolloutv1alpha1.RolloutPhaseProgressing},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(rollout.DeepCopy()).Build()
	r := &RolloutReconciler{Client: c}

	newStatus := rolloutv1alpha1.RolloutStatus{Phase: rolloutv1alpha1.RolloutPhaseCompleted, CurrentWeight: 100}
	if err := r.updateRolloutStatus(context.Background(), rollout, newStatus); err != nil {
		t.Fatalf("updateRolloutStatus returned error: %v", err)
	}
	if rollout.Status.Phase != rolloutv1alpha1.RolloutPhaseCompleted {
		t.Fatalf("expected the passed-in rollout to reflect the new status, got %v", rollout.Status.Phase)
	}

	got := &rolloutv1alpha1.Rollout{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "demo"}, got); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status.Phase != rolloutv1alpha1.RolloutPhaseCompleted {
		t.Fatalf("persisted status.Phase = %v, want Completed", got.Status.Phase)
	}
}

func TestSetConditionAppendsNewConditionType(t *testing.T) {
	status := &rolloutv1alpha1.RolloutStatus{}
	now := metav1.NewTime(time.Now())
	setCondition(status, rolloutv1alpha1.RolloutCondition{
		Type:           rolloutv1alpha1.RolloutConditionProgressing,
		Status:         corev1.ConditionTrue,
		LastUpdateTime: now,
		Reason:         "Progressing",
	})
	if len(status.Conditions) != 1 {
		t.Fatalf("expected one condition, got %d", len(status.Conditions))
	}
	if status.Conditions[0].LastTransitionTime != now {
		t.Fatalf("expected LastTransitionTime to be stamped on first insert")
	}
}

func TestSetConditionPreservesTransitionTimeWhenStatusUnchanged(t *testing.T) {
	status := &rolloutv1alpha1.RolloutStatus{}
	first := metav1.NewTime(time.Now().Add(-time.Hour))
	setCondition(status, rolloutv1alpha1.RolloutCondition{
		Type:           rolloutv1alpha1.RolloutConditionProgressing,
		Status:         corev1.ConditionTrue,
		LastUpdateTime: first,
		Reason:         "Progressing",
	})

	second := metav1.NewTime(time.Now())
	setCondition(status, rolloutv1alpha1.RolloutCondition{
		Type:           rolloutv1alpha1.RolloutConditionProgressing,
		Status:         corev1.ConditionTrue,
		LastUpdateTime: second,
		Reason:         "StillProgressing",
	})

	if len(status.Conditions) != 1 {
		t.Fatalf("expected the condition to be upserted in place, got %d entries", len(status.Conditions))
	}
	if status.Conditions[0].LastTransitionTime != first {
		t.Fatalf("expected LastTransitionTime to stay at the original transition when status didn't change")
	}
	if status.Conditions[0].Reason != "StillProgressing" {
		t.Fatalf("expected Reason to be updated even when status didn't change")
	}
}

func TestSetConditionUpdatesTransitionTimeWhenStatusChanges(t *testing.T) {
	status := &rolloutv1alpha1.RolloutStatus{}
	first := metav1.NewTime(time.Now().Add(-time.Hour))
	setCondition(status, rolloutv1alpha1.RolloutCondition{
		Type:           rolloutv1alpha1.RolloutConditionProgressing,
		Status:         corev1.ConditionTrue,
		LastUpdateTime: first,
	})

	second := metav1.NewTime(time.Now())
	setCondition(status, rolloutv1alpha1.RolloutCondition{
		Type:           rolloutv1alpha1.RolloutConditionProgressing,
		Status:         corev1.ConditionFalse,
		LastUpdateTime: second,
	})

	if status.Conditions[0].LastTransitionTime != second {
		t.Fatalf("expected LastTransitionTime to move forward when status flips")
	}
}
