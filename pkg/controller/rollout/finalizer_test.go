package rollout

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	gatewayv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

func TestHandleFinalizerAddsFinalizerOnLiveRollout(t *testing.T) {
	scheme := newScheme(t)
	rollout := &rolloutv1alpha1.Rollout{ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "default"}}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(rollout.DeepCopy()).Build()
	r := &RolloutReconciler{Client: c}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: rollout.Namespace, Name: rollout.Name}, rollout); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	done, err := r.handleFinalizer(context.Background(), rollout)
	if err != nil {
		t.Fatalf("handleFinalizer returned error: %v", err)
	}
	if !done {
		t.Fatal("expected handleFinalizer to report done after adding the finalizer")
	}
	if !controllerutil.ContainsFinalizer(rollout, rolloutFinalizer) {
		t.Fatal("expected the finalizer to be added")
	}
}

func TestHandleFinalizerIsNoopWhenAlreadyPresent(t *testing.T) {
	scheme := newScheme(t)
	rollout := &rolloutv1alpha1.Rollout{ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "default", Finalizers: []string{rolloutFinalizer}}}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(rollout.DeepCopy()).Build()
	r := &RolloutReconciler{Client: c}

	done, err := r.handleFinalizer(context.Background(), rollout)
	if err != nil {
		t.Fatalf("handleFinalizer returned error: %v", err)
	}
	if !done {
		t.Fatal("expected handleFinalizer to report done when the finalizer is already present")
	}
}

func TestResetTrafficRoutesEverythingBackToStable(t *testing.T) {
	scheme := newScheme(t)
	route := &gatewayv1beta1.HTTPRoute{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-route", Namespace: "default"},
		Spec:       gatewayv1beta1.HTTPRouteSpec{Rules: []gatewayv1beta1.HTTPRouteRule{{}}},
	}
	rollout := &rolloutv1alpha1.Rollout{
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "default"},
		Spec: rolloutv1alpha1.RolloutSpec{
			Strategy: rolloutv1alpha1.RolloutStrategy{
				Canary: &rolloutv1alpha1.CanaryStrategy{
					StableService: "demo-stable",
					CanaryService: "demo-canary",
					TrafficRouting: &rolloutv1alpha1.TrafficRouting{
						GatewayAPI: &rolloutv1alpha1.GatewayAPITrafficRouting{HTTPRoute: "demo-route"},
					},
				},
			},
		},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(route).Build()
	r := &RolloutReconciler{Client: c}

	if err := r.resetTraffic(context.Background(), rollout); err != nil {
		t.Fatalf("resetTraffic returned error: %v", err)
	}

	got := &gatewayv1beta1.HTTPRoute{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "demo-route"}, got); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	refs := got.Spec.Rules[0].BackendRefs
	if len(refs) != 2 || *refs[0].Weight != 100 || *refs[1].Weight != 0 {
		t.Fatalf("expected traffic reset to 100/0, got %+v", refs)
	}
}

func TestHandleFinalizerOnDeletedRolloutResetsTrafficAndRemovesFinalizer(t *testing.T) {
	scheme := newScheme(t)
	now := metav1.Now()
	rollout := &rolloutv1alpha1.Rollout{
		ObjectMeta: metav1.ObjectMeta{
			Name: "demo", Namespace: "default",
			Finalizers:        []string{rolloutFinalizer},
			DeletionTimestamp: &now,
		},
		Spec: rolloutv1alpha1.RolloutSpec{
			Strategy: rolloutv1alpha1.RolloutStrategy{Simple: &rolloutv1alpha1.SimpleStrategy{}},
		},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(rollout.DeepCopy()).Build()
	r := &RolloutReconciler{Client: c}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: rollout.Namespace, Name: rollout.Name}, rollout); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	done, err := r.handleFinalizer(context.Background(), rollout)
	if err != nil {
		t.Fatalf("handleFinalizer returned error: %v", err)
	}
	if !done {
		t.Fatal("expected handleFinalizer to finish for a strategy with no traffic routing to reset")
	}
	if controllerutil.ContainsFinalizer(rollout, rolloutFinalizer) {
		t.Fatal("expected the finalizer to be removed")
	}
}
