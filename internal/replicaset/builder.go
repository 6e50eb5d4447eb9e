// Package replicaset builds and reconciles the ReplicaSet objects a Rollout
// owns: one per (strategy-defined role, revision).
package replicaset

import (
	"context"
	"fmt"
	"math"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/fingerprint"
	"github.com/kulta-io/kulta/internal/kerrors"
)

// Role names the position a ReplicaSet plays for its strategy.
type Role string

const (
	RoleStable    Role = "stable"
	RoleCanary    Role = "canary"
	RoleActive    Role = "active"
	RolePreview   Role = "preview"
	RoleVariantA  Role = "variant-a"
	RoleVariantB  Role = "variant-b"
	RoleSimple    Role = "simple"
)

// Name returns the deterministic child name for (rollout, role, fingerprint).
// Role "simple" is exempt from the fingerprint suffix: that strategy manages
// a single in-place-updated ReplicaSet rather than retiring old revisions,
// so it keeps the bare rollout name stable across template changes.
func Name(rolloutName string, role Role, hash string) string {
	if role == RoleSimple {
		return rolloutName
	}
	return fmt.Sprintf("%s-%s-%s", rolloutName, role, hash)
}

// Build constructs (but does not create) the desired ReplicaSet for role,
// stamped with the pod-template fingerprint and owned by rollout.
func Build(rollout *rolloutv1alpha1.Rollout, role Role, replicas int32, scheme *runtime.Scheme) (*appsv1.ReplicaSet, error) {
	hash := fingerprint.PodTemplate(&rollout.Spec.Template)

	labels := map[string]string{}
	for k, v := range rollout.Spec.Selector.MatchLabels {
		labels[k] = v
	}
	labels[rolloutv1alpha1.LabelPodTemplateHash] = hash
	labels[rolloutv1alpha1.LabelRole] = string(role)
	labels[rolloutv1alpha1.LabelManaged] = "true"

	template := *rollout.Spec.Template.DeepCopy()
	if template.Labels == nil {
		template.Labels = map[string]string{}
	}
	for k, v := range labels {
		template.Labels[k] = v
	}

	rs := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      Name(rollout.Name, role, hash),
			Namespace: rollout.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.ReplicaSetSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: template,
		},
	}

	if err := controllerutil.SetControllerReference(rollout, rs, scheme); err != nil {
		return nil, fmt.Errorf("set owner reference on replicaset %s: %w", rs.Name, err)
	}
	return rs, nil
}

// Ensure applies an idempotent get-or-create-then-patch-replicas to the
// given desired ReplicaSet: create it if absent, otherwise patch only the
// replica count when it has drifted. A ReplicaSet found under the desired
// name but carrying a different pod-template-hash label is a foreign
// revision and is left untouched rather than patched: its replicas stay
// exactly as they are until the strategy handler retires it.
func Ensure(ctx context.Context, c client.Client, desired *appsv1.ReplicaSet) error {
	existing := &appsv1.ReplicaSet{}
	key := types.NamespacedName{Namespace: desired.Namespace, Name: desired.Name}
	err := c.Get(ctx, key, existing)
	if apierrors.IsNotFound(err) {
		if err := c.Create(ctx, desired); err != nil {
			return kerrors.Classify(fmt.Errorf("create replicaset %s: %w", desired.Name, err))
		}
		klog.Infof("replicaset %s/%s created", desired.Namespace, desired.Name)
		return nil
	}
	if err != nil {
		return kerrors.Classify(fmt.Errorf("get replicaset %s: %w", desired.Name, err))
	}

	wantHash := desired.Labels[rolloutv1alpha1.LabelPodTemplateHash]
	gotHash := existing.Labels[rolloutv1alpha1.LabelPodTemplateHash]
	if wantHash != gotHash {
		klog.Infof("replicaset %s/%s carries pod-template-hash %s, not the desired %s; leaving it alone", existing.Namespace, existing.Name, gotHash, wantHash)
		return nil
	}

	if existing.Spec.Replicas != nil && desired.Spec.Replicas != nil && *existing.Spec.Replicas == *desired.Spec.Replicas {
		return nil
	}
	patch := client.MergeFrom(existing.DeepCopy())
	existing.Spec.Replicas = desired.Spec.Replicas
	if err := c.Patch(ctx, existing, patch); err != nil {
		return kerrors.Classify(fmt.Errorf("patch replicaset %s replicas: %w", desired.Name, err))
	}
	klog.Infof("replicaset %s/%s replicas -> %d", existing.Namespace, existing.Name, *desired.Spec.Replicas)
	return nil
}

// Get fetches an owned ReplicaSet by (role, fingerprint), returning
// (nil, nil) if that exact revision is absent.
func Get(ctx context.Context, c client.Client, namespace, rolloutName string, role Role, hash string) (*appsv1.ReplicaSet, error) {
	rs := &appsv1.ReplicaSet{}
	key := types.NamespacedName{Namespace: namespace, Name: Name(rolloutName, role, hash)}
	err := c.Get(ctx, key, rs)
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, kerrors.Classify(err)
	}
	return rs, nil
}

// Split computes the canary replica count for a total pool of size total at
// weight percent (0-100): ceil(total*weight/100), with weight==0 forced to
// 0 and weight==100 forced to total so rounding never strands one pod on
// the wrong side at the ends of the ramp.
func Split(total, weight int32) (canary, stable int32) {
	switch {
	case weight <= 0:
		return 0, total
	case weight >= 100:
		return total, 0
	}
	canary = int32(math.Ceil(float64(total) * float64(weight) / 100.0))
	return canary, total - canary
}

// PodSpecHash is exported for status code that needs to compare the current
// template fingerprint without pulling in the replicaset type.
func PodSpecHash(rollout *rolloutv1alpha1.Rollout) string {
	return fingerprint.PodTemplate(&rollout.Spec.Template)
}
