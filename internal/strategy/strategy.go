// Package strategy reconciles the child ReplicaSets and traffic split each
// rollout strategy needs to realize whatever internal/status has decided
// the current phase and weight are. It never decides the phase itself.
package strategy

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/replicaset"
	"github.com/kulta-io/kulta/internal/traffic"
)

// Env bundles what every strategy handler needs to reconcile children.
type Env struct {
	Client  client.Client
	Scheme  *runtime.Scheme
	Traffic *traffic.Router
	Rollout *rolloutv1alpha1.Rollout
	Status  rolloutv1alpha1.RolloutStatus
}

// Reconcile dispatches to the handler matching env.Rollout's strategy kind
// and reconciles both the replica split and the traffic split.
func Reconcile(ctx context.Context, env Env) error {
	switch env.Rollout.Spec.Strategy.Kind() {
	case rolloutv1alpha1.StrategyCanary:
		return reconcileCanary(ctx, env)
	case rolloutv1alpha1.StrategyBlueGreen:
		return reconcileBlueGreen(ctx, env)
	case rolloutv1alpha1.StrategyABTesting:
		return reconcileABTesting(ctx, env)
	case rolloutv1alpha1.StrategySimple:
		return reconcileSimple(ctx, env)
	default:
		return fmt.Errorf("strategy: rollout %s/%s sets no recognized strategy branch", env.Rollout.Namespace, env.Rollout.Name)
	}
}

func totalReplicas(r *rolloutv1alpha1.Rollout) int32 {
	if r.Spec.Replicas == nil {
		return 1
	}
	return *r.Spec.Replicas
}

func ensureRole(ctx context.Context, env Env, role replicaset.Role, replicas int32) error {
	desired, err := replicaset.Build(env.Rollout, role, replicas, env.Scheme)
	if err != nil {
		return err
	}
	return replicaset.Ensure(ctx, env.Client, desired)
}
