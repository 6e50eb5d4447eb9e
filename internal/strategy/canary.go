package strategy

import (
	"context"

	"github.com/kulta-io/kulta/internal/replicaset"
	"github.com/kulta-io/kulta/internal/traffic"
)

// reconcileCanary splits the total replica pool between the stable and
// canary ReplicaSets per status.CurrentWeight, then steers the same split
// of traffic at the configured Gateway API route, if any.
func reconcileCanary(ctx context.Context, env Env) error {
	total := totalReplicas(env.Rollout)
	canaryCount, stableCount := replicaset.Split(total, env.Status.CurrentWeight)

	if err := ensureRole(ctx, env, replicaset.RoleStable, stableCount); err != nil {
		return err
	}
	if err := ensureRole(ctx, env, replicaset.RoleCanary, canaryCount); err != nil {
		return err
	}

	c := env.Rollout.Spec.Strategy.Canary
	if c.TrafficRouting == nil || c.TrafficRouting.GatewayAPI == nil || env.Traffic == nil {
		return nil
	}
	stableWeight, canaryWeight := traffic.CanaryWeights(env.Status.CurrentWeight)
	backends := []traffic.WeightedBackend{
		{ServiceName: c.StableService, Port: c.Port, Weight: stableWeight},
		{ServiceName: c.CanaryService, Port: c.Port, Weight: canaryWeight},
	}
	return env.Traffic.ApplyWeights(ctx, env.Rollout.Namespace, c.TrafficRouting.GatewayAPI.HTTPRoute, backends)
}
