package strategy

import (
	"context"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/replicaset"
	"github.com/kulta-io/kulta/internal/traffic"
)

// reconcileBlueGreen keeps both the active and preview ReplicaSets scaled
// to the full replica count at all times — blue-green trades the resource
// cost of double capacity for an instantaneous, fully-baked cutover — and
// steers traffic entirely to preview only once status.Phase has promoted
// to Completed.
func reconcileBlueGreen(ctx context.Context, env Env) error {
	total := totalReplicas(env.Rollout)

	if err := ensureRole(ctx, env, replicaset.RoleActive, total); err != nil {
		return err
	}
	if err := ensureRole(ctx, env, replicaset.RolePreview, total); err != nil {
		return err
	}

	bg := env.Rollout.Spec.Strategy.BlueGreen
	if bg.TrafficRouting == nil || bg.TrafficRouting.GatewayAPI == nil || env.Traffic == nil {
		return nil
	}
	promoted := env.Status.Phase == rolloutv1alpha1.RolloutPhaseCompleted
	activeWeight, previewWeight := traffic.BlueGreenWeights(promoted)
	backends := []traffic.WeightedBackend{
		{ServiceName: bg.ActiveService, Port: bg.Port, Weight: activeWeight},
		{ServiceName: bg.PreviewService, Port: bg.Port, Weight: previewWeight},
	}
	return env.Traffic.ApplyWeights(ctx, env.Rollout.Namespace, bg.TrafficRouting.GatewayAPI.HTTPRoute, backends)
}
