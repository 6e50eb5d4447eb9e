package strategy

import (
	"context"

	"github.com/kulta-io/kulta/internal/replicaset"
	"github.com/kulta-io/kulta/internal/traffic"
)

// reconcileABTesting runs both variants at full capacity — each gets the
// rollout's entire replica count, for a fair comparison — and, when a
// match rule is configured, steers matched requests entirely to variant B
// while everything else falls back to variant A, so the split is by request
// attribute rather than by replica count. Without a match rule, traffic is
// split 50/50 by weight between the two variants.
func reconcileABTesting(ctx context.Context, env Env) error {
	total := totalReplicas(env.Rollout)

	if err := ensureRole(ctx, env, replicaset.RoleVariantA, total); err != nil {
		return err
	}
	if err := ensureRole(ctx, env, replicaset.RoleVariantB, total); err != nil {
		return err
	}

	ab := env.Rollout.Spec.Strategy.ABTesting
	if ab.TrafficRouting == nil || ab.TrafficRouting.GatewayAPI == nil || env.Traffic == nil {
		return nil
	}
	route := ab.TrafficRouting.GatewayAPI.HTTPRoute

	if ab.VariantBMatch == nil {
		backends := []traffic.WeightedBackend{
			{ServiceName: ab.VariantAService, Port: ab.Port, Weight: 50},
			{ServiceName: ab.VariantBService, Port: ab.Port, Weight: 50},
		}
		return env.Traffic.ApplyWeights(ctx, env.Rollout.Namespace, route, backends)
	}

	match := traffic.MatchBackend{
		WeightedBackend: traffic.WeightedBackend{ServiceName: ab.VariantBService, Port: ab.Port, Weight: 100},
		Header:          ab.VariantBMatch.Header,
		HeaderValue:     ab.VariantBMatch.HeaderValue,
		Cookie:          ab.VariantBMatch.Cookie,
		CookieValue:     ab.VariantBMatch.CookieValue,
	}
	fallback := traffic.WeightedBackend{ServiceName: ab.VariantAService, Port: ab.Port, Weight: 100}
	return env.Traffic.ApplyMatch(ctx, env.Rollout.Namespace, route, match, fallback)
}
