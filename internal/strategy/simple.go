package strategy

import (
	"context"

	"github.com/kulta-io/kulta/internal/replicaset"
)

// reconcileSimple scales a single ReplicaSet directly to spec.replicas: no
// ramp, no traffic split, no second revision kept alive.
func reconcileSimple(ctx context.Context, env Env) error {
	return ensureRole(ctx, env, replicaset.RoleSimple, totalReplicas(env.Rollout))
}
