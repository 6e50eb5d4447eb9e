// Package leader gates write operations on holding an explicit
// coordination.k8s.io Lease, re-read on every call rather than cached for
// the controller process's lifetime.
package leader

import (
	"context"
	"fmt"
	"time"

	coordinationv1 "k8s.io/api/coordination/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const (
	// LeaseDuration is how long a held lease stays valid without renewal.
	LeaseDuration = 15 * time.Second
	// RenewInterval is how long before expiry the gate renews a held lease.
	RenewInterval = 5 * time.Second
)

// Gate decides, fresh on every call, whether this process may perform
// write operations for a given lease name.
type Gate struct {
	client    client.Client
	namespace string
	identity  string
}

// New builds a Gate. identity should be unique per process (e.g. pod name).
func New(c client.Client, namespace, identity string) *Gate {
	return &Gate{client: c, namespace: namespace, identity: identity}
}

// IsLeader re-reads the Lease named leaseName and reports whether this
// process currently holds it, acquiring or renewing it if eligible. Any
// error reading or writing the lease is treated as "not leader": the gate
// fails closed rather than risk two processes writing concurrently.
func (g *Gate) IsLeader(ctx context.Context, leaseName string) bool {
	now := metav1.NowMicro()
	leader := false

	err := retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		lease := &coordinationv1.Lease{}
		key := types.NamespacedName{Namespace: g.namespace, Name: leaseName}
		err := g.client.Get(ctx, key, lease)
		if apierrors.IsNotFound(err) {
			lease = newLease(g.namespace, leaseName, g.identity, now)
			if err := g.client.Create(ctx, lease); err != nil {
				return err
			}
			leader = true
			return nil
		}
		if err != nil {
			return err
		}

		holder := ""
		if lease.Spec.HolderIdentity != nil {
			holder = *lease.Spec.HolderIdentity
		}
		expired := isExpired(lease, now.Time)

		switch {
		case holder == g.identity:
			leader = true
			if !isExpired(lease, now.Time.Add(RenewInterval)) {
				return nil
			}
			// still ours, just renew the timer below.
		case expired:
			leader = true
		default:
			leader = false
			return nil
		}

		lease.Spec.HolderIdentity = &g.identity
		lease.Spec.RenewTime = &now
		duration := int32(LeaseDuration.Seconds())
		lease.Spec.LeaseDurationSeconds = &duration
		return g.client.Update(ctx, lease)
	})

	if err != nil {
		klog.Warningf("leader gate: lease %s/%s unavailable, treating as not-leader: %v", g.namespace, leaseName, err)
		return false
	}
	return leader
}

func isExpired(lease *coordinationv1.Lease, now time.Time) bool {
	if lease.Spec.RenewTime == nil || lease.Spec.LeaseDurationSeconds == nil {
		return true
	}
	deadline := lease.Spec.RenewTime.Add(time.Duration(*lease.Spec.LeaseDurationSeconds) * time.Second)
	return now.After(deadline)
}

func newLease(namespace, name, identity string, now metav1.MicroTime) *coordinationv1.Lease {
	duration := int32(LeaseDuration.Seconds())
	return &coordinationv1.Lease{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: coordinationv1.LeaseSpec{
			HolderIdentity:       &identity,
			RenewTime:            &now,
			LeaseDurationSeconds: &duration,
		},
	}
}

// Name returns a deterministic lease name for a given rollout controller
// instance, so multiple Rollout controllers in the same namespace (there is
// normally only one) don't collide.
func Name(controllerName string) string {
	return fmt.Sprintf("%s-leader", controllerName)
}
