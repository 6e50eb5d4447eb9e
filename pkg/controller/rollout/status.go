/*
Copyright 2022 Kruise Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rollout

import (
	"context"
	"reflect"

	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"k8s.io/klog/v2"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

// updateRolloutStatus writes newStatus to the status subresource if it
// differs from rollout's current status, re-reading and retrying on a
// write conflict rather than failing the reconcile outright.
func (r *RolloutReconciler) updateRolloutStatus(ctx context.Context, rollout *rolloutv1alpha1.Rollout, newStatus rolloutv1alpha1.RolloutStatus) error {
	if reflect.DeepEqual(rollout.Status, newStatus) {
		return nil
	}
	key := types.NamespacedName{Namespace: rollout.Namespace, Name: rollout.Name}
	err := retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		latest := &rolloutv1alpha1.Rollout{}
		if err := r.Get(ctx, key, latest); err != nil {
			return err
		}
		latest.Status = newStatus
		return r.Status().Update(ctx, latest)
	})
	if err != nil {
		return err
	}
	klog.Infof("rollout(%s/%s) status phase %s -> %s", rollout.Namespace, rollout.Name, rollout.Status.Phase, newStatus.Phase)
	rollout.Status = newStatus
	return nil
}

// setCondition upserts a condition by type, stamping transition time only
// when status actually changes.
func setCondition(status *rolloutv1alpha1.RolloutStatus, newCond rolloutv1alpha1.RolloutCondition) {
	for i, c := range status.Conditions {
		if c.Type == newCond.Type {
			if c.Status != newCond.Status {
				newCond.LastTransitionTime = newCond.LastUpdateTime
			} else {
				newCond.LastTransitionTime = c.LastTransitionTime
			}
			status.Conditions[i] = newCond
			return
		}
	}
	newCond.LastTransitionTime = newCond.LastUpdateTime
	status.Conditions = append(status.Conditions, newCond)
}
