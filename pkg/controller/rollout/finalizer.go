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

	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/traffic"
)

// rolloutFinalizer is held while a rollout's traffic split might still be
// mid-ramp, so deleting a Rollout never leaves a Gateway API route frozen
// pointed partly at a revision that is about to disappear.
const rolloutFinalizer = "rollouts.kulta.io/cleanup"

// handleFinalizer adds rolloutFinalizer on first sight of a live rollout,
// or — on a deleted rollout — resets traffic to the stable/active backend
// and removes the finalizer once that settles.
func (r *RolloutReconciler) handleFinalizer(ctx context.Context, rollout *rolloutv1alpha1.Rollout) (done bool, err error) {
	if rollout.DeletionTimestamp.IsZero() {
		if controllerutil.ContainsFinalizer(rollout, rolloutFinalizer) {
			return true, nil
		}
		controllerutil.AddFinalizer(rollout, rolloutFinalizer)
		if err := r.Update(ctx, rollout); err != nil {
			return false, err
		}
		klog.Infof("rollout(%s/%s) finalizer added", rollout.Namespace, rollout.Name)
		return true, nil
	}

	if !controllerutil.ContainsFinalizer(rollout, rolloutFinalizer) {
		return true, nil
	}

	if err := r.resetTraffic(ctx, rollout); err != nil {
		klog.Errorf("rollout(%s/%s) traffic reset on delete failed: %v", rollout.Namespace, rollout.Name, err)
		return false, err
	}

	controllerutil.RemoveFinalizer(rollout, rolloutFinalizer)
	if err := r.Update(ctx, rollout); err != nil {
		return false, err
	}
	klog.Infof("rollout(%s/%s) finalizer removed", rollout.Namespace, rollout.Name)
	return true, nil
}

// resetTraffic routes all traffic back to the stable/active backend for
// whichever strategy is configured, so an in-progress ramp or experiment
// never outlives the Rollout object that was steering it.
func (r *RolloutReconciler) resetTraffic(ctx context.Context, rollout *rolloutv1alpha1.Rollout) error {
	router := &traffic.Router{Client: r.Client}
	switch rollout.Spec.Strategy.Kind() {
	case rolloutv1alpha1.StrategyCanary:
		c := rollout.Spec.Strategy.Canary
		if c.TrafficRouting == nil || c.TrafficRouting.GatewayAPI == nil {
			return nil
		}
		return router.ApplyWeights(ctx, rollout.Namespace, c.TrafficRouting.GatewayAPI.HTTPRoute, []traffic.WeightedBackend{
			{ServiceName: c.StableService, Port: c.Port, Weight: 100},
			{ServiceName: c.CanaryService, Port: c.Port, Weight: 0},
		})
	case rolloutv1alpha1.StrategyBlueGreen:
		bg := rollout.Spec.Strategy.BlueGreen
		if bg.TrafficRouting == nil || bg.TrafficRouting.GatewayAPI == nil {
			return nil
		}
		return router.ApplyWeights(ctx, rollout.Namespace, bg.TrafficRouting.GatewayAPI.HTTPRoute, []traffic.WeightedBackend{
			{ServiceName: bg.ActiveService, Port: bg.Port, Weight: 100},
			{ServiceName: bg.PreviewService, Port: bg.Port, Weight: 0},
		})
	case rolloutv1alpha1.StrategyABTesting:
		ab := rollout.Spec.Strategy.ABTesting
		if ab.TrafficRouting == nil || ab.TrafficRouting.GatewayAPI == nil {
			return nil
		}
		return router.ApplyWeights(ctx, rollout.Namespace, ab.TrafficRouting.GatewayAPI.HTTPRoute, []traffic.WeightedBackend{
			{ServiceName: ab.VariantAService, Port: ab.Port, Weight: 100},
			{ServiceName: ab.VariantBService, Port: ab.Port, Weight: 0},
		})
	default:
		return nil
	}
}
