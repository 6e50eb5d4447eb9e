package events

import (
	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

// ForTransition decides which lifecycle event (if any) a phase transition
// represents. It checks, in order: initialization, rollback, experiment
// conclusion, completion, step progression — the same precedence order a
// human reading the phase lattice would apply, with completion also
// checked inside the initialization case so a Simple rollout's direct
// Initializing->Completed jump still emits service.published.
func ForTransition(old, new rolloutv1alpha1.RolloutPhase, strategy rolloutv1alpha1.StrategyKind) []Type {
	var out []Type

	isInit := old == "" || old == rolloutv1alpha1.RolloutPhaseInitializing
	isConcluded := new == rolloutv1alpha1.RolloutPhaseConcluded && old != rolloutv1alpha1.RolloutPhaseConcluded
	isRollback := new == rolloutv1alpha1.RolloutPhaseFailed && old != rolloutv1alpha1.RolloutPhaseFailed
	isCompleted := new == rolloutv1alpha1.RolloutPhaseCompleted && old != rolloutv1alpha1.RolloutPhaseCompleted
	isProgressing := new == rolloutv1alpha1.RolloutPhaseProgressing && old != new

	switch {
	case isInit:
		out = append(out, TypeServiceDeployed)
		if isCompleted {
			out = append(out, TypeServicePublished)
		}
	case isRollback:
		out = append(out, TypeServiceRolledback)
	case isConcluded:
		out = append(out, TypeServiceUpgraded)
	case isCompleted:
		out = append(out, TypeServicePublished)
	case isProgressing:
		out = append(out, TypeServiceUpgraded)
	}
	return out
}
