package occurrence

import (
	"fmt"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

func strategyPrefix(kind rolloutv1alpha1.StrategyKind) string {
	switch kind {
	case rolloutv1alpha1.StrategyBlueGreen:
		return "bluegreen"
	case rolloutv1alpha1.StrategyABTesting:
		return "abtesting"
	case rolloutv1alpha1.StrategySimple:
		return "rolling"
	default:
		return "canary"
	}
}

func phaseSuffix(phase rolloutv1alpha1.RolloutPhase) string {
	switch phase {
	case rolloutv1alpha1.RolloutPhaseFailed:
		return "failed"
	case rolloutv1alpha1.RolloutPhaseCompleted, rolloutv1alpha1.RolloutPhaseConcluded:
		return "completed"
	case rolloutv1alpha1.RolloutPhasePaused:
		return "paused"
	default:
		return "progressing"
	}
}

// BuildType renders the occurrence "type" tag for a phase transition, e.g.
// "canary.rollout.progressing", "bluegreen.rollout.completed",
// "abtesting.rollout.failed", "rolling.rollout.completed".
func BuildType(kind rolloutv1alpha1.StrategyKind, newPhase rolloutv1alpha1.RolloutPhase) string {
	return fmt.Sprintf("%s.rollout.%s", strategyPrefix(kind), phaseSuffix(newPhase))
}

// SeverityFor maps a phase to the severity of the occurrence it produces.
func SeverityFor(phase rolloutv1alpha1.RolloutPhase) Severity {
	switch phase {
	case rolloutv1alpha1.RolloutPhaseFailed:
		return SeverityError
	case rolloutv1alpha1.RolloutPhasePaused:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// OutcomeFor maps a phase to the outcome of the occurrence it produces.
func OutcomeFor(phase rolloutv1alpha1.RolloutPhase) Outcome {
	switch phase {
	case rolloutv1alpha1.RolloutPhaseFailed:
		return OutcomeFailure
	case rolloutv1alpha1.RolloutPhaseCompleted, rolloutv1alpha1.RolloutPhaseConcluded:
		return OutcomeSuccess
	case rolloutv1alpha1.RolloutPhasePaused, rolloutv1alpha1.RolloutPhaseInitializing:
		return OutcomeInProgress
	default:
		return OutcomeInProgress
	}
}
