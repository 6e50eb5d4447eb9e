// Package status implements the phase lattice every strategy drives
// through as a pure function of (spec, prior status, now): no cluster I/O,
// so it is exhaustively unit-testable and the only place the lattice's
// rules live.
package status

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/replicaset"
	"github.com/kulta-io/kulta/internal/validation"
)

const (
	requeueMin        = 5 * time.Second
	requeueMax        = 5 * time.Minute
	requeueDefault    = 30 * time.Second
	requeueSettled    = 60 * time.Second
	pauseNearDueCheck = 5 * time.Second
)

// Initialize builds the first status for a rollout with no prior status,
// dispatching on which strategy branch is populated.
func Initialize(r *rolloutv1alpha1.Rollout, now time.Time) rolloutv1alpha1.RolloutStatus {
	hash := replicaset.PodSpecHash(r)
	base := rolloutv1alpha1.RolloutStatus{
		ObservedGeneration: r.Generation,
		CanaryRevisionHash: hash,
		StableRevisionHash: hash,
	}

	switch r.Spec.Strategy.Kind() {
	case rolloutv1alpha1.StrategySimple:
		base.Phase = rolloutv1alpha1.RolloutPhaseCompleted
		base.CurrentWeight = 100
		return base

	case rolloutv1alpha1.StrategyBlueGreen:
		base.Phase = rolloutv1alpha1.RolloutPhasePreview
		t := metav1.NewTime(now)
		base.PauseStartTime = &t
		return base

	case rolloutv1alpha1.StrategyABTesting:
		base.Phase = rolloutv1alpha1.RolloutPhaseExperimenting
		t := metav1.NewTime(now)
		base.ExperimentStartTime = &t
		return base

	default: // Canary
		base.Phase = rolloutv1alpha1.RolloutPhaseProgressing
		base.CurrentStepIndex = 0
		steps := r.Spec.Strategy.Canary.Steps
		if len(steps) > 0 {
			base.CurrentWeight = steps[0].SetWeight
			if steps[0].Pause != nil {
				t := metav1.NewTime(now)
				base.PauseStartTime = &t
			}
		}
		return base
	}
}

// ComputeNext advances prior by exactly one decision, with no cluster I/O.
// Health-driven transitions (metric violations, A/B significance) are
// layered on top by the reconcile loop, which has the queriers this
// function deliberately does not.
func ComputeNext(r *rolloutv1alpha1.Rollout, prior rolloutv1alpha1.RolloutStatus, now time.Time) rolloutv1alpha1.RolloutStatus {
	if prior.Phase == "" {
		return Initialize(r, now)
	}

	switch r.Spec.Strategy.Kind() {
	case rolloutv1alpha1.StrategyCanary:
		return advanceCanary(r, prior, now)
	case rolloutv1alpha1.StrategyBlueGreen:
		return advanceBlueGreen(r, prior, now)
	case rolloutv1alpha1.StrategyABTesting:
		return advanceABTesting(r, prior, now)
	default: // Simple
		return prior
	}
}

func pauseElapsed(pauseStart *metav1.Time, duration string, now time.Time) bool {
	if pauseStart == nil {
		return true
	}
	if duration == "" {
		return false // only the promote annotation can end an unbounded pause
	}
	seconds, err := validation.ParseDuration(duration)
	if err != nil {
		return false
	}
	return now.Sub(pauseStart.Time) >= time.Duration(seconds)*time.Second
}

func advanceCanary(r *rolloutv1alpha1.Rollout, prior rolloutv1alpha1.RolloutStatus, now time.Time) rolloutv1alpha1.RolloutStatus {
	if prior.Phase == rolloutv1alpha1.RolloutPhaseFailed || prior.Phase == rolloutv1alpha1.RolloutPhaseCompleted {
		return prior
	}

	steps := r.Spec.Strategy.Canary.Steps
	idx := int(prior.CurrentStepIndex)
	var currentStep *rolloutv1alpha1.CanaryStep
	if idx >= 0 && idx < len(steps) {
		currentStep = &steps[idx]
	}

	shouldAdvance := false
	switch {
	case r.HasPromoteAnnotation():
		shouldAdvance = true
	case prior.Phase == rolloutv1alpha1.RolloutPhasePaused:
		// Only the current step's own pause can elapse; a Paused rollout on a
		// step with no pause block stays Paused until promoted.
		shouldAdvance = currentStep != nil && currentStep.Pause != nil &&
			pauseElapsed(prior.PauseStartTime, currentStep.Pause.Duration, now)
	case currentStep != nil && currentStep.Pause != nil:
		shouldAdvance = pauseElapsed(prior.PauseStartTime, currentStep.Pause.Duration, now)
	case currentStep != nil && currentStep.Pause == nil:
		shouldAdvance = true // no pause block: nothing to wait on
	default:
		shouldAdvance = currentStep == nil // already past the list
	}

	if !shouldAdvance {
		if currentStep != nil && currentStep.Pause != nil && prior.Phase != rolloutv1alpha1.RolloutPhasePaused {
			next := prior
			next.Phase = rolloutv1alpha1.RolloutPhasePaused
			return next
		}
		return prior
	}

	next := prior
	next.CurrentStepIndex = int32(idx + 1)
	if next.CurrentStepIndex >= int32(len(steps)) {
		next.Phase = rolloutv1alpha1.RolloutPhaseCompleted
		next.CurrentWeight = 100
		next.StableRevisionHash = prior.CanaryRevisionHash
		next.PauseStartTime = nil
		return next
	}

	nextStep := steps[next.CurrentStepIndex]
	next.CurrentWeight = nextStep.SetWeight
	if nextStep.SetWeight >= 100 {
		next.Phase = rolloutv1alpha1.RolloutPhaseCompleted
		next.StableRevisionHash = prior.CanaryRevisionHash
		next.PauseStartTime = nil
		return next
	}
	next.Phase = rolloutv1alpha1.RolloutPhaseProgressing
	if nextStep.Pause != nil {
		t := metav1.NewTime(now)
		next.PauseStartTime = &t
	} else {
		next.PauseStartTime = nil
	}
	return next
}

func advanceBlueGreen(r *rolloutv1alpha1.Rollout, prior rolloutv1alpha1.RolloutStatus, now time.Time) rolloutv1alpha1.RolloutStatus {
	if prior.Phase != rolloutv1alpha1.RolloutPhasePreview {
		return prior
	}
	promote := r.Spec.Strategy.BlueGreen.AutoPromotionEnabled || r.HasPromoteAnnotation()
	if !promote {
		return prior
	}
	next := prior
	next.Phase = rolloutv1alpha1.RolloutPhaseCompleted
	next.CurrentWeight = 100
	next.StableRevisionHash = prior.CanaryRevisionHash
	next.PauseStartTime = nil
	return next
}

// advanceABTesting handles only the I/O-free parts of experiment
// conclusion: a manual conclude-experiment annotation, or the max-duration
// timeout. Significance-based conclusion is computed by the reconcile loop
// once it has queried sample and conversion counts.
func advanceABTesting(r *rolloutv1alpha1.Rollout, prior rolloutv1alpha1.RolloutStatus, now time.Time) rolloutv1alpha1.RolloutStatus {
	if prior.Phase != rolloutv1alpha1.RolloutPhaseExperimenting {
		return prior
	}
	ab := r.Spec.Strategy.ABTesting

	if r.HasConcludeExperimentAnnotation() {
		return concludeExperiment(prior, now, "A", "ManualConclude")
	}

	if ab.MaxDuration != "" && prior.ExperimentStartTime != nil {
		seconds, err := validation.ParseDuration(ab.MaxDuration)
		if err == nil && now.Sub(prior.ExperimentStartTime.Time) >= time.Duration(seconds)*time.Second {
			// No significant result was reached within the deadline; the
			// control variant wins by default rather than leaving the
			// experiment without a verdict.
			return concludeExperiment(prior, now, "A", "MaxDurationExceeded")
		}
	}
	return prior
}

func concludeExperiment(prior rolloutv1alpha1.RolloutStatus, now time.Time, winner, reason string) rolloutv1alpha1.RolloutStatus {
	next := prior
	next.Phase = rolloutv1alpha1.RolloutPhaseConcluded
	t := metav1.NewTime(now)
	if next.ABResult == nil {
		next.ABResult = &rolloutv1alpha1.ABExperimentResult{}
	}
	next.ABResult.Winner = winner
	next.ABResult.Reason = reason
	next.ABResult.ConcludedAt = &t
	return next
}

// IsProgressDeadlineExceeded reports whether a rollout stuck in Progressing
// or Preview has been there longer than deadlineSeconds.
func IsProgressDeadlineExceeded(status rolloutv1alpha1.RolloutStatus, startedAt *metav1.Time, deadlineSeconds int32, now time.Time) bool {
	if deadlineSeconds <= 0 || startedAt == nil || startedAt.IsZero() {
		return false
	}
	if status.Phase != rolloutv1alpha1.RolloutPhaseProgressing && status.Phase != rolloutv1alpha1.RolloutPhasePreview {
		return false
	}
	return now.Sub(startedAt.Time) >= time.Duration(deadlineSeconds)*time.Second
}

// RequeueInterval picks how long until the next reconcile, per phase:
// Progressing/Experimenting default to 30s; a Paused rollout nearing the
// end of its pause is checked every 5s, otherwise requeued for whatever
// pause duration remains, clamped to [5s, 5m]; Completed/Failed settle at
// 60s (they still requeue, in case an external actor mutates a child
// object this controller owns).
func RequeueInterval(r *rolloutv1alpha1.Rollout, status rolloutv1alpha1.RolloutStatus, now time.Time) time.Duration {
	switch status.Phase {
	case rolloutv1alpha1.RolloutPhaseCompleted, rolloutv1alpha1.RolloutPhaseFailed:
		return requeueSettled
	case rolloutv1alpha1.RolloutPhasePaused:
		remaining := pauseRemaining(r, status, now)
		if remaining <= 0 {
			return pauseNearDueCheck
		}
		if remaining < requeueMin {
			return requeueMin
		}
		if remaining > requeueMax {
			return requeueMax
		}
		if remaining <= pauseNearDueCheck {
			return pauseNearDueCheck
		}
		return remaining
	default:
		return requeueDefault
	}
}

func pauseRemaining(r *rolloutv1alpha1.Rollout, status rolloutv1alpha1.RolloutStatus, now time.Time) time.Duration {
	if status.PauseStartTime == nil || r.Spec.Strategy.Canary == nil {
		return requeueDefault
	}
	idx := int(status.CurrentStepIndex)
	steps := r.Spec.Strategy.Canary.Steps
	if idx < 0 || idx >= len(steps) || steps[idx].Pause == nil || steps[idx].Pause.Duration == "" {
		return requeueMax
	}
	seconds, err := validation.ParseDuration(steps[idx].Pause.Duration)
	if err != nil {
		return requeueDefault
	}
	elapsed := now.Sub(status.PauseStartTime.Time)
	return time.Duration(seconds)*time.Second - elapsed
}
