package status

import (
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func canaryRollout(steps ...rolloutv1alpha1.CanaryStep) *rolloutv1alpha1.Rollout {
	return &rolloutv1alpha1.Rollout{
		Spec: rolloutv1alpha1.RolloutSpec{
			Strategy: rolloutv1alpha1.RolloutStrategy{
				Canary: &rolloutv1alpha1.CanaryStrategy{Steps: steps},
			},
		},
	}
}

func TestInitializeSimpleGoesStraightToCompleted(t *testing.T) {
	r := &rolloutv1alpha1.Rollout{Spec: rolloutv1alpha1.RolloutSpec{Strategy: rolloutv1alpha1.RolloutStrategy{Simple: &rolloutv1alpha1.SimpleStrategy{}}}}
	s := Initialize(r, epoch)
	if s.Phase != rolloutv1alpha1.RolloutPhaseCompleted || s.CurrentWeight != 100 {
		t.Fatalf("Initialize(simple) = %+v", s)
	}
}

func TestInitializeBlueGreenEntersPreview(t *testing.T) {
	r := &rolloutv1alpha1.Rollout{Spec: rolloutv1alpha1.RolloutSpec{Strategy: rolloutv1alpha1.RolloutStrategy{BlueGreen: &rolloutv1alpha1.BlueGreenStrategy{}}}}
	s := Initialize(r, epoch)
	if s.Phase != rolloutv1alpha1.RolloutPhasePreview || s.PauseStartTime == nil {
		t.Fatalf("Initialize(blueGreen) = %+v", s)
	}
}

func TestInitializeABTestingEntersExperimenting(t *testing.T) {
	r := &rolloutv1alpha1.Rollout{Spec: rolloutv1alpha1.RolloutSpec{Strategy: rolloutv1alpha1.RolloutStrategy{ABTesting: &rolloutv1alpha1.ABTestingStrategy{}}}}
	s := Initialize(r, epoch)
	if s.Phase != rolloutv1alpha1.RolloutPhaseExperimenting || s.ExperimentStartTime == nil {
		t.Fatalf("Initialize(abTesting) = %+v", s)
	}
}

func TestInitializeCanaryEntersProgressingAtFirstStepWeight(t *testing.T) {
	r := canaryRollout(
		rolloutv1alpha1.CanaryStep{SetWeight: 10, Pause: &rolloutv1alpha1.RolloutPause{Duration: "1m"}},
		rolloutv1alpha1.CanaryStep{SetWeight: 100},
	)
	s := Initialize(r, epoch)
	if s.Phase != rolloutv1alpha1.RolloutPhaseProgressing || s.CurrentWeight != 10 || s.PauseStartTime == nil {
		t.Fatalf("Initialize(canary) = %+v", s)
	}
}

func TestAdvanceCanaryStaysPausedUntilPauseElapses(t *testing.T) {
	r := canaryRollout(
		rolloutv1alpha1.CanaryStep{SetWeight: 10, Pause: &rolloutv1alpha1.RolloutPause{Duration: "1m"}},
		rolloutv1alpha1.CanaryStep{SetWeight: 100},
	)
	prior := Initialize(r, epoch)

	// First advance: pause not yet elapsed, moves from Progressing to Paused.
	next := ComputeNext(r, prior, epoch.Add(10*time.Second))
	if next.Phase != rolloutv1alpha1.RolloutPhasePaused {
		t.Fatalf("expected Paused before the pause elapses, got %v", next.Phase)
	}

	// Still not elapsed.
	next2 := ComputeNext(r, next, epoch.Add(30*time.Second))
	if next2.Phase != rolloutv1alpha1.RolloutPhasePaused || next2.CurrentStepIndex != 0 {
		t.Fatalf("expected to remain paused at step 0, got %+v", next2)
	}

	// Elapsed: advances to the final step and completes.
	next3 := ComputeNext(r, next2, epoch.Add(2*time.Minute))
	if next3.Phase != rolloutv1alpha1.RolloutPhaseCompleted || next3.CurrentWeight != 100 {
		t.Fatalf("expected Completed at weight 100, got %+v", next3)
	}
}

func TestAdvanceCanaryWithNoPauseStepsThroughWithoutWaiting(t *testing.T) {
	r := canaryRollout(
		rolloutv1alpha1.CanaryStep{SetWeight: 30},
		rolloutv1alpha1.CanaryStep{SetWeight: 60},
		rolloutv1alpha1.CanaryStep{SetWeight: 100},
	)
	prior := Initialize(r, epoch)
	if prior.CurrentWeight != 30 {
		t.Fatalf("expected to start at the first step's weight, got %+v", prior)
	}

	// No pause block on step 0: a single ComputeNext call at the same
	// instant should already move on to step 1, not sit in Progressing.
	next := ComputeNext(r, prior, epoch)
	if next.Phase != rolloutv1alpha1.RolloutPhaseProgressing || next.CurrentWeight != 60 || next.CurrentStepIndex != 1 {
		t.Fatalf("expected to advance to step 1 (weight 60) without a pause, got %+v", next)
	}

	next2 := ComputeNext(r, next, epoch)
	if next2.Phase != rolloutv1alpha1.RolloutPhaseCompleted || next2.CurrentWeight != 100 {
		t.Fatalf("expected to complete at the final step, got %+v", next2)
	}
}

func TestAdvanceCanaryPromoteAnnotationEndsPauseImmediately(t *testing.T) {
	r := canaryRollout(
		rolloutv1alpha1.CanaryStep{SetWeight: 10, Pause: &rolloutv1alpha1.RolloutPause{Duration: "1h"}},
		rolloutv1alpha1.CanaryStep{SetWeight: 100},
	)
	prior := Initialize(r, epoch)
	paused := ComputeNext(r, prior, epoch.Add(time.Second))
	if paused.Phase != rolloutv1alpha1.RolloutPhasePaused {
		t.Fatalf("expected Paused, got %v", paused.Phase)
	}

	r.Annotations = map[string]string{rolloutv1alpha1.AnnotationPromote: "true"}
	next := ComputeNext(r, paused, epoch.Add(2*time.Second))
	if next.Phase != rolloutv1alpha1.RolloutPhaseCompleted {
		t.Fatalf("expected the promote annotation to end the pause immediately, got %v", next.Phase)
	}
}

func TestAdvanceCanaryTerminalPhasesAreStable(t *testing.T) {
	r := canaryRollout(rolloutv1alpha1.CanaryStep{SetWeight: 100})
	for _, phase := range []rolloutv1alpha1.RolloutPhase{rolloutv1alpha1.RolloutPhaseFailed, rolloutv1alpha1.RolloutPhaseCompleted} {
		prior := rolloutv1alpha1.RolloutStatus{Phase: phase}
		next := ComputeNext(r, prior, epoch)
		if next.Phase != phase {
			t.Errorf("expected terminal phase %v to be stable, got %v", phase, next.Phase)
		}
	}
}

func TestAdvanceBlueGreenRequiresAutoPromoteOrAnnotation(t *testing.T) {
	r := &rolloutv1alpha1.Rollout{Spec: rolloutv1alpha1.RolloutSpec{Strategy: rolloutv1alpha1.RolloutStrategy{BlueGreen: &rolloutv1alpha1.BlueGreenStrategy{}}}}
	prior := Initialize(r, epoch)

	next := ComputeNext(r, prior, epoch.Add(time.Minute))
	if next.Phase != rolloutv1alpha1.RolloutPhasePreview {
		t.Fatalf("expected to remain in Preview without promotion, got %v", next.Phase)
	}

	r.Spec.Strategy.BlueGreen.AutoPromotionEnabled = true
	promoted := ComputeNext(r, prior, epoch.Add(time.Minute))
	if promoted.Phase != rolloutv1alpha1.RolloutPhaseCompleted || promoted.CurrentWeight != 100 {
		t.Fatalf("expected auto-promotion to complete the rollout, got %+v", promoted)
	}
}

func TestAdvanceABTestingConcludesOnAnnotation(t *testing.T) {
	r := &rolloutv1alpha1.Rollout{
		Spec: rolloutv1alpha1.RolloutSpec{Strategy: rolloutv1alpha1.RolloutStrategy{ABTesting: &rolloutv1alpha1.ABTestingStrategy{}}},
		ObjectMeta: metav1.ObjectMeta{Annotations: map[string]string{rolloutv1alpha1.AnnotationConcludeExperiment: "true"}},
	}
	prior := Initialize(r, epoch)
	next := ComputeNext(r, prior, epoch.Add(time.Minute))
	if next.Phase != rolloutv1alpha1.RolloutPhaseConcluded {
		t.Fatalf("expected Concluded, got %v", next.Phase)
	}
	if next.ABResult == nil || next.ABResult.Reason != "ManualConclude" || next.ABResult.Winner != "A" {
		t.Fatalf("expected ABResult.{Reason,Winner} = ManualConclude,A, got %+v", next.ABResult)
	}
}

func TestAdvanceABTestingConcludesOnMaxDurationExceeded(t *testing.T) {
	r := &rolloutv1alpha1.Rollout{
		Spec: rolloutv1alpha1.RolloutSpec{Strategy: rolloutv1alpha1.RolloutStrategy{ABTesting: &rolloutv1alpha1.ABTestingStrategy{MaxDuration: "1h"}}},
	}
	prior := Initialize(r, epoch)
	next := ComputeNext(r, prior, epoch.Add(2*time.Hour))
	if next.Phase != rolloutv1alpha1.RolloutPhaseConcluded || next.ABResult.Reason != "MaxDurationExceeded" || next.ABResult.Winner != "A" {
		t.Fatalf("expected MaxDurationExceeded conclusion with control winner A, got %+v", next)
	}
}

func TestAdvanceABTestingStaysExperimentingWithinMaxDuration(t *testing.T) {
	r := &rolloutv1alpha1.Rollout{
		Spec: rolloutv1alpha1.RolloutSpec{Strategy: rolloutv1alpha1.RolloutStrategy{ABTesting: &rolloutv1alpha1.ABTestingStrategy{MaxDuration: "1h"}}},
	}
	prior := Initialize(r, epoch)
	next := ComputeNext(r, prior, epoch.Add(10*time.Minute))
	if next.Phase != rolloutv1alpha1.RolloutPhaseExperimenting {
		t.Fatalf("expected to remain Experimenting, got %v", next.Phase)
	}
}

func TestIsProgressDeadlineExceeded(t *testing.T) {
	started := metav1.NewTime(epoch)
	status := rolloutv1alpha1.RolloutStatus{Phase: rolloutv1alpha1.RolloutPhaseProgressing}

	if IsProgressDeadlineExceeded(status, &started, 0, epoch.Add(time.Hour)) {
		t.Error("deadlineSeconds <= 0 must disable the check")
	}
	if IsProgressDeadlineExceeded(status, nil, 60, epoch.Add(time.Hour)) {
		t.Error("nil startedAt must disable the check")
	}
	if !IsProgressDeadlineExceeded(status, &started, 60, epoch.Add(2*time.Minute)) {
		t.Error("expected the deadline to be exceeded after 2 minutes with a 60s budget")
	}
	completed := rolloutv1alpha1.RolloutStatus{Phase: rolloutv1alpha1.RolloutPhaseCompleted}
	if IsProgressDeadlineExceeded(completed, &started, 60, epoch.Add(time.Hour)) {
		t.Error("a Completed rollout should never be reported as deadline-exceeded")
	}
}

func TestRequeueIntervalSettlesForTerminalPhases(t *testing.T) {
	r := canaryRollout(rolloutv1alpha1.CanaryStep{SetWeight: 100})
	for _, phase := range []rolloutv1alpha1.RolloutPhase{rolloutv1alpha1.RolloutPhaseCompleted, rolloutv1alpha1.RolloutPhaseFailed} {
		got := RequeueInterval(r, rolloutv1alpha1.RolloutStatus{Phase: phase}, epoch)
		if got != requeueSettled {
			t.Errorf("RequeueInterval(%v) = %v, want %v", phase, got, requeueSettled)
		}
	}
}

func TestRequeueIntervalForPausedClampsToPauseRemaining(t *testing.T) {
	r := canaryRollout(
		rolloutv1alpha1.CanaryStep{SetWeight: 10, Pause: &rolloutv1alpha1.RolloutPause{Duration: "2m"}},
		rolloutv1alpha1.CanaryStep{SetWeight: 100},
	)
	start := metav1.NewTime(epoch)
	status := rolloutv1alpha1.RolloutStatus{Phase: rolloutv1alpha1.RolloutPhasePaused, CurrentStepIndex: 0, PauseStartTime: &start}

	got := RequeueInterval(r, status, epoch.Add(90*time.Second))
	if got < requeueMin || got > requeueMax {
		t.Errorf("RequeueInterval mid-pause = %v, want within [%v, %v]", got, requeueMin, requeueMax)
	}

	due := RequeueInterval(r, status, epoch.Add(3*time.Minute))
	if due != pauseNearDueCheck {
		t.Errorf("RequeueInterval past due = %v, want %v", due, pauseNearDueCheck)
	}
}

func TestRequeueIntervalDefaultsForProgressing(t *testing.T) {
	r := canaryRollout(rolloutv1alpha1.CanaryStep{SetWeight: 100})
	got := RequeueInterval(r, rolloutv1alpha1.RolloutStatus{Phase: rolloutv1alpha1.RolloutPhaseProgressing}, epoch)
	if got != requeueDefault {
		t.Errorf("RequeueInterval(Progressing) = %v, want %v", got, requeueDefault)
	}
}
