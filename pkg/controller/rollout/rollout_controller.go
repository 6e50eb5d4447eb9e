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
	"flag"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/source"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/advisor"
	kclock "github.com/kulta-io/kulta/internal/clock"
	"github.com/kulta-io/kulta/internal/events"
	"github.com/kulta-io/kulta/internal/kerrors"
	"github.com/kulta-io/kulta/internal/leader"
	"github.com/kulta-io/kulta/internal/metrics"
	"github.com/kulta-io/kulta/internal/occurrence"
	"github.com/kulta-io/kulta/internal/status"
	"github.com/kulta-io/kulta/internal/strategy"
	"github.com/kulta-io/kulta/internal/telemetry"
	"github.com/kulta-io/kulta/internal/traffic"
	"github.com/kulta-io/kulta/internal/validation"
)

var concurrentReconciles = 2

func init() {
	flag.IntVar(&concurrentReconciles, "rollout-workers", 2, "Max concurrent workers for rollout controller.")
}

// defaultProgressDeadlineSeconds bounds how long a rollout may sit in
// Progressing or Preview before the controller gives up and fails it.
const defaultProgressDeadlineSeconds = 600

// notLeaderRequeueInterval is how long a non-leader instance waits before
// re-checking the lease. Independent of leader.RenewInterval, which paces
// a held lease's own renewal rather than a skipped reconcile's retry.
const notLeaderRequeueInterval = 15 * time.Second

// RolloutReconciler reconciles a Rollout object.
type RolloutReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	Clock      kclock.Clock
	Leader     *leader.Gate
	LeaseName  string
	Querier    metrics.Querier
	Sink       events.Sink
	Occurrence *occurrence.Writer

	// Advisor, when set, overrides advisor resolution for the whole
	// reconciler (tests stub it in; production leaves it nil so Resolve
	// picks a NoOpAdvisor or HTTPAdvisor per rollout.spec.advisor).
	Advisor      advisor.Advisor
	AdvisorCache *advisor.Cache
}

//+kubebuilder:rbac:groups=rollouts.kulta.io,resources=rollouts,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=rollouts.kulta.io,resources=rollouts/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=rollouts.kulta.io,resources=rollouts/finalizers,verbs=update
//+kubebuilder:rbac:groups=apps,resources=replicasets,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=apps,resources=replicasets/status,verbs=get
//+kubebuilder:rbac:groups=gateway.networking.k8s.io,resources=httproutes,verbs=get;list;watch;update;patch
//+kubebuilder:rbac:groups=coordination.k8s.io,resources=leases,verbs=get;list;watch;create;update

// Reconcile drives one Rollout through validation, strategy reconciliation,
// health evaluation and status computation, per the phase lattice in
// internal/status.
func (r *RolloutReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	rollout := &rolloutv1alpha1.Rollout{}
	if err := r.Get(ctx, req.NamespacedName, rollout); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	klog.Infof("reconciling rollout %s", klog.KObj(rollout))
	reconcileStart := time.Now()
	defer func() {
		telemetry.ObserveReconcile(string(rollout.Spec.Strategy.Kind()), string(rollout.Status.Phase), reconcileStart)
	}()

	done, err := r.handleFinalizer(ctx, rollout)
	if err != nil {
		return ctrl.Result{}, err
	}
	if !rollout.DeletionTimestamp.IsZero() {
		if !done {
			return ctrl.Result{RequeueAfter: 2 * time.Second}, nil
		}
		return ctrl.Result{}, nil
	}

	if r.Leader != nil && !r.Leader.IsLeader(ctx, r.LeaseName) {
		klog.V(4).Infof("rollout(%s/%s) controller instance is not leader, skipping write", rollout.Namespace, rollout.Name)
		return ctrl.Result{RequeueAfter: notLeaderRequeueInterval}, nil
	}

	now := r.Clock.Now()
	oldPhase := rollout.Status.Phase

	if err := validation.Validate(rollout); err != nil {
		newStatus := rollout.Status
		newStatus.Phase = rolloutv1alpha1.RolloutPhaseFailed
		newStatus.Message = err.Error()
		return r.finishReconcile(ctx, rollout, oldPhase, newStatus, now)
	}

	newStatus := status.ComputeNext(rollout, rollout.Status, now)

	deadline := progressDeadlineSeconds(rollout)
	if status.IsProgressDeadlineExceeded(newStatus, &rollout.CreationTimestamp, deadline, now) {
		newStatus.Phase = rolloutv1alpha1.RolloutPhaseFailed
		newStatus.Message = fmt.Sprintf("rollout did not complete within %ds", deadline)
		return r.finishReconcile(ctx, rollout, oldPhase, newStatus, now)
	}

	router := &traffic.Router{Client: r.Client}
	env := strategy.Env{
		Client:  r.Client,
		Scheme:  r.Scheme,
		Traffic: router,
		Rollout: rollout,
		Status:  newStatus,
	}
	if err := strategy.Reconcile(ctx, env); err != nil {
		if kerrors.IsValidation(err) {
			newStatus.Phase = rolloutv1alpha1.RolloutPhaseFailed
			newStatus.Message = err.Error()
			return r.finishReconcile(ctx, rollout, oldPhase, newStatus, now)
		}
		return ctrl.Result{}, err
	}

	newStatus, err = r.evaluateHealth(ctx, rollout, newStatus, now)
	if err != nil {
		return ctrl.Result{}, err
	}

	return r.finishReconcile(ctx, rollout, oldPhase, newStatus, now)
}

// finishReconcile emits lifecycle events and an occurrence record for any
// phase change, persists the new status, and computes the next requeue
// interval.
func (r *RolloutReconciler) finishReconcile(ctx context.Context, rollout *rolloutv1alpha1.Rollout, oldPhase rolloutv1alpha1.RolloutPhase, newStatus rolloutv1alpha1.RolloutStatus, now time.Time) (ctrl.Result, error) {
	newStatus.ObservedGeneration = rollout.Generation
	setCondition(&newStatus, rolloutv1alpha1.RolloutCondition{
		Type:           rolloutv1alpha1.RolloutConditionProgressing,
		Status:         progressingConditionStatus(newStatus.Phase),
		LastUpdateTime: metav1.NewTime(now),
		Reason:         string(newStatus.Phase),
		Message:        newStatus.Message,
	})

	if newStatus.Phase != oldPhase {
		kind := rollout.Spec.Strategy.Kind()
		telemetry.ObserveTransition(string(kind), string(oldPhase), string(newStatus.Phase))
		if r.Recorder != nil {
			eventType := corev1.EventTypeNormal
			if newStatus.Phase == rolloutv1alpha1.RolloutPhaseFailed {
				eventType = corev1.EventTypeWarning
			}
			r.Recorder.Eventf(rollout, eventType, string(newStatus.Phase), "%s -> %s: %s", oldPhase, newStatus.Phase, newStatus.Message)
		}
		for _, t := range events.ForTransition(oldPhase, newStatus.Phase, kind) {
			if r.Sink != nil {
				r.Sink.Send(ctx, r.buildEnvelope(t, rollout, kind, newStatus))
			}
		}
		if r.Occurrence != nil {
			r.Occurrence.Emit(rollout, oldPhase, newStatus.Phase, rollout.Spec.Strategy.Kind(), now)
		}
	}

	if err := r.updateRolloutStatus(ctx, rollout, newStatus); err != nil {
		return ctrl.Result{}, err
	}

	return ctrl.Result{RequeueAfter: status.RequeueInterval(rollout, newStatus, now)}, nil
}

// buildEnvelope assembles the event payload for a phase transition: the
// artifact identifier comes from the pod template's first container, the
// step block is populated only for a canary's step list, and the decision
// reason is whatever explanation the status layer already recorded on
// newStatus.Message.
func (r *RolloutReconciler) buildEnvelope(t events.Type, rollout *rolloutv1alpha1.Rollout, kind rolloutv1alpha1.StrategyKind, newStatus rolloutv1alpha1.RolloutStatus) events.Envelope {
	var artifactID string
	if containers := rollout.Spec.Template.Spec.Containers; len(containers) > 0 {
		artifactID = containers[0].Image
	}

	var step *events.Step
	if kind == rolloutv1alpha1.StrategyCanary && rollout.Spec.Strategy.Canary != nil {
		step = &events.Step{
			Index:         newStatus.CurrentStepIndex,
			Total:         int32(len(rollout.Spec.Strategy.Canary.Steps)),
			TrafficWeight: newStatus.CurrentWeight,
		}
	}

	return events.Envelope{
		Namespace: rollout.Namespace,
		Name:      rollout.Name,
		Type:      t,
		Source:    fmt.Sprintf("kulta://%s/%s", rollout.Namespace, rollout.Name),
		Subject: events.Subject{
			ID: fmt.Sprintf("%s/%s", rollout.Namespace, rollout.Name),
			Content: events.Content{
				ArtifactID:  artifactID,
				Environment: events.Environment{ID: rollout.Namespace},
			},
		},
		CustomData: events.CustomData{
			Strategy: string(kind),
			Step:     step,
			Decision: events.Decision{Reason: newStatus.Message},
		},
	}
}

// evaluateHealth layers the I/O-dependent health transitions on top of
// whatever internal/status already decided: canary/simple metric
// violations per their configured FailurePolicy, and A/B significance
// once an experiment has enough samples.
func (r *RolloutReconciler) evaluateHealth(ctx context.Context, rollout *rolloutv1alpha1.Rollout, newStatus rolloutv1alpha1.RolloutStatus, now time.Time) (rolloutv1alpha1.RolloutStatus, error) {
	if r.Querier == nil {
		return newStatus, nil
	}

	switch rollout.Spec.Strategy.Kind() {
	case rolloutv1alpha1.StrategyCanary:
		c := rollout.Spec.Strategy.Canary
		if c.Analysis == nil || newStatus.Phase != rolloutv1alpha1.RolloutPhaseProgressing {
			return newStatus, nil
		}
		return r.applyThresholdResult(ctx, rollout, newStatus, c.Analysis, now)

	case rolloutv1alpha1.StrategySimple:
		s := rollout.Spec.Strategy.Simple
		if s.Analysis == nil || newStatus.Phase != rolloutv1alpha1.RolloutPhaseCompleted {
			return newStatus, nil
		}
		return r.applyThresholdResult(ctx, rollout, newStatus, s.Analysis, now)

	case rolloutv1alpha1.StrategyABTesting:
		if newStatus.Phase != rolloutv1alpha1.RolloutPhaseExperimenting {
			return newStatus, nil
		}
		return r.evaluateABExperiment(ctx, rollout, newStatus, now)

	default:
		return newStatus, nil
	}
}

func (r *RolloutReconciler) applyThresholdResult(ctx context.Context, rollout *rolloutv1alpha1.Rollout, newStatus rolloutv1alpha1.RolloutStatus, analysis *rolloutv1alpha1.AnalysisConfig, now time.Time) (rolloutv1alpha1.RolloutStatus, error) {
	healthy, err := r.Querier.EvaluateAll(ctx, analysis.Metrics, rollout.Name, newStatus.CanaryRevisionHash)
	if err != nil {
		newStatus.ConsecutiveMetricsErrors++
		klog.Warningf("rollout(%s/%s) metrics evaluation error: %v", rollout.Namespace, rollout.Name, err)
		return newStatus, nil
	}
	newStatus.ConsecutiveMetricsErrors = 0

	r.consultAdvisor(ctx, rollout, newStatus, healthy, now)

	if healthy {
		return newStatus, nil
	}

	switch analysis.FailurePolicy {
	case rolloutv1alpha1.FailurePolicyContinue:
		return newStatus, nil
	case rolloutv1alpha1.FailurePolicyRollback:
		newStatus.Phase = rolloutv1alpha1.RolloutPhaseFailed
		newStatus.Message = "metric threshold violated, rolling back"
		return newStatus, nil
	default: // Pause
		newStatus.Phase = rolloutv1alpha1.RolloutPhasePaused
		newStatus.Message = "metric threshold violated, paused for operator review"
		return newStatus, nil
	}
}

// consultAdvisor optionally asks an external AI advisory service for a
// second opinion alongside the threshold decision already made above. It
// only runs while Progressing and only when rollout.spec.advisor calls for
// a consultation (level Advised/Planned/Driven with an endpoint set); its
// recommendation is logged and recorded as an occurrence, never used to
// change healthy, phase or message.
func (r *RolloutReconciler) consultAdvisor(ctx context.Context, rollout *rolloutv1alpha1.Rollout, newStatus rolloutv1alpha1.RolloutStatus, healthy bool, now time.Time) {
	if newStatus.Phase != rolloutv1alpha1.RolloutPhaseProgressing {
		return
	}
	if !advisor.ShouldConsult(rollout.Spec.Advisor) {
		return
	}

	a := advisor.Resolve(rollout.Spec.Advisor, r.Advisor, r.AdvisorCache)
	analysisCtx := advisor.AnalysisContext{
		RolloutName:    rollout.Name,
		Namespace:      rollout.Namespace,
		Strategy:       string(rollout.Spec.Strategy.Kind()),
		CurrentStep:    int32Ptr(newStatus.CurrentStepIndex),
		CurrentWeight:  int32Ptr(newStatus.CurrentWeight),
		MetricsHealthy: healthy,
		Phase:          string(newStatus.Phase),
	}

	rec, err := a.Advise(ctx, analysisCtx)
	if err != nil {
		klog.Warningf("rollout(%s/%s) advisor consultation failed: %v", rollout.Namespace, rollout.Name, err)
		return
	}
	klog.Infof("rollout(%s/%s) advisor recommendation: %s (confidence %.2f, threshold decision prevails)", rollout.Namespace, rollout.Name, rec.Action, rec.Confidence)
	if r.Occurrence != nil {
		r.Occurrence.EmitAdvisorRecommendation(rollout, string(rec.Action), rec.Reasoning, rec.Confidence, now)
	}
}

func int32Ptr(v int32) *int32 { return &v }

// evaluateABExperiment runs the single two-proportion Z-test spec.md's
// Experiment mode describes: conversions and samples for each variant over
// the same window, concluded once minDuration has elapsed and the result is
// significant at the configured confidence level. It never iterates a
// metric list — there is exactly one test, and its winner comes from the
// sign of z, not a configured direction.
func (r *RolloutReconciler) evaluateABExperiment(ctx context.Context, rollout *rolloutv1alpha1.Rollout, newStatus rolloutv1alpha1.RolloutStatus, now time.Time) (rolloutv1alpha1.RolloutStatus, error) {
	ab := rollout.Spec.Strategy.ABTesting
	if ab.Analysis.MinDuration != "" && newStatus.ExperimentStartTime != nil {
		seconds, err := validation.ParseDuration(ab.Analysis.MinDuration)
		if err == nil && now.Sub(newStatus.ExperimentStartTime.Time) < time.Duration(seconds)*time.Second {
			return newStatus, nil
		}
	}

	nA, err := r.Querier.SampleCount(ctx, ab.VariantAService)
	if err != nil {
		return newStatus, nil
	}
	nB, err := r.Querier.SampleCount(ctx, ab.VariantBService)
	if err != nil {
		return newStatus, nil
	}
	cA, err := r.Querier.ConversionCount(ctx, ab.VariantAService)
	if err != nil {
		return newStatus, nil
	}
	cB, err := r.Querier.ConversionCount(ctx, ab.VariantBService)
	if err != nil {
		return newStatus, nil
	}

	result := metrics.Significance(cA, nA, cB, nB, ab.Analysis.ConfidenceLevel, ab.Analysis.MinSampleSize)
	if !result.Significant {
		return newStatus, nil
	}

	newStatus.Phase = rolloutv1alpha1.RolloutPhaseConcluded
	t := metav1.NewTime(now)
	newStatus.ABResult = &rolloutv1alpha1.ABExperimentResult{
		Winner:             result.Winner,
		Reason:             string(metrics.ReasonSignificanceReached),
		ConversionsA:       result.ConversionsA,
		SampleSizeA:        result.SamplesA,
		ConversionsB:       result.ConversionsB,
		SampleSizeB:        result.SamplesB,
		ZScore:             result.ZScore,
		PValue:             result.PValue,
		AchievedConfidence: result.AchievedConfidence,
		ConcludedAt:        &t,
	}
	return newStatus, nil
}

func progressDeadlineSeconds(rollout *rolloutv1alpha1.Rollout) int32 {
	var analysis *rolloutv1alpha1.AnalysisConfig
	switch rollout.Spec.Strategy.Kind() {
	case rolloutv1alpha1.StrategyCanary:
		analysis = rollout.Spec.Strategy.Canary.Analysis
	case rolloutv1alpha1.StrategySimple:
		analysis = rollout.Spec.Strategy.Simple.Analysis
	}
	if analysis == nil || analysis.WarmupDuration == "" {
		return defaultProgressDeadlineSeconds
	}
	if seconds, err := validation.ParseDuration(analysis.WarmupDuration); err == nil {
		return seconds + defaultProgressDeadlineSeconds
	}
	return defaultProgressDeadlineSeconds
}

func progressingConditionStatus(phase rolloutv1alpha1.RolloutPhase) corev1.ConditionStatus {
	switch phase {
	case rolloutv1alpha1.RolloutPhaseCompleted, rolloutv1alpha1.RolloutPhaseConcluded:
		return corev1.ConditionFalse
	case rolloutv1alpha1.RolloutPhaseFailed:
		return corev1.ConditionFalse
	default:
		return corev1.ConditionTrue
	}
}

// SetupWithManager wires the reconciler into mgr, watching only the types
// this controller owns or patches directly.
func (r *RolloutReconciler) SetupWithManager(mgr ctrl.Manager) error {
	c, err := controller.New("rollout-controller", mgr, controller.Options{
		Reconciler: r, MaxConcurrentReconciles: concurrentReconciles,
	})
	if err != nil {
		return err
	}
	if err := c.Watch(&source.Kind{Type: &rolloutv1alpha1.Rollout{}}, &handler.EnqueueRequestForObject{}); err != nil {
		return err
	}
	return nil
}
