package occurrence

import (
	"fmt"
	"time"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

// Emit builds and writes an occurrence for a rollout's phase transition. It
// is a silent no-op (not erroring) when name or namespace is missing,
// matching the fail-soft nature of AIOps observability: a malformed record
// must never block the reconcile loop that produced it.
func (w *Writer) Emit(rollout *rolloutv1alpha1.Rollout, oldPhase, newPhase rolloutv1alpha1.RolloutPhase, kind rolloutv1alpha1.StrategyKind, now time.Time) {
	if rollout == nil || rollout.Name == "" || rollout.Namespace == "" {
		return
	}

	reasoning := buildReasoning(rollout, oldPhase, newPhase)

	prior, _ := w.RecentHistory(string(rollout.UID), 3)
	steps := make([]HistoryStep, 0, len(prior))
	for _, p := range prior {
		phase := ""
		if v, ok := p.Data["phase"].(string); ok {
			phase = v
		}
		steps = append(steps, HistoryStep{Timestamp: p.Timestamp, Phase: phase, Message: p.errorSummary()})
	}

	var durationMS int64
	if rollout.Status.PauseStartTime != nil {
		durationMS = now.Sub(rollout.Status.PauseStartTime.Time).Milliseconds()
	}

	o := Occurrence{
		Timestamp: now,
		Source:    "kulta",
		Type:      BuildType(kind, newPhase),
		Severity:  SeverityFor(newPhase),
		Outcome:   OutcomeFor(newPhase),
		Context: Context{
			Namespace: rollout.Namespace,
			CorrelationKeys: []CorrelationKey{
				{Type: "rollout", Value: rollout.Namespace + "/" + rollout.Name},
			},
		},
		Reasoning: reasoning,
		History: &History{
			DurationMS: durationMS,
			Steps:      steps,
		},
		Data: map[string]interface{}{
			"phase":    string(newPhase),
			"oldPhase": string(oldPhase),
			"weight":   rollout.Status.CurrentWeight,
		},
		Entities: []Entity{
			{
				Type:          "Rollout",
				ID:            string(rollout.UID),
				Name:          rollout.Name,
				Version:       rollout.Status.CanaryRevisionHash,
				ObservedAt:    now,
				Namespace:     rollout.Namespace,
				SourceOfTruth: "kubernetes",
			},
		},
	}

	if newPhase == rolloutv1alpha1.RolloutPhaseFailed {
		o.Error = &Error{
			Code:         "ROLLOUT_FAILED",
			WhatFailed:   fmt.Sprintf("rollout %s/%s transitioned to Failed", rollout.Namespace, rollout.Name),
			WhyItMatters: "traffic may still be routed to an unhealthy revision until this rollout is remediated",
			SuggestedFix: "inspect status.message and status.abResult, then roll back or fix the new revision",
		}
	}

	if err := w.Write(string(rollout.UID), o); err != nil {
		// best effort: the occurrence ledger is observability, not a gate
		_ = err
	}
}

// errorSummary renders a one-line summary of an occurrence's error block,
// or "" if there is none.
func (o Occurrence) errorSummary() string {
	if o.Error == nil {
		return ""
	}
	return o.Error.WhatFailed
}

// buildReasoning always produces a Reasoning block explaining why this
// transition happened, so an AIOps consumer never has to fall back to
// re-deriving it from rollout.status.message on its own.
func buildReasoning(rollout *rolloutv1alpha1.Rollout, oldPhase, newPhase rolloutv1alpha1.RolloutPhase) *Reasoning {
	summary := fmt.Sprintf("rollout %s/%s moved from %s to %s", rollout.Namespace, rollout.Name, oldPhase, newPhase)
	r := &Reasoning{Summary: summary}
	if rollout.Status.Message != "" {
		r.Explanation = rollout.Status.Message
	}
	switch newPhase {
	case rolloutv1alpha1.RolloutPhaseFailed:
		r.Recommendations = []string{"inspect status.message and status.abResult", "roll back or fix the new revision"}
	case rolloutv1alpha1.RolloutPhasePaused:
		r.Recommendations = []string{"review the violated metric threshold", "promote or abort via the rollout's annotations"}
	}
	return r
}
