package occurrence

import (
	"fmt"
	"time"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

// EmitAdvisorRecommendation records an advisory consultation alongside the
// threshold decision that actually governed the rollout. The advisor never
// changes outcome, phase or severity here — this occurrence is purely a
// second opinion for an operator or automated responder to weigh against
// the phase-transition occurrence Emit already wrote.
func (w *Writer) EmitAdvisorRecommendation(rollout *rolloutv1alpha1.Rollout, action, reasoning string, confidence float64, now time.Time) {
	if rollout == nil || rollout.Name == "" || rollout.Namespace == "" {
		return
	}

	summary := fmt.Sprintf("advisor recommended %s for rollout %s/%s", action, rollout.Namespace, rollout.Name)
	o := Occurrence{
		Timestamp: now,
		Source:    "kulta-advisor",
		Type:      "rollout.advisor_recommendation",
		Severity:  SeverityInfo,
		Outcome:   OutcomeSuccess,
		Context: Context{
			Namespace: rollout.Namespace,
			CorrelationKeys: []CorrelationKey{
				{Type: "rollout", Value: rollout.Namespace + "/" + rollout.Name},
			},
		},
		Reasoning: &Reasoning{
			Summary:         summary,
			Explanation:     reasoning,
			Confidence:      confidence,
			Recommendations: []string{fmt.Sprintf("threshold decision still prevails; %s is advisory only", action)},
		},
		Data: map[string]interface{}{
			"action":     action,
			"confidence": confidence,
			"phase":      string(rollout.Status.Phase),
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

	if err := w.Write(string(rollout.UID), o); err != nil {
		_ = err
	}
}
