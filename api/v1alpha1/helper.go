package v1alpha1

// HasPromoteAnnotation reports whether the user has asked the current pause
// (step or preview) to end immediately.
func (r *Rollout) HasPromoteAnnotation() bool {
	return r.Annotations[AnnotationPromote] == "true"
}

// HasConcludeExperimentAnnotation reports whether the user has asked the
// running A/B experiment to conclude on this reconcile.
func (r *Rollout) HasConcludeExperimentAnnotation() bool {
	return r.Annotations[AnnotationConcludeExperiment] == "true"
}

// StrategyKind names which strategy branch is populated.
type StrategyKind string

const (
	StrategyCanary    StrategyKind = "canary"
	StrategyBlueGreen StrategyKind = "blueGreen"
	StrategyABTesting StrategyKind = "abTesting"
	StrategySimple    StrategyKind = "simple"
)

// Kind returns which strategy branch of Spec.Strategy is populated, or ""
// if none (or more than one) is set. Callers that need a hard error on the
// zero/multiple case should use the validation package instead.
func (s RolloutStrategy) Kind() StrategyKind {
	set := 0
	var kind StrategyKind
	if s.Canary != nil {
		set++
		kind = StrategyCanary
	}
	if s.BlueGreen != nil {
		set++
		kind = StrategyBlueGreen
	}
	if s.ABTesting != nil {
		set++
		kind = StrategyABTesting
	}
	if s.Simple != nil {
		set++
		kind = StrategySimple
	}
	if set != 1 {
		return ""
	}
	return kind
}
