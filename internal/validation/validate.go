// Package validation statically checks a Rollout spec's shape and value
// ranges before the reconcile loop acts on it.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/kerrors"
)

// Validate returns a terminal validation error describing the first
// problem found, or nil if spec is well-formed. It does not attempt to
// collect every problem at once: a single authoritative message is easier
// for an operator to act on than a list.
func Validate(r *rolloutv1alpha1.Rollout) error {
	spec := &r.Spec
	if spec.Replicas != nil && *spec.Replicas < 0 {
		return kerrors.Validationf("spec.replicas must be >= 0")
	}
	if spec.Selector == nil {
		return kerrors.Validationf("spec.selector is required")
	}
	if len(spec.Template.Spec.Containers) == 0 {
		return kerrors.Validationf("spec.template must define at least one container")
	}

	switch spec.Strategy.Kind() {
	case rolloutv1alpha1.StrategyCanary:
		return validateCanary(spec.Strategy.Canary)
	case rolloutv1alpha1.StrategyBlueGreen:
		return validateBlueGreen(spec.Strategy.BlueGreen)
	case rolloutv1alpha1.StrategyABTesting:
		return validateABTesting(spec.Strategy.ABTesting)
	case rolloutv1alpha1.StrategySimple:
		return validateAnalysis(spec.Strategy.Simple.Analysis)
	default:
		return kerrors.Validationf("spec.strategy must set exactly one of canary, blueGreen, abTesting, simple")
	}
}

func validateCanary(c *rolloutv1alpha1.CanaryStrategy) error {
	if c.StableService == "" || c.CanaryService == "" {
		return kerrors.Validationf("canary.stableService and canary.canaryService are required")
	}
	if len(c.Steps) == 0 {
		return kerrors.Validationf("canary.steps must have at least one entry")
	}
	prevWeight := int32(-1)
	for i, step := range c.Steps {
		if step.SetWeight < 0 || step.SetWeight > 100 {
			return kerrors.Validationf("canary.steps[%d].setWeight must be 0-100, got %d", i, step.SetWeight)
		}
		if step.SetWeight < prevWeight {
			return kerrors.Validationf("canary.steps[%d].setWeight (%d) is lower than the previous step's (%d): weights must be non-decreasing", i, step.SetWeight, prevWeight)
		}
		prevWeight = step.SetWeight
		if step.Pause != nil && step.Pause.Duration != "" {
			if _, err := ParseDuration(step.Pause.Duration); err != nil {
				return kerrors.Validationf("canary.steps[%d].pause.duration: %v", i, err)
			}
		}
	}
	if last := c.Steps[len(c.Steps)-1]; last.SetWeight != 100 {
		return kerrors.Validationf("canary.steps: final step must set weight 100, got %d", last.SetWeight)
	}
	if err := validateTrafficRouting(c.TrafficRouting); err != nil {
		return err
	}
	return validateAnalysis(c.Analysis)
}

func validateBlueGreen(bg *rolloutv1alpha1.BlueGreenStrategy) error {
	if bg.ActiveService == "" || bg.PreviewService == "" {
		return kerrors.Validationf("blueGreen.activeService and blueGreen.previewService are required")
	}
	return validateTrafficRouting(bg.TrafficRouting)
}

func validateABTesting(ab *rolloutv1alpha1.ABTestingStrategy) error {
	if ab.VariantAService == "" || ab.VariantBService == "" {
		return kerrors.Validationf("abTesting.variantAService and abTesting.variantBService are required")
	}
	if ab.MaxDuration != "" {
		if _, err := ParseDuration(ab.MaxDuration); err != nil {
			return kerrors.Validationf("abTesting.maxDuration: %v", err)
		}
	}
	if ab.Analysis == nil {
		return kerrors.Validationf("abTesting.analysis is required")
	}
	if ab.Analysis.ConfidenceLevel <= 0 || ab.Analysis.ConfidenceLevel >= 1 {
		return kerrors.Validationf("abTesting.analysis.confidenceLevel must be in (0, 1), got %v", ab.Analysis.ConfidenceLevel)
	}
	if ab.Analysis.MinDuration != "" {
		if _, err := ParseDuration(ab.Analysis.MinDuration); err != nil {
			return kerrors.Validationf("abTesting.analysis.minDuration: %v", err)
		}
	}
	return validateTrafficRouting(ab.TrafficRouting)
}

func validateAnalysis(a *rolloutv1alpha1.AnalysisConfig) error {
	if a == nil {
		return nil
	}
	if a.WarmupDuration != "" {
		if _, err := ParseDuration(a.WarmupDuration); err != nil {
			return kerrors.Validationf("analysis.warmupDuration: %v", err)
		}
	}
	seen := map[string]bool{}
	for i, m := range a.Metrics {
		if m.Name == "" {
			return kerrors.Validationf("analysis.metrics[%d].name is required", i)
		}
		if seen[m.Name] {
			return kerrors.Validationf("analysis.metrics: duplicate metric name %q", m.Name)
		}
		seen[m.Name] = true
		switch m.Query {
		case rolloutv1alpha1.MetricQueryErrorRate, rolloutv1alpha1.MetricQueryLatencyP95:
		default:
			return kerrors.Validationf("analysis.metrics[%d].query %q is not a recognized metric query", i, m.Query)
		}
		if _, err := strconv.ParseFloat(m.Threshold, 64); err != nil {
			return kerrors.Validationf("analysis.metrics[%d].threshold %q is not a number", i, m.Threshold)
		}
	}
	return nil
}

func validateTrafficRouting(tr *rolloutv1alpha1.TrafficRouting) error {
	if tr == nil {
		return nil
	}
	if tr.GatewayAPI != nil && tr.GatewayAPI.HTTPRoute == "" {
		return kerrors.Validationf("trafficRouting.gatewayAPI.httpRoute must not be empty when set")
	}
	return nil
}

// ParseDuration parses a single-unit duration string ("30s", "5m", "1h")
// with per-unit ceilings: seconds up to 86400, minutes up to 1440, hours up
// to 168. An empty or zero duration is rejected — callers that want "no
// duration" should leave the field unset.
func ParseDuration(s string) (int32, error) {
	if s == "" {
		return 0, fmt.Errorf("duration must not be empty")
	}
	unit := s[len(s)-1:]
	numPart := s[:len(s)-1]
	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %v", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}

	var seconds, max int
	switch strings.ToLower(unit) {
	case "s":
		seconds, max = n, 86400
	case "m":
		seconds, max = n*60, 1440*60
	case "h":
		seconds, max = n*3600, 168*3600
	default:
		return 0, fmt.Errorf("duration %q must end in s, m, or h", s)
	}
	if seconds > max {
		return 0, fmt.Errorf("duration %q exceeds the maximum for its unit", s)
	}
	return int32(seconds), nil
}
