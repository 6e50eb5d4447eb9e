// Package advisor consults an optional external AI advisory service
// alongside the threshold health decision. It never overrides the
// threshold outcome — its recommendation is only logged and recorded
// as an occurrence for an operator (or an automated responder) to weigh.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"k8s.io/klog/v2"
)

// AnalysisContext is everything the advisor needs to make a recommendation.
type AnalysisContext struct {
	RolloutName    string   `json:"rolloutName"`
	Namespace      string   `json:"namespace"`
	Strategy       string   `json:"strategy"`
	CurrentStep    *int32   `json:"currentStep,omitempty"`
	CurrentWeight  *int32   `json:"currentWeight,omitempty"`
	MetricsHealthy bool     `json:"metricsHealthy"`
	Phase          string   `json:"phase"`
	History        []string `json:"history,omitempty"`
}

// RecommendedAction is the advisor's suggested next move. The threshold
// decision always prevails regardless of which action comes back.
type RecommendedAction string

const (
	RecommendedActionContinue RecommendedAction = "Continue"
	RecommendedActionRollback RecommendedAction = "Rollback"
)

// Recommendation is the advisor's response to an AnalysisContext.
type Recommendation struct {
	Action     RecommendedAction `json:"action"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
}

// Advisor produces a Recommendation for an AnalysisContext.
type Advisor interface {
	Advise(ctx context.Context, analysis AnalysisContext) (Recommendation, error)
}

// NoOpAdvisor is the default for AdvisorLevelOff/Context: it returns
// Continue with zero confidence, so the threshold decision is used as-is.
type NoOpAdvisor struct{}

// Advise implements Advisor.
func (NoOpAdvisor) Advise(context.Context, AnalysisContext) (Recommendation, error) {
	return Recommendation{Action: RecommendedActionContinue, Confidence: 0, Reasoning: "no advisor configured"}, nil
}

// HTTPAdvisor calls an external AI advisory service over HTTP, for
// AdvisorLevelAdvised and above.
type HTTPAdvisor struct {
	client   *http.Client
	endpoint string
}

// NewHTTPAdvisor builds an advisor that POSTs an AnalysisContext to endpoint
// and expects a Recommendation back, bounded by timeout.
func NewHTTPAdvisor(endpoint string, timeout time.Duration) *HTTPAdvisor {
	return &HTTPAdvisor{client: &http.Client{Timeout: timeout}, endpoint: endpoint}
}

// Advise implements Advisor.
func (a *HTTPAdvisor) Advise(ctx context.Context, analysis AnalysisContext) (Recommendation, error) {
	body, err := json.Marshal(analysis)
	if err != nil {
		return Recommendation{}, fmt.Errorf("advisor: encode analysis context: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return Recommendation{}, fmt.Errorf("advisor: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Recommendation{}, fmt.Errorf("advisor: service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return Recommendation{}, fmt.Errorf("advisor: service returned HTTP %d: %s", resp.StatusCode, b)
	}
	var rec Recommendation
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Recommendation{}, fmt.Errorf("advisor: invalid response: %w", err)
	}
	return rec, nil
}

// Cache reuses HTTPAdvisor instances (and their underlying *http.Client)
// across reconciles, keyed by (endpoint, timeoutSeconds), so a tight
// reconcile loop doesn't build a new HTTP client on every tick.
type Cache struct {
	mu    sync.Mutex
	byKey map[cacheKey]*HTTPAdvisor
}

type cacheKey struct {
	endpoint string
	timeout  int64
}

// NewCache returns an empty advisor cache.
func NewCache() *Cache {
	return &Cache{byKey: map[cacheKey]*HTTPAdvisor{}}
}

func (c *Cache) get(endpoint string, timeoutSeconds int64) *HTTPAdvisor {
	key := cacheKey{endpoint: endpoint, timeout: timeoutSeconds}

	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.byKey[key]; ok {
		return a
	}
	a := NewHTTPAdvisor(endpoint, time.Duration(timeoutSeconds)*time.Second)
	c.byKey[key] = a
	return a
}

// Resolve picks the advisor to consult for config: Off/Context always
// returns NoOpAdvisor; Advised/Planned/Driven returns a cached HTTPAdvisor
// when an endpoint is configured, or NoOpAdvisor (logging the
// misconfiguration) when it isn't. override, when non-nil, always wins —
// the same test-override-wins precedent a mock querier or mock advisor
// needs to take over a reconcile under test.
func Resolve(config *rolloutv1alpha1.AdvisorConfig, override Advisor, cache *Cache) Advisor {
	if override != nil {
		return override
	}
	if config == nil {
		return NoOpAdvisor{}
	}
	switch config.Level {
	case rolloutv1alpha1.AdvisorLevelAdvised, rolloutv1alpha1.AdvisorLevelPlanned, rolloutv1alpha1.AdvisorLevelDriven:
		if config.Endpoint == "" {
			klog.Warningf("advisor level %s requires an endpoint but none is configured, falling back to no-op", config.Level)
			return NoOpAdvisor{}
		}
		if cache == nil {
			return NewHTTPAdvisor(config.Endpoint, time.Duration(config.TimeoutSeconds)*time.Second)
		}
		return cache.get(config.Endpoint, config.TimeoutSeconds)
	default: // Off, Context
		return NoOpAdvisor{}
	}
}

// ShouldConsult reports whether config's level calls for an advisory
// consultation at all, independent of whether an endpoint is configured.
func ShouldConsult(config *rolloutv1alpha1.AdvisorConfig) bool {
	if config == nil {
		return false
	}
	switch config.Level {
	case rolloutv1alpha1.AdvisorLevelAdvised, rolloutv1alpha1.AdvisorLevelPlanned, rolloutv1alpha1.AdvisorLevelDriven:
		return config.Endpoint != ""
	default:
		return false
	}
}
