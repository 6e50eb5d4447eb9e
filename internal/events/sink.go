// Package events delivers pipeline lifecycle notifications as CloudEvents.
package events

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

// Type names the pipeline lifecycle events this controller can emit.
type Type string

const (
	TypeServiceDeployed   Type = "service.deployed"
	TypeServiceUpgraded   Type = "service.upgraded"
	TypeServicePublished  Type = "service.published"
	TypeServiceRolledback Type = "service.rolledback"
)

// Envelope is the event payload described by the external interface
// contract: a pipeline lifecycle event keyed to a Rollout. Namespace and
// Name route delivery (CloudEvents id/source, rate-limit logging) but are
// not part of the wire shape; Subject and CustomData are.
type Envelope struct {
	Namespace string `json:"-"`
	Name      string `json:"-"`

	Type       Type       `json:"type"`
	Source     string     `json:"source"`
	Subject    Subject    `json:"subject"`
	CustomData CustomData `json:"customData"`
}

// Subject identifies the Rollout an event describes and the artifact it
// carried at the time of the transition.
type Subject struct {
	ID      string  `json:"id"`
	Content Content `json:"content"`
}

// Content carries the deployed artifact and target environment.
type Content struct {
	ArtifactID  string      `json:"artifactId"`
	Environment Environment `json:"environment"`
}

// Environment names the target environment the Rollout's artifact is
// deployed into; it is the Rollout's namespace.
type Environment struct {
	ID string `json:"id"`
}

// CustomData carries the strategy-specific decision context: which step
// (if the strategy has one) and why the controller made this transition.
type CustomData struct {
	Strategy string   `json:"strategy"`
	Step     *Step    `json:"step,omitempty"`
	Decision Decision `json:"decision"`
}

// Step describes progress through a canary step list. Omitted for
// strategies that don't advance through discrete steps.
type Step struct {
	Index         int32 `json:"index"`
	Total         int32 `json:"total"`
	TrafficWeight int32 `json:"trafficWeight"`
}

// Decision carries the human-readable reason behind a phase transition.
type Decision struct {
	Reason string `json:"reason"`
}

// Sink delivers an event, best-effort. Implementations must not block the
// reconcile loop indefinitely and must not return an error that aborts
// reconciliation: event delivery is observability, not a control signal.
type Sink interface {
	Send(ctx context.Context, e Envelope)
}

// NoopSink discards every event. Used when no sink URL is configured.
type NoopSink struct{}

// Send does nothing.
func (NoopSink) Send(context.Context, Envelope) {}

// HTTPSink posts a CloudEvents v1.0 JSON envelope to a fixed URL, rate
// limited so a misbehaving rollout loop cannot flood the sink.
type HTTPSink struct {
	client  cloudevents.Client
	target  string
	limiter *rate.Limiter
}

// NewHTTPSink builds a sink that POSTs to target, never exceeding
// burst-then-steady-state of ratePerSecond events/second.
func NewHTTPSink(target string, ratePerSecond float64) (*HTTPSink, error) {
	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, fmt.Errorf("build cloudevents client: %w", err)
	}
	return &HTTPSink{
		client:  c,
		target:  target,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1),
	}, nil
}

// Send builds a CloudEvents envelope and posts it. Failures are logged, not
// returned: a down event sink must never block or fail a reconcile.
func (s *HTTPSink) Send(ctx context.Context, e Envelope) {
	if !s.limiter.Allow() {
		klog.Warningf("event sink rate limit exceeded, dropping %s for %s/%s", e.Type, e.Namespace, e.Name)
		return
	}
	ev := cloudevents.NewEvent()
	ev.SetID(fmt.Sprintf("%s.%s.%s", e.Namespace, e.Name, e.Type))
	ev.SetType(string(e.Type))
	ev.SetSource(e.Source)
	if err := ev.SetData(cloudevents.ApplicationJSON, e); err != nil {
		klog.Errorf("encode cloudevent for %s/%s: %v", e.Namespace, e.Name, err)
		return
	}
	sendCtx := cloudevents.ContextWithTarget(ctx, s.target)
	if result := s.client.Send(sendCtx, ev); cloudevents.IsUndelivered(result) {
		klog.Warningf("deliver cloudevent %s for %s/%s: %v", e.Type, e.Namespace, e.Name, result)
	}
}
