// Package traffic patches a Gateway API HTTPRoute's backend weights and A/B
// match rules to match the rollout's desired split.
package traffic

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
	gatewayv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	"github.com/kulta-io/kulta/internal/kerrors"
)

// defaultPort is used when a strategy does not set an explicit port.
const defaultPort = 80

// WeightedBackend is one backend this router should steer a share of
// traffic to.
type WeightedBackend struct {
	ServiceName string
	Port        int32
	Weight      int32
}

// MatchBackend additionally routes requests matching a header/cookie to a
// specific backend, used for A/B testing's variant-B steering.
type MatchBackend struct {
	WeightedBackend
	Header      string
	HeaderValue string
	Cookie      string
	CookieValue string
}

// Router reconciles a single HTTPRoute's first rule.
type Router struct {
	Client client.Client
}

// ApplyWeights idempotently patches routeName's first rule backendRefs to
// match backends. It retries on write conflicts by re-reading and
// reapplying, the usual shape for a mutate-then-update against a shared
// route object.
func (r *Router) ApplyWeights(ctx context.Context, namespace, routeName string, backends []WeightedBackend) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		route := &gatewayv1beta1.HTTPRoute{}
		key := types.NamespacedName{Namespace: namespace, Name: routeName}
		if err := r.Client.Get(ctx, key, route); err != nil {
			if apierrors.IsNotFound(err) {
				return kerrors.Transient(fmt.Errorf("httproute %s/%s not found", namespace, routeName))
			}
			return kerrors.Classify(err)
		}
		if len(route.Spec.Rules) == 0 {
			return kerrors.Validationf("httproute %s/%s has no rules to patch", namespace, routeName)
		}

		desired := buildBackendRefs(backends)
		if backendRefsEqual(route.Spec.Rules[0].BackendRefs, desired) {
			return nil
		}
		route.Spec.Rules[0].BackendRefs = desired
		if err := r.Client.Update(ctx, route); err != nil {
			return kerrors.Classify(err)
		}
		klog.Infof("httproute %s/%s backends updated: %v", namespace, routeName, backends)
		return nil
	})
}

// ApplyMatch idempotently patches routeName with two rules: a match rule
// sending matched requests entirely to variant B, and a fallback rule
// sending everything else to variant A. It is used only by A/B testing,
// which — unlike canary/blue-green — needs more than a weighted split.
func (r *Router) ApplyMatch(ctx context.Context, namespace, routeName string, match MatchBackend, fallback WeightedBackend) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		route := &gatewayv1beta1.HTTPRoute{}
		key := types.NamespacedName{Namespace: namespace, Name: routeName}
		if err := r.Client.Get(ctx, key, route); err != nil {
			if apierrors.IsNotFound(err) {
				return kerrors.Transient(fmt.Errorf("httproute %s/%s not found", namespace, routeName))
			}
			return kerrors.Classify(err)
		}

		rules := buildMatchRules(match, fallback)
		if httpRouteRulesEqual(route.Spec.Rules, rules) {
			return nil
		}
		route.Spec.Rules = rules
		if err := r.Client.Update(ctx, route); err != nil {
			return kerrors.Classify(err)
		}
		klog.Infof("httproute %s/%s match rules updated for variant-b steering", namespace, routeName)
		return nil
	})
}

func buildBackendRefs(backends []WeightedBackend) []gatewayv1beta1.HTTPBackendRef {
	refs := make([]gatewayv1beta1.HTTPBackendRef, 0, len(backends))
	for _, b := range backends {
		port := b.Port
		if port == 0 {
			port = defaultPort
		}
		weight := b.Weight
		refs = append(refs, gatewayv1beta1.HTTPBackendRef{
			BackendRef: gatewayv1beta1.BackendRef{
				BackendObjectReference: gatewayv1beta1.BackendObjectReference{
					Name: gatewayv1beta1.ObjectName(b.ServiceName),
					Port: portPtr(port),
				},
				Weight: &weight,
			},
		})
	}
	return refs
}

func buildMatchRules(match MatchBackend, fallback WeightedBackend) []gatewayv1beta1.HTTPRouteRule {
	matchRule := gatewayv1beta1.HTTPRouteRule{
		BackendRefs: buildBackendRefs([]WeightedBackend{{ServiceName: match.ServiceName, Port: match.Port, Weight: 100}}),
	}
	if match.Header != "" {
		exact := gatewayv1beta1.HeaderMatchExact
		matchRule.Matches = []gatewayv1beta1.HTTPRouteMatch{{
			Headers: []gatewayv1beta1.HTTPHeaderMatch{{
				Type:  &exact,
				Name:  gatewayv1beta1.HTTPHeaderName(match.Header),
				Value: match.HeaderValue,
			}},
		}}
	} else if match.Cookie != "" {
		exact := gatewayv1beta1.HeaderMatchExact
		matchRule.Matches = []gatewayv1beta1.HTTPRouteMatch{{
			Headers: []gatewayv1beta1.HTTPHeaderMatch{{
				Type:  &exact,
				Name:  "Cookie",
				Value: fmt.Sprintf("%s=%s", match.Cookie, match.CookieValue),
			}},
		}}
	}

	fallbackRule := gatewayv1beta1.HTTPRouteRule{
		BackendRefs: buildBackendRefs([]WeightedBackend{fallback}),
	}
	return []gatewayv1beta1.HTTPRouteRule{matchRule, fallbackRule}
}

func portPtr(p int32) *gatewayv1beta1.PortNumber {
	v := gatewayv1beta1.PortNumber(p)
	return &v
}

func backendRefsEqual(a, b []gatewayv1beta1.HTTPBackendRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
		aw, bw := int32(0), int32(0)
		if a[i].Weight != nil {
			aw = *a[i].Weight
		}
		if b[i].Weight != nil {
			bw = *b[i].Weight
		}
		if aw != bw {
			return false
		}
	}
	return true
}

func httpRouteRulesEqual(a, b []gatewayv1beta1.HTTPRouteRule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !backendRefsEqual(a[i].BackendRefs, b[i].BackendRefs) {
			return false
		}
		if !httpRouteMatchesEqual(a[i].Matches, b[i].Matches) {
			return false
		}
	}
	return true
}

func httpRouteMatchesEqual(a, b []gatewayv1beta1.HTTPRouteMatch) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !headerMatchesEqual(a[i].Headers, b[i].Headers) {
			return false
		}
	}
	return true
}

func headerMatchesEqual(a, b []gatewayv1beta1.HTTPHeaderMatch) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Value != b[i].Value {
			return false
		}
		at, bt := gatewayv1beta1.HeaderMatchExact, gatewayv1beta1.HeaderMatchExact
		if a[i].Type != nil {
			at = *a[i].Type
		}
		if b[i].Type != nil {
			bt = *b[i].Type
		}
		if at != bt {
			return false
		}
	}
	return true
}

// CanaryWeights returns (stableWeight, canaryWeight) for a canary step.
func CanaryWeights(canaryPercent int32) (stable, canary int32) {
	return 100 - canaryPercent, canaryPercent
}

// BlueGreenWeights returns (activeWeight, previewWeight): 0/100 once
// promoted (phase Completed), 100/0 otherwise (preview receives no live
// traffic until promotion).
func BlueGreenWeights(promoted bool) (active, preview int32) {
	if promoted {
		return 0, 100
	}
	return 100, 0
}
