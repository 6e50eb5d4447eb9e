// Package metrics evaluates health thresholds and A/B significance against
// a Prometheus-compatible instant-query HTTP API.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/kerrors"
)

// Querier evaluates named metric thresholds and A/B sample data. Threshold
// metrics violate when their scalar value is strictly greater than the
// configured threshold; a value equal to the threshold is healthy.
type Querier interface {
	// QueryInstant runs a raw PromQL instant query and returns its single
	// scalar result.
	QueryInstant(ctx context.Context, query string) (float64, error)

	// EvaluateMetric runs the named built-in query for (rolloutName,
	// revision) and reports whether it is healthy against threshold.
	EvaluateMetric(ctx context.Context, name string, query rolloutv1alpha1.MetricQuery, rolloutName, revision string, threshold float64) (healthy bool, err error)

	// EvaluateAll short-circuits on the first unhealthy/erroring metric.
	EvaluateAll(ctx context.Context, rules []rolloutv1alpha1.MetricRule, rolloutName, revision string) (healthy bool, err error)

	// SampleCount returns the count of requests observed for service over
	// the experiment sampling window.
	SampleCount(ctx context.Context, service string) (int64, error)

	// ConversionCount returns the count of requests for service, over the
	// same window as SampleCount, that counted as a conversion.
	ConversionCount(ctx context.Context, service string) (int64, error)
}

// ErrNoData means the query returned an empty result set. Never a
// violation — the caller should treat this as MetricsUnavailable.
var ErrNoData = fmt.Errorf("metrics: no data")

// BuildErrorRateQuery renders the canary/stable error-rate PromQL template.
func BuildErrorRateQuery(rollout, revision string) string {
	return fmt.Sprintf(
		`sum(rate(http_requests_total{status=~"5..",rollout="%s",revision="%s"}[2m])) / sum(rate(http_requests_total{rollout="%s",revision="%s"}[2m])) * 100`,
		rollout, revision, rollout, revision)
}

// BuildLatencyP95Query renders the canary/stable p95-latency PromQL template.
func BuildLatencyP95Query(rollout, revision string) string {
	return fmt.Sprintf(
		`histogram_quantile(0.95, rate(http_request_duration_seconds_bucket{rollout="%s",revision="%s"}[2m]))`,
		rollout, revision)
}

// BuildABSampleCountQuery renders the experiment-variant sample-count template.
func BuildABSampleCountQuery(service string) string {
	return fmt.Sprintf(`sum(increase(http_requests_total{service="%s"}[1h]))`, service)
}

// BuildABConversionCountQuery renders the experiment-variant conversion-count
// template: requests against service, over the same window as
// BuildABSampleCountQuery, carrying the conversion label.
func BuildABConversionCountQuery(service string) string {
	return fmt.Sprintf(`sum(increase(http_requests_total{service="%s",conversion="true"}[1h]))`, service)
}

func buildQuery(name string, query rolloutv1alpha1.MetricQuery, rollout, revision string) (string, error) {
	switch query {
	case rolloutv1alpha1.MetricQueryErrorRate:
		return BuildErrorRateQuery(rollout, revision), nil
	case rolloutv1alpha1.MetricQueryLatencyP95:
		return BuildLatencyP95Query(rollout, revision), nil
	default:
		return "", fmt.Errorf("metrics: unknown query %q for metric %q", query, name)
	}
}

// HTTPQuerier talks to a live Prometheus-compatible HTTP API. There is no
// third-party Prometheus client in the retrieved example corpus, so this
// uses net/http + encoding/json directly against the documented instant
// query endpoint (`GET {address}/api/v1/query`).
type HTTPQuerier struct {
	Address string
	Client  *http.Client
}

// NewHTTPQuerier builds a querier against address (e.g. "http://prom:9090").
func NewHTTPQuerier(address string) *HTTPQuerier {
	return &HTTPQuerier{
		Address: address,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type promResponse struct {
	Status string `json:"status"`
	Data   struct {
		Result []struct {
			Value [2]interface{} `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

// QueryInstant implements Querier.
func (q *HTTPQuerier) QueryInstant(ctx context.Context, query string) (float64, error) {
	u := fmt.Sprintf("%s/api/v1/query?query=%s", q.Address, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, kerrors.Transient(err)
	}
	resp, err := q.Client.Do(req)
	if err != nil {
		return 0, kerrors.Transient(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, kerrors.Transient(err)
	}
	var parsed promResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, kerrors.Transient(fmt.Errorf("parse prometheus response: %w", err))
	}
	if parsed.Status != "success" {
		return 0, kerrors.Transient(fmt.Errorf("prometheus query failed: status=%s", parsed.Status))
	}
	if len(parsed.Data.Result) == 0 {
		return 0, kerrors.Transient(ErrNoData)
	}
	valStr, ok := parsed.Data.Result[0].Value[1].(string)
	if !ok {
		return 0, kerrors.Transient(fmt.Errorf("unexpected value shape in prometheus response"))
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, kerrors.Transient(fmt.Errorf("parse prometheus scalar %q: %w", valStr, err))
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, kerrors.Transient(fmt.Errorf("non-finite prometheus scalar %q", valStr))
	}
	return val, nil
}

// EvaluateMetric implements Querier. Violates (unhealthy) iff value > threshold, strictly.
func (q *HTTPQuerier) EvaluateMetric(ctx context.Context, name string, query rolloutv1alpha1.MetricQuery, rolloutName, revision string, threshold float64) (bool, error) {
	built, err := buildQuery(name, query, rolloutName, revision)
	if err != nil {
		return false, kerrors.Validation(err)
	}
	val, err := q.QueryInstant(ctx, built)
	if err != nil {
		return false, err
	}
	return val <= threshold, nil
}

// EvaluateAll implements Querier.
func (q *HTTPQuerier) EvaluateAll(ctx context.Context, rules []rolloutv1alpha1.MetricRule, rolloutName, revision string) (bool, error) {
	return evaluateAll(ctx, q, rules, rolloutName, revision)
}

func evaluateAll(ctx context.Context, q Querier, rules []rolloutv1alpha1.MetricRule, rolloutName, revision string) (bool, error) {
	if len(rules) == 0 {
		return true, nil
	}
	for _, rule := range rules {
		threshold, err := strconv.ParseFloat(rule.Threshold, 64)
		if err != nil {
			return false, kerrors.Validationf("metric %q: invalid threshold %q: %v", rule.Name, rule.Threshold, err)
		}
		healthy, err := q.EvaluateMetric(ctx, rule.Name, rule.Query, rolloutName, revision, threshold)
		if err != nil {
			return false, err
		}
		if !healthy {
			return false, nil
		}
	}
	return true, nil
}

// SampleCount implements Querier.
func (q *HTTPQuerier) SampleCount(ctx context.Context, service string) (int64, error) {
	val, err := q.QueryInstant(ctx, BuildABSampleCountQuery(service))
	if err != nil {
		return 0, err
	}
	return int64(val), nil
}

// ConversionCount implements Querier.
func (q *HTTPQuerier) ConversionCount(ctx context.Context, service string) (int64, error) {
	val, err := q.QueryInstant(ctx, BuildABConversionCountQuery(service))
	if err != nil {
		return 0, err
	}
	return int64(val), nil
}
