package metrics

import (
	"context"
	"fmt"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

// MockQuerier is a test double. QueryInstant returns InstantQueue entries in
// FIFO order, falling back to 0 once the queue is drained; the other methods
// return the fixed values stubbed on the struct.
type MockQuerier struct {
	InstantQueue []float64
	InstantErr   error

	SampleCountByService     map[string]int64
	ConversionCountByService map[string]int64

	EvaluateHealthy bool
	EvaluateErr     error
}

// NewMockQuerier returns an always-healthy mock with empty service maps.
func NewMockQuerier() *MockQuerier {
	return &MockQuerier{
		EvaluateHealthy:          true,
		SampleCountByService:     map[string]int64{},
		ConversionCountByService: map[string]int64{},
	}
}

// QueryInstant implements Querier.
func (m *MockQuerier) QueryInstant(context.Context, string) (float64, error) {
	if m.InstantErr != nil {
		return 0, m.InstantErr
	}
	if len(m.InstantQueue) == 0 {
		return 0, nil
	}
	v := m.InstantQueue[0]
	m.InstantQueue = m.InstantQueue[1:]
	return v, nil
}

// EvaluateMetric implements Querier.
func (m *MockQuerier) EvaluateMetric(context.Context, string, rolloutv1alpha1.MetricQuery, string, string, float64) (bool, error) {
	if m.EvaluateErr != nil {
		return false, m.EvaluateErr
	}
	return m.EvaluateHealthy, nil
}

// EvaluateAll implements Querier.
func (m *MockQuerier) EvaluateAll(context.Context, []rolloutv1alpha1.MetricRule, string, string) (bool, error) {
	if m.EvaluateErr != nil {
		return false, m.EvaluateErr
	}
	return m.EvaluateHealthy, nil
}

// SampleCount implements Querier.
func (m *MockQuerier) SampleCount(_ context.Context, service string) (int64, error) {
	if v, ok := m.SampleCountByService[service]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("mock: no sample count stubbed for %q", service)
}

// ConversionCount implements Querier.
func (m *MockQuerier) ConversionCount(_ context.Context, service string) (int64, error) {
	if v, ok := m.ConversionCountByService[service]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("mock: no conversion count stubbed for %q", service)
}
