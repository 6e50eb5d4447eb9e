package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

func TestNoOpAdvisorAlwaysContinues(t *testing.T) {
	rec, err := NoOpAdvisor{}.Advise(context.Background(), AnalysisContext{RolloutName: "demo"})
	if err != nil {
		t.Fatalf("Advise returned error: %v", err)
	}
	if rec.Action != RecommendedActionContinue {
		t.Fatalf("Action = %v, want Continue", rec.Action)
	}
	if rec.Confidence != 0 {
		t.Fatalf("Confidence = %v, want 0", rec.Confidence)
	}
}

func TestHTTPAdvisorPostsContextAndParsesRecommendation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got AnalysisContext
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if got.RolloutName != "checkout" {
			t.Errorf("RolloutName = %q, want checkout", got.RolloutName)
		}
		fmt.Fprint(w, `{"action":"Rollback","confidence":0.82,"reasoning":"error rate trending up"}`)
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(srv.URL, time.Second)
	rec, err := a.Advise(context.Background(), AnalysisContext{RolloutName: "checkout"})
	if err != nil {
		t.Fatalf("Advise returned error: %v", err)
	}
	if rec.Action != RecommendedActionRollback {
		t.Fatalf("Action = %v, want Rollback", rec.Action)
	}
	if rec.Confidence != 0.82 {
		t.Fatalf("Confidence = %v, want 0.82", rec.Confidence)
	}
}

func TestHTTPAdvisorNonTwoXXIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(srv.URL, time.Second)
	if _, err := a.Advise(context.Background(), AnalysisContext{}); err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}

func TestHTTPAdvisorUnreachableIsError(t *testing.T) {
	a := NewHTTPAdvisor("http://127.0.0.1:1", 100*time.Millisecond)
	if _, err := a.Advise(context.Background(), AnalysisContext{}); err == nil {
		t.Fatal("expected an error for an unreachable endpoint")
	}
}

func TestResolveOverrideAlwaysWins(t *testing.T) {
	override := NoOpAdvisor{}
	config := &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelDriven, Endpoint: "http://example.invalid"}
	got := Resolve(config, override, NewCache())
	if got != Advisor(override) {
		t.Fatalf("Resolve did not return the override advisor")
	}
}

func TestResolveOffAndContextAreNoOp(t *testing.T) {
	for _, level := range []rolloutv1alpha1.AdvisorLevel{rolloutv1alpha1.AdvisorLevelOff, rolloutv1alpha1.AdvisorLevelContext} {
		config := &rolloutv1alpha1.AdvisorConfig{Level: level, Endpoint: "http://example.invalid"}
		got := Resolve(config, nil, NewCache())
		if _, ok := got.(NoOpAdvisor); !ok {
			t.Fatalf("level %s: Resolve returned %T, want NoOpAdvisor", level, got)
		}
	}
}

func TestResolveAdvisedWithoutEndpointFallsBackToNoOp(t *testing.T) {
	config := &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelAdvised}
	got := Resolve(config, nil, NewCache())
	if _, ok := got.(NoOpAdvisor); !ok {
		t.Fatalf("Resolve returned %T, want NoOpAdvisor", got)
	}
}

func TestResolveAdvisedWithEndpointReturnsHTTPAdvisor(t *testing.T) {
	config := &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelAdvised, Endpoint: "http://example.invalid", TimeoutSeconds: 5}
	got := Resolve(config, nil, NewCache())
	if _, ok := got.(*HTTPAdvisor); !ok {
		t.Fatalf("Resolve returned %T, want *HTTPAdvisor", got)
	}
}

func TestResolveCachesHTTPAdvisorByEndpointAndTimeout(t *testing.T) {
	cache := NewCache()
	config := &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelAdvised, Endpoint: "http://example.invalid", TimeoutSeconds: 5}
	first := Resolve(config, nil, cache)
	second := Resolve(config, nil, cache)
	if first != second {
		t.Fatal("Resolve built a second HTTPAdvisor for the same (endpoint, timeout) key")
	}
}

func TestShouldConsult(t *testing.T) {
	cases := []struct {
		name   string
		config *rolloutv1alpha1.AdvisorConfig
		want   bool
	}{
		{"nil config", nil, false},
		{"off", &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelOff, Endpoint: "http://x"}, false},
		{"advised without endpoint", &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelAdvised}, false},
		{"advised with endpoint", &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelAdvised, Endpoint: "http://x"}, true},
		{"driven with endpoint", &rolloutv1alpha1.AdvisorConfig{Level: rolloutv1alpha1.AdvisorLevelDriven, Endpoint: "http://x"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ShouldConsult(c.config); got != c.want {
				t.Fatalf("ShouldConsult = %v, want %v", got, c.want)
			}
		})
	}
}
