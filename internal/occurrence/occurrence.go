// Package occurrence writes structured, AIOps-consumable records of every
// rollout state transition: one JSON file per occurrence, named by its
// ULID, carrying error/reasoning/history blocks an operator or an
// automated responder can act on without re-deriving context from logs.
package occurrence

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"k8s.io/klog/v2"
)

// Severity mirrors standard log-level severities.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome describes how the transition that produced this occurrence ended.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeFailure    Outcome = "failure"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeInProgress Outcome = "in_progress"
	OutcomeUnknown    Outcome = "unknown"
)

// CorrelationKey lets an AIOps consumer join this occurrence against other
// telemetry (traces, deploy events) keyed the same way.
type CorrelationKey struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Context locates where this occurrence happened.
type Context struct {
	Cluster         string            `json:"cluster,omitempty"`
	Namespace       string            `json:"namespace"`
	CorrelationKeys []CorrelationKey  `json:"correlationKeys,omitempty"`
}

// Error describes a failure in a form suitable for an automated responder.
type Error struct {
	Code           string `json:"code"`
	WhatFailed     string `json:"whatFailed"`
	WhyItMatters   string `json:"whyItMatters"`
	PossibleCauses []string `json:"possibleCauses,omitempty"`
	SuggestedFix   string `json:"suggestedFix,omitempty"`
}

// Reasoning records the inputs and threshold values that drove the decision
// captured by this occurrence.
type Reasoning struct {
	Summary         string   `json:"summary"`
	Explanation     string   `json:"explanation,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// HistoryStep is one prior transition kept for context.
type HistoryStep struct {
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message,omitempty"`
}

// History carries the three most recent prior transitions for this rollout.
type History struct {
	DurationMS int64         `json:"durationMs"`
	Steps      []HistoryStep `json:"steps,omitempty"`
}

// Entity identifies a resource this occurrence concerns.
type Entity struct {
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Version        string    `json:"version,omitempty"`
	ObservedAt     time.Time `json:"observedAt"`
	Namespace      string    `json:"namespace,omitempty"`
	SourceOfTruth  string    `json:"sourceOfTruth,omitempty"`
}

// Occurrence is a single AIOps record.
type Occurrence struct {
	ID             string                 `json:"id"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source"`
	Type           string                 `json:"type"`
	Severity       Severity               `json:"severity"`
	Outcome        Outcome                `json:"outcome"`
	Context        Context                `json:"context"`
	Error          *Error                 `json:"error,omitempty"`
	Reasoning      *Reasoning             `json:"reasoning,omitempty"`
	History        *History               `json:"history,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Entities       []Entity               `json:"entities,omitempty"`
}

// Writer persists occurrences as one JSON file per record, named by the
// record's own ULID, under a directory keyed by rollout UID.
type Writer struct {
	dir string
}

// NewWriter builds a Writer rooted at dir (created if absent). Pass "" to
// use the KULTA_OCCURRENCE_DIR environment variable, defaulting to
// /tmp/kulta if that is also unset.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = os.Getenv("KULTA_OCCURRENCE_DIR")
	}
	if dir == "" {
		dir = "/tmp/kulta"
	}
	return &Writer{dir: dir}
}

func (w *Writer) rolloutDir(rolloutUID string) string {
	return filepath.Join(w.dir, rolloutUID)
}

// newULID mints a lexicographically sortable, timestamp-embedding ID using
// a process-local monotonic entropy source, matching the emphasis on sorted
// "most recent N" lookups the History block needs.
var entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

func newULID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// Write serializes o (stamping a fresh ULID and timestamp if unset) to its
// own file under the rollout's occurrence directory.
func (w *Writer) Write(rolloutUID string, o Occurrence) error {
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now().UTC()
	}
	if o.ID == "" {
		o.ID = newULID(o.Timestamp)
	}
	dir := w.rolloutDir(rolloutUID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("occurrence: mkdir %s: %w", dir, err)
	}
	payload, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("occurrence: marshal %s: %w", o.ID, err)
	}
	path := filepath.Join(dir, o.ID+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("occurrence: write %s: %w", path, err)
	}
	klog.V(4).Infof("occurrence: wrote %s", path)
	return nil
}

// RecentHistory returns up to n of the most recently written occurrences
// for rolloutUID (not counting the one currently being built), newest
// first, by listing the occurrence directory and sorting on the
// lexicographically-sortable ULID filename.
func (w *Writer) RecentHistory(rolloutUID string, n int) ([]Occurrence, error) {
	dir := w.rolloutDir(rolloutUID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("occurrence: read dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if len(names) > n {
		names = names[:n]
	}
	out := make([]Occurrence, 0, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var o Occurrence
		if err := json.Unmarshal(raw, &o); err != nil {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
