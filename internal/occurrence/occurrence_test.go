package occurrence

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteAndRecentHistory(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		o := Occurrence{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Source:    "kulta",
			Type:      "canary.rollout.progressing",
			Severity:  SeverityInfo,
			Outcome:   OutcomeInProgress,
			Context:   Context{Namespace: "default"},
			Data:      map[string]interface{}{"phase": "Progressing"},
		}
		if err := w.Write("rollout-uid-1", o); err != nil {
			t.Fatalf("Write #%d returned error: %v", i, err)
		}
	}

	history, err := w.RecentHistory("rollout-uid-1", 2)
	if err != nil {
		t.Fatalf("RecentHistory returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("RecentHistory returned %d records, want 2", len(history))
	}
	if !history[0].Timestamp.After(history[1].Timestamp) {
		t.Fatalf("expected newest-first ordering, got %v before %v", history[0].Timestamp, history[1].Timestamp)
	}
}

func TestRecentHistoryOnMissingDirReturnsEmpty(t *testing.T) {
	w := NewWriter(t.TempDir())
	history, err := w.RecentHistory("never-written", 3)
	if err != nil {
		t.Fatalf("expected no error for a missing rollout directory, got %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no history, got %d records", len(history))
	}
}

func TestWriteCreatesOneFilePerOccurrenceNamedByULID(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	if err := w.Write("rollout-uid-2", Occurrence{Context: Context{Namespace: "default"}}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "rollout-uid-2"))
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file for one occurrence, got %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".json" {
		t.Fatalf("expected a .json file, got %q", entries[0].Name())
	}
}

func TestNewWriterDefaultsDir(t *testing.T) {
	os.Unsetenv("KULTA_OCCURRENCE_DIR")
	w := NewWriter("")
	if w.dir != "/tmp/kulta" {
		t.Fatalf("NewWriter(\"\") dir = %q, want /tmp/kulta", w.dir)
	}
}
