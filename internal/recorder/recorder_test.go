package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit", "runs.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorderRuns(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := Run{
			ID:         id,
			Kind:       KindRefresh,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Total:      3,
			Updated:    2,
			Failed:     1,
		}
		if err := r.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	// Replacing a run keeps one row per ID.
	if err := r.RecordRun(ctx, Run{ID: "run-c", Kind: KindRefresh, StartedAt: base.Add(2 * time.Hour), Aborted: true, Error: "disk full"}); err != nil {
		t.Fatalf("RecordRun replace: %v", err)
	}

	runs, err := r.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("order: got %s, %s", runs[0].ID, runs[1].ID)
	}
	if !runs[0].Aborted || runs[0].Error != "disk full" {
		t.Errorf("replaced run: got %+v", runs[0])
	}
	if !runs[1].StartedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("started_at: got %v", runs[1].StartedAt)
	}

	all, err := r.RecentRuns(ctx, 0)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs with default limit, got %d", len(all))
	}
}

func TestSQLiteRecorderResults(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	results := []Result{
		{RunID: "run-a", Symbol: "AAPL", OK: true, At: at},
		{RunID: "run-a", Symbol: "NOPE", OK: false, Error: "not found", At: at},
		{RunID: "run-b", Symbol: "MSFT", OK: true, At: at},
	}
	for _, res := range results {
		if err := r.RecordResult(ctx, res); err != nil {
			t.Fatalf("RecordResult: %v", err)
		}
	}

	got, err := r.Results(ctx, "run-a")
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Symbol != "AAPL" || !got[0].OK {
		t.Errorf("first result: got %+v", got[0])
	}
	if got[1].OK || got[1].Error != "not found" {
		t.Errorf("second result: got %+v", got[1])
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	ctx := context.Background()
	if err := r.RecordRun(ctx, Run{ID: "x"}); err != nil {
		t.Errorf("RecordRun: %v", err)
	}
	if err := r.RecordResult(ctx, Result{RunID: "x"}); err != nil {
		t.Errorf("RecordResult: %v", err)
	}
	runs, err := r.RecentRuns(ctx, 5)
	if err != nil || len(runs) != 0 {
		t.Errorf("RecentRuns: got %v, %v", runs, err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
