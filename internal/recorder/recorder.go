// Package recorder keeps an audit trail of collection refreshes and adds.
package recorder

import (
	"context"
	"time"
)

// Run kinds.
const (
	KindRefresh = "refresh"
	KindAdd     = "add"
)

// Run summarizes one add or refresh.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // KindRefresh or KindAdd
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Aborted    bool      `json:"aborted"`
	Error      string    `json:"error,omitempty"`
}

// Result is the outcome for a single symbol within a run.
type Result struct {
	RunID  string    `json:"run_id"`
	Symbol string    `json:"symbol"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Recorder persists run history.
type Recorder interface {
	// RecordRun inserts or replaces the run with the same ID.
	RecordRun(ctx context.Context, run Run) error
	RecordResult(ctx context.Context, res Result) error
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
