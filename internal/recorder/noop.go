package recorder

import "context"

// NoopRecorder is a no-op implementation used when no audit database is configured.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func NewNoopRecorder() NoopRecorder { return NoopRecorder{} }

func (NoopRecorder) RecordRun(context.Context, Run) error       { return nil }
func (NoopRecorder) RecordResult(context.Context, Result) error { return nil }
func (NoopRecorder) RecentRuns(context.Context, int) ([]Run, error) {
	return nil, nil
}
func (NoopRecorder) Close() error { return nil }
