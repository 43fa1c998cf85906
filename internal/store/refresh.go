package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/recorder"
)

// ProgressSink receives human-readable progress messages. Delivery is best effort.
type ProgressSink interface {
	Notify(message string)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(message string)

func (f ProgressFunc) Notify(message string) { f(message) }

// NopSink discards progress.
type NopSink struct{}

func (NopSink) Notify(string) {}

// FailedSymbol is a symbol whose refresh did not complete.
type FailedSymbol struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// RefreshReport summarizes a RefreshAll run.
type RefreshReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Total      int            `json:"total"`
	Updated    []string       `json:"updated"`
	Failed     []FailedSymbol `json:"failed"`
}

// Summary returns the closing progress line.
func (r *RefreshReport) Summary() string {
	return fmt.Sprintf("Update finished: %d of %d stocks updated, %d failed",
		len(r.Updated), r.Total, len(r.Failed))
}

// RefreshAll re-enriches every stored symbol in document order, saving after
// each successful symbol. A symbol that fails to enrich is reported and
// skipped; a storage write failure stops the run and is returned.
func (s *Store) RefreshAll(ctx context.Context, sink ProgressSink) (*RefreshReport, error) {
	if sink == nil {
		sink = NopSink{}
	}

	symbols := s.Load(ctx).Symbols()
	report := &RefreshReport{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Total:     len(symbols),
		Updated:   []string{},
		Failed:    []FailedSymbol{},
	}
	log := s.log.With(zap.String("run_id", report.RunID))
	log.Info("refresh started", zap.Int("symbols", len(symbols)))
	sink.Notify(fmt.Sprintf("Starting update of %d stocks", len(symbols)))

	var fatal error
	for i, symbol := range symbols {
		res := recorder.Result{RunID: report.RunID, Symbol: symbol}

		err := s.refreshOne(ctx, symbol)
		res.At = s.now()
		var we *StorageWriteError
		switch {
		case err == nil:
			res.OK = true
			report.Updated = append(report.Updated, symbol)
			sink.Notify(fmt.Sprintf("Updated %s (%d/%d)", symbol, i+1, len(symbols)))
		case errors.As(err, &we):
			fatal = err
			res.Error = err.Error()
			report.Failed = append(report.Failed, FailedSymbol{Symbol: symbol, Error: err.Error()})
		default:
			res.Error = err.Error()
			report.Failed = append(report.Failed, FailedSymbol{Symbol: symbol, Error: err.Error()})
			log.Warn("refresh failed for symbol", zap.String("symbol", symbol), zap.Error(err))
			sink.Notify(fmt.Sprintf("Failed to update %s (%d/%d): %v", symbol, i+1, len(symbols), err))
		}
		if err := s.recorder.RecordResult(ctx, res); err != nil {
			log.Warn("audit result not recorded", zap.Error(err))
		}
		if fatal != nil {
			break
		}
	}

	report.FinishedAt = s.now()
	run := recorder.Run{
		ID:         report.RunID,
		Kind:       recorder.KindRefresh,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Total:      report.Total,
		Updated:    len(report.Updated),
		Failed:     len(report.Failed),
		Aborted:    fatal != nil,
	}
	if fatal != nil {
		run.Error = fatal.Error()
	}
	s.audit(ctx, run)

	if fatal != nil {
		log.Error("refresh aborted", zap.Error(fatal))
		sink.Notify(fmt.Sprintf("Update aborted: %v", fatal))
		return report, fatal
	}
	log.Info("refresh finished",
		zap.Int("updated", len(report.Updated)),
		zap.Int("failed", len(report.Failed)))
	sink.Notify(report.Summary())
	return report, nil
}

func (s *Store) refreshOne(ctx context.Context, symbol string) error {
	rec, err := s.enricher.Enrich(ctx, symbol)
	if err != nil {
		return err
	}
	return s.put(ctx, *rec)
}
