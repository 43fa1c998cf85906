package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/enrich"
	"github.com/seenimoa/stocker/internal/recorder"
	"github.com/seenimoa/stocker/pkg/models"
)

// Store is the collection service used by the API and CLI.
type Store struct {
	storage  Storage
	enricher enrich.Enricher
	recorder recorder.Recorder
	log      *zap.Logger
	now      func() time.Time

	// mu makes each load-upsert-save atomic within the process.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder sets the audit recorder.
func WithRecorder(r recorder.Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store over storage that enriches symbols with e.
func New(storage Storage, e enrich.Enricher, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		enricher: e,
		recorder: recorder.NewNoopRecorder(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the stored collection. Missing or unreadable storage yields an
// empty collection; read failures are logged, not returned.
func (s *Store) Load(ctx context.Context) Collection {
	c, err := s.storage.Read(ctx)
	switch {
	case err == nil:
		return c
	case errors.Is(err, ErrNotFound):
	default:
		s.log.Warn("collection unreadable, starting empty", zap.Error(err))
	}
	return Collection{}
}

// All returns the stored collection, failing with ErrNotFound or
// *StorageReadError instead of degrading.
func (s *Store) All(ctx context.Context) (Collection, error) {
	return s.storage.Read(ctx)
}

// Save overwrites the stored collection.
func (s *Store) Save(ctx context.Context, c Collection) error {
	if err := s.storage.Write(ctx, c); err != nil {
		var we *StorageWriteError
		if !errors.As(err, &we) {
			err = &StorageWriteError{Err: err}
		}
		return err
	}
	return nil
}

// Upsert replaces the record whose symbol matches rec's case-insensitively,
// keeping its position, or appends rec. c is not modified.
func Upsert(c Collection, rec models.StockRecord) Collection {
	out := clone(c)
	for i := range out {
		if strings.EqualFold(out[i].Symbol, rec.Symbol) {
			out[i] = rec
			return out
		}
	}
	return append(out, rec)
}

// Symbols lists the record symbols in document order.
func (c Collection) Symbols() []string {
	out := make([]string, 0, len(c))
	for _, r := range c {
		out = append(out, r.Symbol)
	}
	return out
}

// Find returns the record for symbol, matched case-insensitively.
func (c Collection) Find(symbol string) (models.StockRecord, bool) {
	for _, r := range c {
		if strings.EqualFold(r.Symbol, symbol) {
			return r, true
		}
	}
	return models.StockRecord{}, false
}

// Add enriches symbol (normalized for market) and upserts the result.
func (s *Store) Add(ctx context.Context, symbol, market string) (*models.StockRecord, error) {
	started := s.now()
	normalized := enrich.NormalizeSymbol(symbol, market)
	if normalized == "" {
		return nil, &enrich.ValidationError{Field: "symbol", Message: "must not be empty"}
	}

	run := recorder.Run{ID: uuid.NewString(), Kind: recorder.KindAdd, StartedAt: started, Total: 1}
	rec, err := s.enricher.Enrich(ctx, normalized)
	if err == nil {
		err = s.put(ctx, *rec)
	}

	res := recorder.Result{RunID: run.ID, Symbol: normalized, OK: err == nil, At: s.now()}
	if err != nil {
		res.Error = err.Error()
		run.Failed, run.Error = 1, err.Error()
	} else {
		run.Updated = 1
	}
	run.FinishedAt = res.At
	s.audit(ctx, run, res)

	if err != nil {
		return nil, err
	}
	s.log.Info("stock added", zap.String("symbol", rec.Symbol))
	return rec, nil
}

// put performs one atomic load-upsert-save.
func (s *Store) put(ctx context.Context, rec models.StockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Save(ctx, Upsert(s.Load(ctx), rec))
}

func (s *Store) audit(ctx context.Context, run recorder.Run, results ...recorder.Result) {
	for _, res := range results {
		if err := s.recorder.RecordResult(ctx, res); err != nil {
			s.log.Warn("audit result not recorded", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		s.log.Warn("audit run not recorded", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// RecentRuns returns the latest audited runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]recorder.Run, error) {
	return s.recorder.RecentRuns(ctx, limit)
}
