// Package enrich turns a ticker symbol into a complete stock record by
// combining the provider's profile bundle with derived price development.
package enrich

import (
	"context"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stocker/internal/analysis/fundamental"
	"github.com/seenimoa/stocker/internal/analysis/performance"
	"github.com/seenimoa/stocker/internal/provider"
	"github.com/seenimoa/stocker/pkg/models"
)

// Enricher builds a record for one symbol.
type Enricher interface {
	Enrich(ctx context.Context, symbol string) (*models.StockRecord, error)
}

// Pipeline fetches and assembles stock records.
type Pipeline struct {
	provider provider.Provider
	now      func() time.Time
	log      *zap.Logger
}

var _ Enricher = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// NewPipeline creates a pipeline backed by prov.
func NewPipeline(prov provider.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{provider: prov, now: time.Now, log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Enrich fetches the profile bundle and three years of daily history for
// symbol and assembles the record. Market suffixes are the caller's concern;
// Enrich only upper-cases and trims symbol.
func (p *Pipeline) Enrich(ctx context.Context, symbol string) (*models.StockRecord, error) {
	symbol = NormalizeSymbol(symbol, "")
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Message: "must not be empty"}
	}

	today := performance.Today(p.now())
	from, to := performance.Window(today)

	var (
		bundle  *models.ProfileBundle
		history []models.DailyQuote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := p.provider.QuoteSummary(gctx, symbol, provider.DefaultModules)
		if err != nil {
			return &UpstreamError{Symbol: symbol, Op: OpQuoteSummary, Err: err}
		}
		bundle = b
		return nil
	})
	g.Go(func() error {
		h, err := p.provider.Historical(gctx, symbol, from, to, provider.IntervalDaily)
		if err != nil {
			return &UpstreamError{Symbol: symbol, Op: OpHistorical, Err: err}
		}
		if len(h) == 0 {
			return &UpstreamError{Symbol: symbol, Op: OpHistorical, Err: ErrNoHistory}
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		p.log.Warn("enrichment fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})
	latest := history[len(history)-1]
	latestPrice := performance.EffectivePrice(latest)

	rec := fundamental.Normalize(symbol, bundle, latestPrice)
	rec.RealtimePrice = models.RealtimePrice{Timestamp: latest.Date, Price: latestPrice}
	rec.Development = make(map[string]string, len(performance.Periods()))
	rec.HistoricalData = make(map[string]models.HistoricalPoint, len(performance.Periods()))

	for _, period := range performance.Periods() {
		m, err := performance.Match(history, period, today)
		if err != nil {
			return nil, &UpstreamError{Symbol: symbol, Op: OpHistorical, Err: err}
		}
		ref := performance.EffectivePrice(m.Quote)
		label := m.Label()
		rec.Development[label] = performance.PercentChange(latestPrice, null.FloatFrom(ref))
		rec.HistoricalData[label] = models.HistoricalPoint{Date: m.Quote.Date, Close: ref}
	}

	p.log.Debug("symbol enriched",
		zap.String("symbol", symbol),
		zap.Int("quotes", len(history)),
		zap.Float64("latest_price", latestPrice))
	return &rec, nil
}
