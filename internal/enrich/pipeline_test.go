package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/stocker/internal/provider"
	"github.com/seenimoa/stocker/pkg/models"
)

type fakeProvider struct {
	bundle     *models.ProfileBundle
	history    []models.DailyQuote
	summaryErr error
	historyErr error

	gotSymbol string
	gotFrom   time.Time
	gotTo     time.Time
}

func (f *fakeProvider) Info() provider.ProviderInfo { return provider.ProviderInfo{Name: "fake"} }
func (f *fakeProvider) Ping(context.Context) error  { return nil }

func (f *fakeProvider) QuoteSummary(_ context.Context, symbol string, _ []string) (*models.ProfileBundle, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.bundle, nil
}

func (f *fakeProvider) Historical(_ context.Context, symbol string, from, to time.Time, _ string) ([]models.DailyQuote, error) {
	f.gotSymbol, f.gotFrom, f.gotTo = symbol, from, to
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixtureToday is a Friday; every lookback target is a weekday.
var fixtureToday = time.Date(2024, 3, 15, 16, 30, 0, 0, time.UTC)

// threeYearHistory returns weekday quotes from 2021-03-01 to 2024-03-15, in
// descending order, with known prices on the four target dates.
func threeYearHistory(skip ...time.Time) []models.DailyQuote {
	known := map[time.Time]float64{
		date(2024, 2, 15):  160,
		date(2023, 12, 15): 100,
		date(2023, 3, 15):  250,
		date(2021, 3, 15):  50,
	}
	skipped := make(map[time.Time]bool, len(skip))
	for _, d := range skip {
		skipped[d] = true
	}

	var out []models.DailyQuote
	for d := date(2024, 3, 15); !d.Before(date(2021, 3, 1)); d = d.AddDate(0, 0, -1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday || skipped[d] {
			continue
		}
		q := models.DailyQuote{Date: d, Close: 123}
		if p, ok := known[d]; ok {
			q.Close = p
		}
		out = append(out, q)
	}
	// latest: adjusted close wins over close
	out[0] = models.DailyQuote{Date: date(2024, 3, 15), Close: 205, AdjClose: null.FloatFrom(200)}
	return out
}

func testBundle() *models.ProfileBundle {
	return &models.ProfileBundle{
		AssetProfile: &models.AssetProfile{
			Website: null.StringFrom("https://example.com"),
			Sector:  null.StringFrom("Technology"),
			City:    null.StringFrom("Stockholm"),
		},
		Price: &models.PriceModule{
			LongName:  null.StringFrom("Test Corp"),
			ShortName: null.StringFrom("Test"),
			MarketCap: null.FloatFrom(1e9),
		},
		DefaultKeyStatistics: &models.KeyStatistics{
			ForwardPE:   null.FloatFrom(18.5),
			TrailingEps: null.FloatFrom(8),
		},
		RecommendationTrend: &models.RecommendationTrend{Trend: []models.TrendEntry{
			{Period: "0m", StrongBuy: 1, Buy: 2, Hold: 3, Sell: 4, StrongSell: 5},
		}},
	}
}

func newTestPipeline(f *fakeProvider) *Pipeline {
	return NewPipeline(f, WithClock(func() time.Time { return fixtureToday }))
}

func TestEnrichEndToEnd(t *testing.T) {
	f := &fakeProvider{bundle: testBundle(), history: threeYearHistory()}
	rec, err := newTestPipeline(f).Enrich(context.Background(), " test ")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if f.gotSymbol != "TEST" {
		t.Errorf("symbol: got %q, want TEST", f.gotSymbol)
	}
	if !f.gotFrom.Equal(date(2021, 3, 15)) || !f.gotTo.Equal(date(2024, 3, 15)) {
		t.Errorf("window: got %s..%s", f.gotFrom, f.gotTo)
	}

	wantDev := map[string]string{
		"1 Month":  "25.00%",
		"3 Months": "100.00%",
		"1 Year":   "-20.00%",
		"3 Years":  "300.00%",
	}
	if len(rec.Development) != 4 {
		t.Fatalf("Development: got %d entries, want 4: %v", len(rec.Development), rec.Development)
	}
	for label, want := range wantDev {
		if got := rec.Development[label]; got != want {
			t.Errorf("Development[%q]: got %q, want %q", label, got, want)
		}
	}

	hp, ok := rec.HistoricalData["3 Years"]
	if !ok {
		t.Fatalf("HistoricalData missing 3 Years: %v", rec.HistoricalData)
	}
	if !hp.Date.Equal(date(2021, 3, 15)) || hp.Close != 50 {
		t.Errorf("HistoricalData[3 Years]: got %+v", hp)
	}

	if rec.RealtimePrice.Price != 200 || !rec.RealtimePrice.Timestamp.Equal(date(2024, 3, 15)) {
		t.Errorf("RealtimePrice: got %+v", rec.RealtimePrice)
	}
	if got, _ := rec.TrailingPE.Float(); got != 25 {
		t.Errorf("TrailingPE: got %v, want 25", rec.TrailingPE)
	}
	if rec.Name != "Test Corp" {
		t.Errorf("Name: got %q", rec.Name)
	}
	if rec.Symbol != "TEST" {
		t.Errorf("Symbol: got %q", rec.Symbol)
	}
	want := "(0m) 1 strong buy, 2 buy, 3 hold, 4 sell, 5 strong sell"
	if rec.Recommendation.String() != want {
		t.Errorf("Recommendation: got %q, want %q", rec.Recommendation, want)
	}
}

func TestEnrichDeviationLabel(t *testing.T) {
	// Without 2024-02-15 the neighbours 02-14 and 02-16 tie; the earlier wins.
	f := &fakeProvider{bundle: testBundle(), history: threeYearHistory(date(2024, 2, 15))}
	rec, err := newTestPipeline(f).Enrich(context.Background(), "TEST")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if _, ok := rec.Development["1 Month - 1 days"]; !ok {
		t.Errorf("expected deviation label, got %v", rec.Development)
	}
	if got := rec.HistoricalData["1 Month - 1 days"].Date; !got.Equal(date(2024, 2, 14)) {
		t.Errorf("matched date: got %s", got)
	}
}

func TestEnrichErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		symbol  string
		f       *fakeProvider
		wantOp  string
		wantErr error
	}{
		{"summary fails", "AAPL", &fakeProvider{summaryErr: boom, history: threeYearHistory()}, OpQuoteSummary, boom},
		{"history fails", "AAPL", &fakeProvider{bundle: testBundle(), historyErr: boom}, OpHistorical, boom},
		{"empty history", "AAPL", &fakeProvider{bundle: testBundle()}, OpHistorical, ErrNoHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestPipeline(tt.f).Enrich(context.Background(), tt.symbol)
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if ue.Op != tt.wantOp || ue.Symbol != tt.symbol {
				t.Errorf("got op %q symbol %q", ue.Op, ue.Symbol)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnrichEmptySymbol(t *testing.T) {
	_, err := newTestPipeline(&fakeProvider{}).Enrich(context.Background(), "   ")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "symbol" {
		t.Errorf("field: got %q", ve.Field)
	}
}

func TestEnrichNilBundle(t *testing.T) {
	f := &fakeProvider{history: threeYearHistory()}
	rec, err := newTestPipeline(f).Enrich(context.Background(), "TEST")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if rec.Name != models.Unknown || !rec.TrailingPE.IsUnknown() {
		t.Errorf("expected Unknown fields, got Name %q TrailingPE %v", rec.Name, rec.TrailingPE)
	}
	if len(rec.Development) != 4 {
		t.Errorf("Development: got %d entries", len(rec.Development))
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		raw, market, want string
	}{
		{"aapl", "", "AAPL"},
		{"  msft ", "us", "MSFT"},
		{"volvo b", "se", "VOLVO-B.ST"},
		{"ERIC  B", "SE", "ERIC-B.ST"},
		{"abb.st", "se", "ABB.ST"},
		{"   ", "se", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSymbol(tt.raw, tt.market); got != tt.want {
			t.Errorf("NormalizeSymbol(%q, %q): got %q, want %q", tt.raw, tt.market, got, tt.want)
		}
	}
}
