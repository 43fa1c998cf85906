// Package fundamental maps the upstream profile bundle onto the canonical
// stock record, resolving each field through its fallback chain.
package fundamental

import (
	"fmt"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/stocker/pkg/models"
)

// Normalize builds every static field of the record for symbol. The time-series
// parts (RealtimePrice, Development, HistoricalData) are left empty.
// latestPrice feeds the computed TrailingPE. A nil bundle yields an all-Unknown record.
func Normalize(symbol string, bundle *models.ProfileBundle, latestPrice float64) models.StockRecord {
	rec := models.StockRecord{Symbol: symbol}
	for _, rule := range Rules {
		rule.set(&rec, Resolve(rule, bundle))
	}

	var eps null.Float
	if bundle != nil && bundle.DefaultKeyStatistics != nil {
		eps = bundle.DefaultKeyStatistics.TrailingEps
	}
	rec.TrailingPE = TrailingPE(latestPrice, eps)
	rec.Recommendation = Recommendation(bundle)
	return rec
}

// Resolve returns the first resolved source value of rule, or Unknown.
func Resolve(rule Rule, bundle *models.ProfileBundle) models.Value {
	for _, src := range rule.Sources {
		if v := src.Get(bundle); !v.IsUnknown() {
			return v
		}
	}
	return models.UnknownValue()
}

// RuleFor looks up the rule of a record field by name.
func RuleFor(field string) (Rule, bool) {
	for _, r := range Rules {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}

// TrailingPE computes latestPrice / trailingEps rounded to 2 decimals.
// Any upstream trailing P/E is ignored.
func TrailingPE(latestPrice float64, trailingEps null.Float) models.Value {
	if !trailingEps.Valid || trailingEps.Float64 == 0 {
		return models.UnknownValue()
	}
	pe := decimal.NewFromFloat(latestPrice).
		Div(decimal.NewFromFloat(trailingEps.Float64)).
		Round(2)
	f, _ := pe.Float64()
	return models.Number(f)
}

// Recommendation formats the most recent analyst trend entry. Without a trend
// module it falls back to the mean score or the recommendation key.
func Recommendation(bundle *models.ProfileBundle) models.Value {
	if bundle != nil && bundle.RecommendationTrend != nil {
		return formatTrend(bundle.RecommendationTrend.Trend)
	}
	return Resolve(recommendationFallback, bundle)
}

func formatTrend(trend []models.TrendEntry) models.Value {
	if len(trend) == 0 {
		return models.UnknownValue()
	}
	t := trend[0]
	return models.Text(fmt.Sprintf("(%s) %d strong buy, %d buy, %d hold, %d sell, %d strong sell",
		t.Period, t.StrongBuy, t.Buy, t.Hold, t.Sell, t.StrongSell))
}
