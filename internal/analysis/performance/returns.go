package performance

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/stocker/pkg/models"
)

// NoData is the Development value used when there is no baseline price.
const NoData = "Data saknas"

var hundred = decimal.NewFromInt(100)

// PercentChange formats the change from reference to latest as "12.34%".
// A missing or zero reference yields NoData.
func PercentChange(latest float64, reference null.Float) string {
	if !reference.Valid || reference.Float64 == 0 {
		return NoData
	}
	ref := decimal.NewFromFloat(reference.Float64)
	change := decimal.NewFromFloat(latest).Sub(ref).Div(ref).Mul(hundred)
	return change.StringFixed(2) + "%"
}

// EffectivePrice prefers the adjusted close and falls back to the raw close.
func EffectivePrice(q models.DailyQuote) float64 {
	if q.AdjClose.Valid {
		return q.AdjClose.Float64
	}
	return q.Close
}
