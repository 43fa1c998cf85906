package fundamental

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/stocker/pkg/models"
)

// Source is one upstream location a field can be read from.
type Source struct {
	Path string // upstream module.field, e.g. "defaultKeyStatistics.forwardPE"
	Get  func(*models.ProfileBundle) models.Value
}

// Rule is the ordered fallback chain of one record field.
type Rule struct {
	Field   string
	Sources []Source
	set     func(*models.StockRecord, models.Value)
}

// Rules lists every directly resolved record field with its sources in priority order.
// TrailingPE and Recommendation are derived separately.
var Rules = []Rule{
	{"Name", []Source{priceText("longName", pLongName), priceText("shortName", pShortName)},
		func(r *models.StockRecord, v models.Value) { r.Name = v.String() }},
	{"ShortName", []Source{priceText("shortName", pShortName)},
		func(r *models.StockRecord, v models.Value) { r.ShortName = v.String() }},
	{"Website", []Source{profileText("website", func(m *models.AssetProfile) null.String { return m.Website })},
		func(r *models.StockRecord, v models.Value) { r.Website = v.String() }},
	{"Sector", []Source{profileText("sector", func(m *models.AssetProfile) null.String { return m.Sector })},
		func(r *models.StockRecord, v models.Value) { r.Sector = v.String() }},
	{"Industry", []Source{profileText("industry", func(m *models.AssetProfile) null.String { return m.Industry })},
		func(r *models.StockRecord, v models.Value) { r.Industry = v.String() }},
	{"Country", []Source{profileText("country", func(m *models.AssetProfile) null.String { return m.Country })},
		func(r *models.StockRecord, v models.Value) { r.Country = v.String() }},
	{"Address.Street", []Source{profileText("address1", func(m *models.AssetProfile) null.String { return m.Address1 })},
		func(r *models.StockRecord, v models.Value) { r.Address.Street = v.String() }},
	{"Address.City", []Source{profileText("city", func(m *models.AssetProfile) null.String { return m.City })},
		func(r *models.StockRecord, v models.Value) { r.Address.City = v.String() }},
	{"Address.State", []Source{profileText("state", func(m *models.AssetProfile) null.String { return m.State })},
		func(r *models.StockRecord, v models.Value) { r.Address.State = v.String() }},
	{"Address.Zip", []Source{profileText("zip", func(m *models.AssetProfile) null.String { return m.Zip })},
		func(r *models.StockRecord, v models.Value) { r.Address.Zip = v.String() }},

	{"MarketCapitalization", []Source{priceNum("marketCap", func(m *models.PriceModule) null.Float { return m.MarketCap })},
		func(r *models.StockRecord, v models.Value) { r.MarketCapitalization = v }},
	{"ForwardPE", []Source{
		statsNum("forwardPE", func(m *models.KeyStatistics) null.Float { return m.ForwardPE }),
		finNum("forwardPE", func(m *models.FinancialData) null.Float { return m.ForwardPE }),
	}, func(r *models.StockRecord, v models.Value) { r.ForwardPE = v }},
	{"EPS", []Source{statsNum("trailingEps", ksTrailingEps)},
		func(r *models.StockRecord, v models.Value) { r.EPS = v }},
	{"epsTrailingTwelveMonths", []Source{
		priceNum("epsTrailingTwelveMonths", func(m *models.PriceModule) null.Float { return m.EpsTrailingTwelveMonths }),
		statsNum("trailingEps", ksTrailingEps),
	}, func(r *models.StockRecord, v models.Value) { r.EpsTrailingTwelveMonths = v }},
	{"epsForward", []Source{priceNum("epsForward", func(m *models.PriceModule) null.Float { return m.EpsForward })},
		func(r *models.StockRecord, v models.Value) { r.EpsForward = v }},
	{"Beta", []Source{
		statsNum("beta", func(m *models.KeyStatistics) null.Float { return m.Beta }),
		finNum("beta", func(m *models.FinancialData) null.Float { return m.Beta }),
	}, func(r *models.StockRecord, v models.Value) { r.Beta = v }},
	{"BookValue", []Source{
		statsNum("bookValue", func(m *models.KeyStatistics) null.Float { return m.BookValue }),
		priceNum("bookValue", func(m *models.PriceModule) null.Float { return m.BookValue }),
	}, func(r *models.StockRecord, v models.Value) { r.BookValue = v }},
	{"PriceToBook", []Source{
		statsNum("priceToBook", func(m *models.KeyStatistics) null.Float { return m.PriceToBook }),
		priceNum("priceToBook", func(m *models.PriceModule) null.Float { return m.PriceToBook }),
	}, func(r *models.StockRecord, v models.Value) { r.PriceToBook = v }},
	{"TotalRevenue", []Source{finNum("totalRevenue", func(m *models.FinancialData) null.Float { return m.TotalRevenue })},
		func(r *models.StockRecord, v models.Value) { r.TotalRevenue = v }},
	{"GrossMargins", []Source{
		finNum("grossMargins", func(m *models.FinancialData) null.Float { return m.GrossMargins }),
		summaryNum("grossMargins", func(m *models.SummaryDetail) null.Float { return m.GrossMargins }),
	}, func(r *models.StockRecord, v models.Value) { r.GrossMargins = v }},
	{"OperatingMargins", []Source{
		finNum("operatingMargins", func(m *models.FinancialData) null.Float { return m.OperatingMargins }),
		summaryNum("operatingMargins", func(m *models.SummaryDetail) null.Float { return m.OperatingMargins }),
	}, func(r *models.StockRecord, v models.Value) { r.OperatingMargins = v }},
	{"AnalystTargetMeanPrice", []Source{
		finNum("targetMeanPrice", func(m *models.FinancialData) null.Float { return m.TargetMeanPrice }),
		priceNum("targetMeanPrice", func(m *models.PriceModule) null.Float { return m.TargetMeanPrice }),
	}, func(r *models.StockRecord, v models.Value) { r.AnalystTargetMeanPrice = v }},

	{"Dividend.DividendRate", []Source{
		finNum("dividendRate", func(m *models.FinancialData) null.Float { return m.DividendRate }),
		summaryNum("dividendRate", func(m *models.SummaryDetail) null.Float { return m.DividendRate }),
	}, func(r *models.StockRecord, v models.Value) { r.Dividend.DividendRate = v }},
	{"Dividend.DividendYield", []Source{
		finNum("dividendYield", func(m *models.FinancialData) null.Float { return m.DividendYield }),
		summaryNum("dividendYield", func(m *models.SummaryDetail) null.Float { return m.DividendYield }),
	}, func(r *models.StockRecord, v models.Value) { r.Dividend.DividendYield = v }},
	{"Dividend.ExDividendDate", []Source{
		{"financialData.exDividendDate", from(finMod, func(m *models.FinancialData) models.Value { return dateValue(m.ExDividendDate) })},
		{"summaryDetail.exDividendDate", from(summaryMod, func(m *models.SummaryDetail) models.Value { return dateValue(m.ExDividendDate) })},
	}, func(r *models.StockRecord, v models.Value) { r.Dividend.ExDividendDate = v }},

	// The 52-week range prefers analyst target prices over the traded range.
	{"52WeekHigh", []Source{
		finNum("targetHighPrice", func(m *models.FinancialData) null.Float { return m.TargetHighPrice }),
		summaryNum("fiftyTwoWeekHigh", func(m *models.SummaryDetail) null.Float { return m.FiftyTwoWeekHigh }),
	}, func(r *models.StockRecord, v models.Value) { r.FiftyTwoWeekHigh = v }},
	{"52WeekLow", []Source{
		finNum("targetLowPrice", func(m *models.FinancialData) null.Float { return m.TargetLowPrice }),
		summaryNum("fiftyTwoWeekLow", func(m *models.SummaryDetail) null.Float { return m.FiftyTwoWeekLow }),
	}, func(r *models.StockRecord, v models.Value) { r.FiftyTwoWeekLow = v }},
}

// recommendationFallback applies when no recommendation trend module was returned.
var recommendationFallback = Rule{Field: "Recommendation", Sources: []Source{
	statsNum("recommendationMean", func(m *models.KeyStatistics) null.Float { return m.RecommendationMean }),
	finNum("recommendationMean", func(m *models.FinancialData) null.Float { return m.RecommendationMean }),
	priceText("recommendationKey", func(m *models.PriceModule) null.String { return m.RecommendationKey }),
	{"financialData.recommendationKey", from(finMod, func(m *models.FinancialData) models.Value { return textValue(m.RecommendationKey) })},
}}

// ── module selectors ──

func profileMod(b *models.ProfileBundle) *models.AssetProfile { return b.AssetProfile }
func priceMod(b *models.ProfileBundle) *models.PriceModule { return b.Price }
func summaryMod(b *models.ProfileBundle) *models.SummaryDetail { return b.SummaryDetail }
func statsMod(b *models.ProfileBundle) *models.KeyStatistics { return b.DefaultKeyStatistics }
func finMod(b *models.ProfileBundle) *models.FinancialData { return b.FinancialData }

func pLongName(m *models.PriceModule) null.String { return m.LongName }
func pShortName(m *models.PriceModule) null.String { return m.ShortName }

func ksTrailingEps(m *models.KeyStatistics) null.Float { return m.TrailingEps }

// from lifts a field getter over a possibly missing module.
func from[M any](module func(*models.ProfileBundle) *M, get func(*M) models.Value) func(*models.ProfileBundle) models.Value {
	return func(b *models.ProfileBundle) models.Value {
		if b == nil {
			return models.UnknownValue()
		}
		m := module(b)
		if m == nil {
			return models.UnknownValue()
		}
		return get(m)
	}
}

func numSource[M any](prefix string, module func(*models.ProfileBundle) *M) func(string, func(*M) null.Float) Source {
	return func(field string, get func(*M) null.Float) Source {
		return Source{prefix + "." + field, from(module, func(m *M) models.Value { return numValue(get(m)) })}
	}
}

func textSource[M any](prefix string, module func(*models.ProfileBundle) *M) func(string, func(*M) null.String) Source {
	return func(field string, get func(*M) null.String) Source {
		return Source{prefix + "." + field, from(module, func(m *M) models.Value { return textValue(get(m)) })}
	}
}

var (
	profileText = textSource("assetProfile", profileMod)
	priceText   = textSource("price", priceMod)
	priceNum    = numSource("price", priceMod)
	summaryNum  = numSource("summaryDetail", summaryMod)
	statsNum    = numSource("defaultKeyStatistics", statsMod)
	finNum      = numSource("financialData", finMod)
)

// A zero number or empty text counts as unresolved.

func numValue(f null.Float) models.Value {
	if !f.Valid || f.Float64 == 0 {
		return models.UnknownValue()
	}
	return models.Number(f.Float64)
}

func textValue(s null.String) models.Value {
	if !s.Valid {
		return models.UnknownValue()
	}
	return models.Text(s.String)
}

func dateValue(t null.Time) models.Value {
	if !t.Valid || t.Time.IsZero() {
		return models.UnknownValue()
	}
	return models.Text(t.Time.UTC().Format(time.RFC3339))
}
