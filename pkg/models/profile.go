package models

import "github.com/guregu/null/v6"

// ProfileBundle is the typed view of the upstream profile/financial modules.
// A nil module was not returned by the provider; an invalid field was absent.
type ProfileBundle struct {
	AssetProfile         *AssetProfile
	Price                *PriceModule
	SummaryDetail        *SummaryDetail
	DefaultKeyStatistics *KeyStatistics
	FinancialData        *FinancialData
	RecommendationTrend  *RecommendationTrend
}

// AssetProfile is the company profile module.
type AssetProfile struct {
	Website  null.String
	Sector   null.String
	Industry null.String
	Country  null.String
	Address1 null.String
	City     null.String
	State    null.String
	Zip      null.String
}

// PriceModule is the price/identity module.
type PriceModule struct {
	LongName                null.String
	ShortName               null.String
	MarketCap               null.Float
	EpsTrailingTwelveMonths null.Float
	EpsForward              null.Float
	BookValue               null.Float
	PriceToBook             null.Float
	TargetMeanPrice         null.Float
	RecommendationKey       null.String
}

// SummaryDetail is the summary detail module.
type SummaryDetail struct {
	GrossMargins     null.Float
	OperatingMargins null.Float
	DividendRate     null.Float
	DividendYield    null.Float
	ExDividendDate   null.Time
	FiftyTwoWeekHigh null.Float
	FiftyTwoWeekLow  null.Float
}

// KeyStatistics is the default key statistics module.
type KeyStatistics struct {
	ForwardPE          null.Float
	TrailingEps        null.Float
	Beta               null.Float
	BookValue          null.Float
	PriceToBook        null.Float
	RecommendationMean null.Float
}

// FinancialData is the financial data module.
type FinancialData struct {
	ForwardPE          null.Float
	Beta               null.Float
	TotalRevenue       null.Float
	GrossMargins       null.Float
	OperatingMargins   null.Float
	TargetMeanPrice    null.Float
	TargetHighPrice    null.Float
	TargetLowPrice     null.Float
	DividendRate       null.Float
	DividendYield      null.Float
	ExDividendDate     null.Time
	RecommendationMean null.Float
	RecommendationKey  null.String
}

// RecommendationTrend holds analyst rating counts, most recent period first.
type RecommendationTrend struct {
	Trend []TrendEntry
}

// TrendEntry is one period of analyst rating counts.
type TrendEntry struct {
	Period     string
	StrongBuy  int
	Buy        int
	Hold       int
	Sell       int
	StrongSell int
}
