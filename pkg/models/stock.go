// Package models defines the core data structures used throughout Stocker.
package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Unknown is the placeholder stored for any field no upstream source could resolve.
const Unknown = "Unknown"

// DailyQuote is a single daily price point from the provider.
type DailyQuote struct {
	Date     time.Time  `json:"date"`      // calendar date, 00:00 UTC
	Close    float64    `json:"close"`
	AdjClose null.Float `json:"adj_close"` // invalid when the provider had none
}

// Address is the structured postal address of a company.
type Address struct {
	Street string `json:"Street"`
	City   string `json:"City"`
	State  string `json:"State"`
	Zip    string `json:"Zip"`
}

// Dividend groups the dividend metrics of a record.
type Dividend struct {
	DividendRate   Value `json:"DividendRate"`
	DividendYield  Value `json:"DividendYield"`
	ExDividendDate Value `json:"ExDividendDate"`
}

// RealtimePrice is the latest available historical point. It is not a live quote.
type RealtimePrice struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// HistoricalPoint is the matched quote behind one Development entry.
type HistoricalPoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// StockRecord is the persisted unit of the collection.
// JSON field names are the on-disk format and must stay stable.
type StockRecord struct {
	Symbol    string  `json:"Symbol"`
	Name      string  `json:"Name"`
	ShortName string  `json:"ShortName"`
	Website   string  `json:"Website"`
	Sector    string  `json:"Sector"`
	Industry  string  `json:"Industry"`
	Country   string  `json:"Country"`
	Address   Address `json:"Address"`

	MarketCapitalization    Value `json:"MarketCapitalization"`
	TrailingPE              Value `json:"TrailingPE"`
	ForwardPE               Value `json:"ForwardPE"`
	EPS                     Value `json:"EPS"`
	EpsTrailingTwelveMonths Value `json:"epsTrailingTwelveMonths"`
	EpsForward              Value `json:"epsForward"`
	Beta                    Value `json:"Beta"`
	BookValue               Value `json:"BookValue"`
	PriceToBook             Value `json:"PriceToBook"`
	TotalRevenue            Value `json:"TotalRevenue"`
	GrossMargins            Value `json:"GrossMargins"`
	OperatingMargins        Value `json:"OperatingMargins"`
	Recommendation          Value `json:"Recommendation"`
	AnalystTargetMeanPrice  Value `json:"AnalystTargetMeanPrice"`

	Dividend Dividend `json:"Dividend"`

	FiftyTwoWeekHigh Value `json:"52WeekHigh"`
	FiftyTwoWeekLow  Value `json:"52WeekLow"`

	RealtimePrice  RealtimePrice              `json:"RealtimePrice"`
	Development    map[string]string          `json:"Development"`
	HistoricalData map[string]HistoricalPoint `json:"HistoricalData"`
}
