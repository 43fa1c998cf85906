package yfinance

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

// --- Yahoo Finance API response types ---

// yfChartResponse wraps the v8 chart API response.
type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol       string `json:"symbol"`
	Currency     string `json:"currency"`
	ExchangeName string `json:"exchangeName"`
	GMTOffset    int64  `json:"gmtoffset"` // seconds east of UTC
	Timezone     string `json:"exchangeTimezoneName"`
}

type yfIndicators struct {
	Quote    []yfOHLCV    `json:"quote"`
	AdjClose []yfAdjClose `json:"adjclose"`
}

type yfOHLCV struct {
	Close []*float64 `json:"close"`
}

type yfAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

// yfQuoteSummaryResponse wraps the v10 quoteSummary API response.
type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	AssetProfile         *yfAssetProfile         `json:"assetProfile"`
	Price                *yfPrice                `json:"price"`
	SummaryDetail        *yfSummaryDetail        `json:"summaryDetail"`
	DefaultKeyStatistics *yfDefaultKeyStatistics `json:"defaultKeyStatistics"`
	FinancialData        *yfFinancialData        `json:"financialData"`
	RecommendationTrend  *yfRecommendationTrend  `json:"recommendationTrend"`
}

// yfFinVal is a numeric field. Yahoo sends either a bare number or an
// object {"raw": 1.2, "fmt": "1.20"}; missing values arrive as {} or null.
type yfFinVal struct {
	Raw null.Float
}

func (v *yfFinVal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	v.Raw = null.Float{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Raw *float64 `json:"raw"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		v.Raw = null.FloatFromPtr(obj.Raw)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		// Non-numeric strings such as "Infinity" are treated as absent.
		return nil
	}
	v.Raw = null.FloatFrom(f)
	return nil
}

// epochTime converts a unix-seconds field into a UTC time.
func (v yfFinVal) epochTime() null.Time {
	if !v.Raw.Valid || v.Raw.Float64 == 0 {
		return null.Time{}
	}
	return null.TimeFrom(time.Unix(int64(v.Raw.Float64), 0).UTC())
}

type yfAssetProfile struct {
	Address1 null.String `json:"address1"`
	City     null.String `json:"city"`
	State    null.String `json:"state"`
	Zip      null.String `json:"zip"`
	Country  null.String `json:"country"`
	Website  null.String `json:"website"`
	Industry null.String `json:"industry"`
	Sector   null.String `json:"sector"`
}

type yfPrice struct {
	LongName                null.String `json:"longName"`
	ShortName               null.String `json:"shortName"`
	MarketCap               yfFinVal    `json:"marketCap"`
	EpsTrailingTwelveMonths yfFinVal    `json:"epsTrailingTwelveMonths"`
	EpsForward              yfFinVal    `json:"epsForward"`
	BookValue               yfFinVal    `json:"bookValue"`
	PriceToBook             yfFinVal    `json:"priceToBook"`
	TargetMeanPrice         yfFinVal    `json:"targetMeanPrice"`
	RecommendationKey       null.String `json:"recommendationKey"`
}

type yfDefaultKeyStatistics struct {
	ForwardPE          yfFinVal `json:"forwardPE"`
	TrailingEps        yfFinVal `json:"trailingEps"`
	Beta               yfFinVal `json:"beta"`
	BookValue          yfFinVal `json:"bookValue"`
	PriceToBook        yfFinVal `json:"priceToBook"`
	RecommendationMean yfFinVal `json:"recommendationMean"`
}

type yfSummaryDetail struct {
	GrossMargins     yfFinVal `json:"grossMargins"`
	OperatingMargins yfFinVal `json:"operatingMargins"`
	DividendRate     yfFinVal `json:"dividendRate"`
	DividendYield    yfFinVal `json:"dividendYield"`
	ExDividendDate   yfFinVal `json:"exDividendDate"`
	FiftyTwoWeekHigh yfFinVal `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  yfFinVal `json:"fiftyTwoWeekLow"`
}

type yfFinancialData struct {
	ForwardPE          yfFinVal    `json:"forwardPE"`
	Beta               yfFinVal    `json:"beta"`
	TotalRevenue       yfFinVal    `json:"totalRevenue"`
	GrossMargins       yfFinVal    `json:"grossMargins"`
	OperatingMargins   yfFinVal    `json:"operatingMargins"`
	TargetMeanPrice    yfFinVal    `json:"targetMeanPrice"`
	TargetHighPrice    yfFinVal    `json:"targetHighPrice"`
	TargetLowPrice     yfFinVal    `json:"targetLowPrice"`
	DividendRate       yfFinVal    `json:"dividendRate"`
	DividendYield      yfFinVal    `json:"dividendYield"`
	ExDividendDate     yfFinVal    `json:"exDividendDate"`
	RecommendationMean yfFinVal    `json:"recommendationMean"`
	RecommendationKey  null.String `json:"recommendationKey"`
}

type yfRecommendationTrend struct {
	Trend []yfTrend `json:"trend"`
}

type yfTrend struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
