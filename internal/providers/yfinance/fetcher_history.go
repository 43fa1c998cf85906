package yfinance

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/provider"
	"github.com/seenimoa/stocker/pkg/models"
)

// Historical fetches daily quotes for symbol in [from, to], ascending by date.
func (p *Provider) Historical(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.DailyQuote, error) {
	if symbol == "" {
		return nil, &provider.ErrMissingParam{Param: "symbol"}
	}
	if interval == "" {
		interval = provider.IntervalDaily
	}

	// period2 is exclusive upstream; extend by a day so "to" is included.
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s&events=div%%2Csplits",
		p.baseURL, url.PathEscape(symbol), from.Unix(), to.AddDate(0, 0, 1).Unix(), url.QueryEscape(interval))

	var resp yfChartResponse
	if err := p.fetchJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	if err := upstreamError(resp.Chart.Error); err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	quotes := parseQuotes(resp.Chart.Result[0])
	p.log.Debug("history fetched",
		zap.String("symbol", symbol),
		zap.Int("quotes", len(quotes)),
		zap.Time("from", from), zap.Time("to", to))
	return quotes, nil
}

// parseQuotes converts a chart result into one quote per exchange-local
// calendar day. Rows without a close are skipped; on duplicate days the
// later row wins.
func parseQuotes(result yfChartResult) []models.DailyQuote {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	closes := result.Indicators.Quote[0].Close
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	quotes := make([]models.DailyQuote, 0, len(result.Timestamp))
	index := make(map[time.Time]int, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		q := models.DailyQuote{
			Date:  calendarDate(ts, result.Meta.GMTOffset),
			Close: *closes[i],
		}
		if i < len(adjCloses) {
			q.AdjClose = null.FloatFromPtr(adjCloses[i])
		}
		if j, ok := index[q.Date]; ok {
			quotes[j] = q
			continue
		}
		index[q.Date] = len(quotes)
		quotes = append(quotes, q)
	}

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].Date.Before(quotes[j].Date)
	})
	return quotes
}

// calendarDate returns the exchange-local date of a unix timestamp at 00:00 UTC.
func calendarDate(ts, gmtOffset int64) time.Time {
	y, m, d := time.Unix(ts+gmtOffset, 0).UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
