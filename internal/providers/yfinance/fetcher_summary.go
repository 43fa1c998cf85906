package yfinance

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/provider"
	"github.com/seenimoa/stocker/pkg/models"
)

// QuoteSummary fetches the profile/financial modules for symbol.
func (p *Provider) QuoteSummary(ctx context.Context, symbol string, modules []string) (*models.ProfileBundle, error) {
	if symbol == "" {
		return nil, &provider.ErrMissingParam{Param: "symbol"}
	}
	if len(modules) == 0 {
		modules = provider.DefaultModules
	}

	var resp yfQuoteSummaryResponse
	err := p.withCrumb(ctx, func(crumb string) error {
		u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s&crumb=%s",
			p.baseURL, url.PathEscape(symbol),
			url.QueryEscape(strings.Join(modules, ",")), url.QueryEscape(crumb))
		return p.fetchJSON(ctx, u, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("yfinance quoteSummary %s: %w", symbol, err)
	}
	if err := upstreamError(resp.QuoteSummary.Error); err != nil {
		return nil, fmt.Errorf("yfinance quoteSummary %s: %w", symbol, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yfinance quoteSummary %s: empty result", symbol)
	}

	p.log.Debug("quote summary fetched", zap.String("symbol", symbol), zap.Strings("modules", modules))
	return toBundle(resp.QuoteSummary.Result[0]), nil
}

func toBundle(r yfQuoteSummaryResult) *models.ProfileBundle {
	b := &models.ProfileBundle{}

	if a := r.AssetProfile; a != nil {
		b.AssetProfile = &models.AssetProfile{
			Website:  a.Website,
			Sector:   a.Sector,
			Industry: a.Industry,
			Country:  a.Country,
			Address1: a.Address1,
			City:     a.City,
			State:    a.State,
			Zip:      a.Zip,
		}
	}

	if pr := r.Price; pr != nil {
		b.Price = &models.PriceModule{
			LongName:                pr.LongName,
			ShortName:               pr.ShortName,
			MarketCap:               pr.MarketCap.Raw,
			EpsTrailingTwelveMonths: pr.EpsTrailingTwelveMonths.Raw,
			EpsForward:              pr.EpsForward.Raw,
			BookValue:               pr.BookValue.Raw,
			PriceToBook:             pr.PriceToBook.Raw,
			TargetMeanPrice:         pr.TargetMeanPrice.Raw,
			RecommendationKey:       pr.RecommendationKey,
		}
	}

	if sd := r.SummaryDetail; sd != nil {
		b.SummaryDetail = &models.SummaryDetail{
			GrossMargins:     sd.GrossMargins.Raw,
			OperatingMargins: sd.OperatingMargins.Raw,
			DividendRate:     sd.DividendRate.Raw,
			DividendYield:    sd.DividendYield.Raw,
			ExDividendDate:   sd.ExDividendDate.epochTime(),
			FiftyTwoWeekHigh: sd.FiftyTwoWeekHigh.Raw,
			FiftyTwoWeekLow:  sd.FiftyTwoWeekLow.Raw,
		}
	}

	if ks := r.DefaultKeyStatistics; ks != nil {
		b.DefaultKeyStatistics = &models.KeyStatistics{
			ForwardPE:          ks.ForwardPE.Raw,
			TrailingEps:        ks.TrailingEps.Raw,
			Beta:               ks.Beta.Raw,
			BookValue:          ks.BookValue.Raw,
			PriceToBook:        ks.PriceToBook.Raw,
			RecommendationMean: ks.RecommendationMean.Raw,
		}
	}

	if fd := r.FinancialData; fd != nil {
		b.FinancialData = &models.FinancialData{
			ForwardPE:          fd.ForwardPE.Raw,
			Beta:               fd.Beta.Raw,
			TotalRevenue:       fd.TotalRevenue.Raw,
			GrossMargins:       fd.GrossMargins.Raw,
			OperatingMargins:   fd.OperatingMargins.Raw,
			TargetMeanPrice:    fd.TargetMeanPrice.Raw,
			TargetHighPrice:    fd.TargetHighPrice.Raw,
			TargetLowPrice:     fd.TargetLowPrice.Raw,
			DividendRate:       fd.DividendRate.Raw,
			DividendYield:      fd.DividendYield.Raw,
			ExDividendDate:     fd.ExDividendDate.epochTime(),
			RecommendationMean: fd.RecommendationMean.Raw,
			RecommendationKey:  fd.RecommendationKey,
		}
	}

	if rt := r.RecommendationTrend; rt != nil {
		trend := make([]models.TrendEntry, 0, len(rt.Trend))
		for _, t := range rt.Trend {
			trend = append(trend, models.TrendEntry{
				Period:     t.Period,
				StrongBuy:  t.StrongBuy,
				Buy:        t.Buy,
				Hold:       t.Hold,
				Sell:       t.Sell,
				StrongSell: t.StrongSell,
			})
		}
		b.RecommendationTrend = &models.RecommendationTrend{Trend: trend}
	}

	return b
}
