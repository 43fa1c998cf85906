// Package provider defines the market data provider abstraction and a
// registry that resolves configured providers by name.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/stocker/pkg/models"
)

// Upstream module names understood by QuoteSummary.
const (
	ModuleAssetProfile         = "assetProfile"
	ModulePrice                = "price"
	ModuleSummaryDetail        = "summaryDetail"
	ModuleDefaultKeyStatistics = "defaultKeyStatistics"
	ModuleFinancialData        = "financialData"
	ModuleRecommendationTrend  = "recommendationTrend"
)

// DefaultModules is the module set requested for every enrichment.
var DefaultModules = []string{
	ModuleAssetProfile,
	ModulePrice,
	ModuleSummaryDetail,
	ModuleDefaultKeyStatistics,
	ModuleFinancialData,
	ModuleRecommendationTrend,
}

// IntervalDaily is the only history resolution used.
const IntervalDaily = "1d"

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string   `json:"name"`        // e.g., "yfinance"
	Description string   `json:"description"` // human-readable description
	Website     string   `json:"website"`
	Modules     []string `json:"modules"` // quote summary modules it can serve
}

// Provider is the capability set the enrichment pipeline needs from a data source.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// QuoteSummary fetches the requested profile/financial modules for symbol.
	QuoteSummary(ctx context.Context, symbol string, modules []string) (*models.ProfileBundle, error)

	// Historical fetches quotes for symbol between from and to, ascending by date.
	Historical(ctx context.Context, symbol string, from, to time.Time, interval string) ([]models.DailyQuote, error)

	// Ping verifies the provider's connectivity.
	Ping(ctx context.Context) error
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrMissingParam is returned when a required request parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}
