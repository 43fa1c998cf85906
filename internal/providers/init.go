// Package providers builds the configured market data providers and
// registers them with a provider registry.
package providers

import (
	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/config"
	"github.com/seenimoa/stocker/internal/infra"
	"github.com/seenimoa/stocker/internal/provider"
	"github.com/seenimoa/stocker/internal/providers/yfinance"
)

// RegisterAll creates and registers all available providers with the
// global registry.
func RegisterAll(cfg config.ProviderConfig, log *zap.Logger) error {
	return RegisterAllTo(provider.Global(), cfg, log)
}

// RegisterAllTo registers all available providers to the given registry.
// Every provider shares one rate-limited HTTP client built from cfg.
func RegisterAllTo(reg *provider.Registry, cfg config.ProviderConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	client := infra.NewHTTPClient(infra.HTTPOptions{
		Timeout:        cfg.Timeout(),
		UserAgent:      cfg.UserAgent,
		RequestsPerSec: cfg.RequestsPerSec,
		Burst:          cfg.Burst,
	})

	// --- YFinance (free, no API key) ---
	yf := yfinance.New(yfinance.Options{
		BaseURL:   cfg.BaseURL,
		CookieURL: cfg.CookieURL,
		HTTP:      client,
		Logger:    log.Named("yfinance"),
	})
	return reg.Register(yf)
}

// Open registers the providers into a fresh registry and returns the one
// named by cfg.Name, or the default when the name is empty.
func Open(cfg config.ProviderConfig, log *zap.Logger) (provider.Provider, error) {
	reg := provider.NewRegistry()
	if err := RegisterAllTo(reg, cfg, log); err != nil {
		return nil, err
	}
	return reg.Get(cfg.Name)
}
