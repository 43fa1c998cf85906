// Package yfinance implements the Yahoo Finance data provider.
// It wraps the public v10 quoteSummary and v8 chart APIs behind the
// provider.Provider interface.
//
// Yahoo Finance needs no API key, but quoteSummary requires a session
// cookie plus a matching "crumb" token, which the provider obtains lazily.
package yfinance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/infra"
	"github.com/seenimoa/stocker/internal/provider"
)

const providerName = "yfinance"

// Default endpoints.
const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
)

// Options configures the provider. Zero values select the defaults.
type Options struct {
	BaseURL   string
	CookieURL string
	HTTP      *infra.HTTPClient
	Logger    *zap.Logger
}

// Provider implements provider.Provider for Yahoo Finance.
type Provider struct {
	baseURL   string
	cookieURL string
	http      *infra.HTTPClient
	log       *zap.Logger

	mu    sync.Mutex
	crumb string
}

var _ provider.Provider = (*Provider)(nil)

// New creates a new YFinance provider.
func New(opts Options) *Provider {
	p := &Provider{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		cookieURL: opts.CookieURL,
		http:      opts.HTTP,
		log:       opts.Logger,
	}
	if p.baseURL == "" {
		p.baseURL = DefaultBaseURL
	}
	if p.cookieURL == "" {
		p.cookieURL = DefaultCookieURL
	}
	if p.http == nil {
		p.http = infra.NewHTTPClient(infra.HTTPOptions{})
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Info returns provider metadata.
func (p *Provider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        providerName,
		Description: "Yahoo Finance - free global financial data",
		Website:     "https://finance.yahoo.com",
		Modules:     provider.DefaultModules,
	}
}

// Ping checks connectivity by establishing a fresh session.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.sessionCrumb(ctx, true); err != nil {
		return fmt.Errorf("yfinance ping: %w", err)
	}
	return nil
}

// --- Session ---

// sessionCrumb returns the cached crumb, fetching a new one when refresh is set
// or none is cached.
func (p *Provider) sessionCrumb(ctx context.Context, refresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crumb != "" && !refresh {
		return p.crumb, nil
	}

	// The cookie endpoint sets the session cookie even when it answers 404.
	body, _, err := p.http.Get(ctx, p.cookieURL, nil)
	var se *infra.StatusError
	switch {
	case err == nil:
		body.Close()
	case errors.As(err, &se):
	default:
		return "", fmt.Errorf("session cookie: %w", err)
	}

	body, _, err = p.http.Get(ctx, p.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", fmt.Errorf("crumb: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 1024))
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(data))
	if crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", fmt.Errorf("crumb: unexpected response %q", crumb)
	}

	p.crumb = crumb
	p.log.Debug("yfinance session established")
	return crumb, nil
}

// withCrumb runs fn with a session crumb, renewing the session once when
// Yahoo rejects the current one.
func (p *Provider) withCrumb(ctx context.Context, fn func(crumb string) error) error {
	crumb, err := p.sessionCrumb(ctx, false)
	if err != nil {
		return err
	}
	err = fn(crumb)

	var se *infra.StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
		p.log.Info("yfinance crumb rejected, renewing session", zap.Int("status", se.Code))
		if crumb, err = p.sessionCrumb(ctx, true); err != nil {
			return err
		}
		return fn(crumb)
	}
	return err
}

// --- Shared helpers ---

func jsonHeaders() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

// fetchJSON performs a GET request and decodes the response into dest.
func (p *Provider) fetchJSON(ctx context.Context, url string, dest any) error {
	body, _, err := p.http.Get(ctx, url, jsonHeaders())
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

func upstreamError(e *yfError) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
}
