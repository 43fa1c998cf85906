// Package infra provides shared infrastructure used across the application:
// a rate-limited HTTP client and the OS folder opener.
package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when no user agent is configured. Yahoo rejects
// requests without a browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.Code, e.Body)
}

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	Timeout        time.Duration
	UserAgent      string
	RequestsPerSec float64 // <= 0 disables limiting
	Burst          int
}

// HTTPClient performs GET requests with a shared cookie jar and rate limit.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewHTTPClient creates a client from opts.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	jar, _ := cookiejar.New(nil) // only fails with non-nil options
	return &HTTPClient{
		client:    &http.Client{Timeout: opts.Timeout, Jar: jar},
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, opts.Burst),
	}
}

// Get issues a GET request. The caller must close the returned body.
// Non-2xx responses are returned as *StatusError together with the status code.
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, resp.StatusCode, &StatusError{
			URL:  url,
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(snippet)),
		}
	}
	return resp.Body, resp.StatusCode, nil
}
