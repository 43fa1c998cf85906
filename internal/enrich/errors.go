package enrich

import (
	"errors"
	"fmt"
)

// ErrNoHistory is wrapped by UpstreamError when the provider returned no quotes.
var ErrNoHistory = errors.New("no historical data")

// Upstream operations reported in UpstreamError.Op.
const (
	OpQuoteSummary = "quoteSummary"
	OpHistorical   = "historical"
)

// ValidationError is returned for unusable caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UpstreamError wraps a provider failure for one symbol.
type UpstreamError struct {
	Symbol string
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
