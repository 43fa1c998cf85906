package enrich

import (
	"strings"
)

// marketSuffixes maps a market code to the exchange suffix appended to bare tickers.
var marketSuffixes = map[string]string{
	"se": ".ST",
}

// NormalizeSymbol trims and upper-cases raw, joins inner whitespace with "-"
// and, for a known market, appends the exchange suffix unless one is present.
// "volvo b" in market "se" becomes "VOLVO-B.ST".
func NormalizeSymbol(raw, market string) string {
	fields := strings.Fields(strings.ToUpper(raw))
	if len(fields) == 0 {
		return ""
	}
	symbol := strings.Join(fields, "-")

	suffix, ok := marketSuffixes[strings.ToLower(strings.TrimSpace(market))]
	if !ok || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + suffix
}
