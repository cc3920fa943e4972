// Package quote decides how a looked-up quote is recorded.
package quote

import (
	"strings"

	"sheetquote/models"
)

var (
	noMarketCapTypes = map[string]bool{"etf": true, "mutualfund": true, "currency": true}
	marketCapTypes   = map[string]bool{"equity": true, "stock": true, "cryptocurrency": true}
)

// ShouldFetchMarketCap reports whether a market capitalization should be
// recorded for the instrument described by r. Rules are checked in order and
// the first match wins.
func ShouldFetchMarketCap(r *models.QuoteRecord) bool {
	if r == nil || r.QuoteType == "" {
		return false
	}

	quoteType := strings.ToLower(r.QuoteType)
	if noMarketCapTypes[quoteType] {
		return false
	}
	if marketCapTypes[quoteType] {
		return true
	}

	// Taiwan-listed fund wrappers carry a fund family but no useful cap.
	if strings.Contains(r.Symbol, ".TW") && r.FundFamily != nil {
		return false
	}

	return r.MarketCap != nil
}
