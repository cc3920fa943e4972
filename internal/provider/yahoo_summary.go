package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sheetquote/models"
)

// YahooSummary looks up quotes from the Yahoo Finance quoteSummary endpoint.
// Unlike Yahoo it also returns the fund family, so the Taiwan fund wrapper
// rule can apply, at the same cost of one request per symbol.
type YahooSummary struct {
	session *yahooSession
}

// NewYahooSummary returns a quoteSummary client whose requests time out after
// timeout.
func NewYahooSummary(timeout time.Duration) *YahooSummary {
	return &YahooSummary{session: newYahooSession(timeout)}
}

// Check performs the cookie and crumb handshake.
func (y *YahooSummary) Check(ctx context.Context) error {
	_, err := y.session.Crumb(ctx)
	return err
}

// Lookup fetches the quote summary of symbol.
func (y *YahooSummary) Lookup(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	crumb, err := y.session.Crumb(ctx)
	if err != nil {
		return nil, lookupErr(symbol, "%w", err)
	}

	resp, err := y.session.get(ctx, quoteSummaryURL(y.session.baseURL, symbol, crumb))
	if err != nil {
		return nil, lookupErr(symbol, "%w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lookupErr(symbol, "read response: %w", err)
	}

	// Unknown symbols come back as 404 with an error body; decode it so the
	// caller sees ErrNotFound.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return nil, lookupErr(symbol, "unexpected status %d", resp.StatusCode)
	}
	return decodeQuoteSummary(symbol, body)
}

func quoteSummaryURL(base, symbol, crumb string) string {
	q := url.Values{}
	q.Set("modules", quoteSummaryModules)
	q.Set("formatted", "false")
	q.Set("crumb", crumb)
	return fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", base, url.PathEscape(symbol), q.Encode())
}
