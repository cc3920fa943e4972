package provider

import (
	"context"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"

	"sheetquote/models"
)

// Yahoo looks up quotes with the finance-go Yahoo binding: one v7 quote
// request per symbol carrying type, price, currency and market cap. The
// binding's HTTP client is replaced by one that holds the Yahoo session.
//
// finance-go keeps its backend in package state, so only one Yahoo provider
// should be live per process.
type Yahoo struct {
	session *yahooSession
}

// NewYahoo installs a session-aware finance-go backend and returns the
// provider. Requests time out after timeout.
func NewYahoo(timeout time.Duration) *Yahoo {
	y := &Yahoo{session: newYahooSession(timeout)}
	y.install(yahooBaseURL)
	return y
}

func (y *Yahoo) install(baseURL string) {
	finance.SetBackend(finance.YFinBackend, &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        baseURL,
		HTTPClient: y.session.HTTPClient(),
	})
}

// Check performs the cookie and crumb handshake.
func (y *Yahoo) Check(ctx context.Context) error {
	_, err := y.session.Crumb(ctx)
	return err
}

type equityResult struct {
	q   *finance.Equity
	err error
}

// Lookup fetches the quote of symbol. finance-go takes no context, so the
// call runs aside and the caller's context bounds the wait.
func (y *Yahoo) Lookup(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	if _, err := y.session.Crumb(ctx); err != nil {
		return nil, lookupErr(symbol, "%w", err)
	}

	ch := make(chan equityResult, 1)
	go func() {
		q, err := equity.Get(symbol)
		ch <- equityResult{q, err}
	}()

	var res equityResult
	select {
	case <-ctx.Done():
		return nil, lookupErr(symbol, "%w", ctx.Err())
	case res = <-ch:
	}

	if res.err != nil {
		return nil, lookupErr(symbol, "%w", res.err)
	}
	if res.q == nil {
		return nil, lookupErr(symbol, "%w", ErrNotFound)
	}
	return equityRecord(symbol, res.q), nil
}

// equityRecord maps a finance-go quote to a record. The binding decodes
// missing numbers as zero, so zero price and cap count as absent.
func equityRecord(symbol string, q *finance.Equity) *models.QuoteRecord {
	record := &models.QuoteRecord{
		Symbol:    symbol,
		QuoteType: strings.ToLower(string(q.QuoteType)),
		Currency:  q.CurrencyID,
	}
	if q.Symbol != "" {
		record.Symbol = q.Symbol
	}
	if q.RegularMarketPrice > 0 {
		p := q.RegularMarketPrice
		record.RegularMarketPrice = &p
	}
	if q.MarketCap > 0 {
		mc := float64(q.MarketCap)
		record.MarketCap = &mc
	}
	return record
}
