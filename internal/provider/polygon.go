package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	quotes "sheetquote/models"
)

// Polygon looks up quotes from Polygon.io. It needs two requests per symbol:
// ticker details for type and market cap, and the previous day aggregate for
// the close.
type Polygon struct {
	client *polygon.Client
}

// NewPolygon returns a Polygon.io client authenticated with apiKey.
func NewPolygon(apiKey string) *Polygon {
	return &Polygon{client: polygon.New(apiKey)}
}

// Lookup fetches ticker details and the previous close of symbol. A zero
// market cap or close is reported as absent; an unknown ticker is ErrNotFound.
func (p *Polygon) Lookup(ctx context.Context, symbol string) (*quotes.QuoteRecord, error) {
	details, err := p.client.GetTickerDetails(ctx, &models.GetTickerDetailsParams{Ticker: symbol})
	if err != nil {
		var perr *models.ErrorResponse
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			return nil, lookupErr(symbol, "%w", ErrNotFound)
		}
		return nil, lookupErr(symbol, "ticker details: %w", err)
	}

	ticker := details.Results
	record := &quotes.QuoteRecord{
		Symbol:    symbol,
		QuoteType: polygonQuoteType(ticker.Type, ticker.Market),
		Currency:  strings.ToUpper(ticker.CurrencyName),
	}
	if ticker.Ticker != "" {
		record.Symbol = ticker.Ticker
	}
	if ticker.MarketCap > 0 {
		mc := ticker.MarketCap
		record.MarketCap = &mc
	}

	prev, err := p.client.GetPreviousCloseAgg(ctx, &models.GetPreviousCloseAggParams{Ticker: symbol})
	if err != nil {
		return nil, lookupErr(symbol, "previous close: %w", err)
	}
	if len(prev.Results) > 0 && prev.Results[0].Close > 0 {
		c := prev.Results[0].Close
		record.RegularMarketPrice = &c
	}
	return record, nil
}

// polygonQuoteType maps Polygon ticker types and markets to the quote types
// the classifier understands. Unknown codes are passed through lower-cased.
func polygonQuoteType(typ, market string) string {
	switch strings.ToLower(market) {
	case "crypto":
		return "cryptocurrency"
	case "fx":
		return "currency"
	case "indices":
		return "index"
	}

	switch strings.ToUpper(typ) {
	case "CS", "ADRC", "ADRP", "ADRS", "PFD", "OS", "GDR", "NYRS":
		return "equity"
	case "ETF", "ETN", "ETV", "ETS":
		return "etf"
	case "FUND", "MF":
		return "mutualfund"
	case "":
		return ""
	}
	return strings.ToLower(typ)
}
