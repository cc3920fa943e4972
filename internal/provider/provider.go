// Package provider looks up quote records from external market data sources.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sheetquote/internal/utils"
	"sheetquote/models"
)

// Provider looks up one symbol. Implementations make a single quote request
// per call and never retry.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (*models.QuoteRecord, error)
}

// Checker is implemented by providers that can verify their session before a
// run starts.
type Checker interface {
	Check(ctx context.Context) error
}

// ErrNotFound is wrapped by LookupError when the provider does not know the
// symbol.
var ErrNotFound = errors.New("symbol not found")

// LookupError is returned for any failed lookup: network failure, unknown
// symbol or a malformed response.
type LookupError struct {
	Symbol string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.Symbol, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func lookupErr(symbol string, format string, args ...interface{}) error {
	return &LookupError{Symbol: symbol, Err: fmt.Errorf(format, args...)}
}

// New builds the provider named in the configuration.
func New(config *utils.Config, logger *utils.Logger) (Provider, error) {
	timeout := time.Duration(config.Provider.Timeout) * time.Second

	switch config.Provider.Name {
	case "", "yahoo":
		return NewYahoo(timeout), nil
	case "yahoo-summary":
		return NewYahooSummary(timeout), nil
	case "browser":
		b, err := NewBrowser(logger, BrowserOptions{
			Headless: config.Provider.Headless,
			Debug:    config.Provider.Debug,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case "polygon":
		if config.Provider.APIKey == "" {
			return nil, fmt.Errorf("polygon provider needs an API key")
		}
		return NewPolygon(config.Provider.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider.Name)
	}
}
