// Package models defines the data structures used in the application.
package models

import "time"

// QuoteRecord is the per-symbol result of a market data lookup.
// Fields the provider did not return are left nil.
type QuoteRecord struct {
	Symbol             string
	QuoteType          string
	RegularMarketPrice *float64
	MarketCap          *float64 // base currency units
	FundFamily         *string
	Currency           string // ISO code of the price, when known
}

// PriceResults maps a symbol to its closing price.
type PriceResults map[string]float64

// MarketCapResults maps a symbol to its market capitalization in trillions.
type MarketCapResults map[string]float64

// Status of a single symbol after the lookup pass.
type Status string

const (
	StatusFetched      Status = "fetched"
	StatusNoPrice      Status = "no price"
	StatusCapSkipped   Status = "cap skipped"
	StatusCapMissing   Status = "cap missing"
	StatusLookupFailed Status = "lookup failed"
)

// SymbolOutcome records what happened to one symbol during a run.
type SymbolOutcome struct {
	Symbol     string
	QuoteType  string
	Status     Status
	Price      *float64
	MarketCapT *float64
	Err        error
}

// WriteReport describes where the writer placed the new columns.
type WriteReport struct {
	SymbolColumn    int
	CloseColumn     int
	MarketCapColumn int
	Inserted        bool // true when existing columns were shifted right
	RowsWritten     int
}

// RunResult is everything a run produced.
type RunResult struct {
	Date       time.Time
	Symbols    []string
	Prices     PriceResults
	MarketCaps MarketCapResults
	Outcomes   []SymbolOutcome
	Write      *WriteReport
	Duration   time.Duration
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
