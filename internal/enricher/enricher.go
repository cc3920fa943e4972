// Package enricher runs one pass over a workbook: read the symbols, look each
// one up, and write the day's close and market cap columns.
package enricher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Rhymond/go-money"

	"sheetquote/internal/provider"
	"sheetquote/internal/quote"
	"sheetquote/internal/utils"
	"sheetquote/internal/workbook"
	"sheetquote/models"
)

const (
	stepLookup = "lookup"
	stepWrite  = "write workbook"
)

// Enricher looks up the symbols of a workbook with one provider and writes
// the results back next to the Symbol column.
type Enricher struct {
	logger      *utils.Logger
	provider    provider.Provider
	perfTracker *utils.PerformanceTracker
	now         func() time.Time
}

// NewEnricher returns an Enricher that logs to logger and looks quotes up
// with p.
func NewEnricher(logger *utils.Logger, p provider.Provider) *Enricher {
	return &Enricher{
		logger:      logger,
		provider:    p,
		perfTracker: utils.NewPerformanceTracker(),
		now:         time.Now,
	}
}

func (e *Enricher) GetPerformanceTracker() *utils.PerformanceTracker {
	return e.perfTracker
}

// PreflightCheck verifies the workbook exists and the provider session works
// before any symbol is looked up. The sheet itself is checked by Run.
func (e *Enricher) PreflightCheck(ctx context.Context, path string) error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"Workbook File", func() error {
			_, err := os.Stat(path)
			return err
		}},
		{"Provider Session", func() error {
			if c, ok := e.provider.(provider.Checker); ok {
				return c.Check(ctx)
			}
			return nil
		}},
	}

	for _, c := range checks {
		e.logger.Debug("Running preflight check: %s", c.name)
		if err := c.check(); err != nil {
			return fmt.Errorf("%s check failed: %w", c.name, err)
		}
		e.logger.Debug("%s check passed", c.name)
	}
	return nil
}

// Run reads the symbols of sheet, looks them up and writes the results back
// into the workbook at path.
func (e *Enricher) Run(ctx context.Context, path, sheet string) (*models.RunResult, error) {
	start := e.now()

	symbols, err := workbook.ReadSymbols(path, sheet)
	if err != nil {
		return nil, err
	}
	symbols = utils.UniqueSymbols(symbols)
	e.logger.Info("Found %d symbols in %s [%s]", len(symbols), path, sheet)

	result := &models.RunResult{
		Date:    start,
		Symbols: symbols,
	}
	result.Prices, result.MarketCaps, result.Outcomes = e.Lookup(ctx, symbols)
	if agg := e.perfTracker.Aggregate(stepLookup); agg != nil {
		e.logger.Info("Looked up %d symbols, %d failed (avg %v)", agg.Count, agg.Failures, agg.Average().Round(time.Millisecond))
	}

	// A cancelled run must not overwrite the workbook with partial results.
	if err := ctx.Err(); err != nil {
		return result, err
	}

	end := e.perfTracker.StartStep(stepWrite)
	result.Write, err = workbook.WriteResults(path, sheet, start, result.Prices, result.MarketCaps)
	end(err)
	if err != nil {
		return result, err
	}
	if result.Write.Inserted {
		e.logger.Info("Inserted new columns after %q (column %d)", workbook.SymbolHeader, result.Write.SymbolColumn)
	}

	result.Duration = e.now().Sub(start)
	e.logger.Debug("Aggregate Performance Report:\n%s", e.perfTracker.GenerateAggregateReport())
	return result, nil
}

// Lookup queries the provider for every symbol, one at a time in input
// order. A failed symbol is logged and left out of both tables.
func (e *Enricher) Lookup(ctx context.Context, symbols []string) (models.PriceResults, models.MarketCapResults, []models.SymbolOutcome) {
	prices := make(models.PriceResults)
	caps := make(models.MarketCapResults)
	outcomes := make([]models.SymbolOutcome, 0, len(symbols))

	total := len(symbols)
	for i, symbol := range symbols {
		if ctx.Err() != nil {
			e.logger.Error("Run cancelled after %d/%d symbols", i, total)
			break
		}
		e.logger.Debug("Processing symbol %d/%d: %s", i+1, total, symbol)
		outcomes = append(outcomes, e.lookupOne(ctx, symbol, prices, caps))
	}
	return prices, caps, outcomes
}

func (e *Enricher) lookupOne(ctx context.Context, symbol string, prices models.PriceResults, caps models.MarketCapResults) models.SymbolOutcome {
	outcome := models.SymbolOutcome{Symbol: symbol}

	end := e.perfTracker.StartStep(stepLookup)
	record, err := e.provider.Lookup(ctx, symbol)
	end(err)
	if err != nil {
		e.logger.Error("Error processing %s: %v", symbol, err)
		outcome.Status = models.StatusLookupFailed
		outcome.Err = err
		return outcome
	}
	outcome.QuoteType = record.QuoteType
	outcome.Status = models.StatusFetched

	if record.RegularMarketPrice != nil {
		price := *record.RegularMarketPrice
		prices[symbol] = price
		outcome.Price = &price
		e.logger.Verbose("Successfully fetched %s price: %s", symbol, display(price, record.Currency))
	} else {
		e.logger.Error("Failed to fetch %s closing price", symbol)
		outcome.Status = models.StatusNoPrice
	}

	if !quote.ShouldFetchMarketCap(record) {
		assetType := record.QuoteType
		if assetType == "" {
			assetType = "Unknown Type"
		}
		e.logger.Verbose("Skipping market cap for %s (Asset Type: %s)", symbol, assetType)
		if outcome.Status == models.StatusFetched {
			outcome.Status = models.StatusCapSkipped
		}
		return outcome
	}

	trillions := quote.ToTrillions(record.MarketCap)
	if trillions == nil {
		e.logger.Error("Failed to fetch %s market cap", symbol)
		if outcome.Status == models.StatusFetched {
			outcome.Status = models.StatusCapMissing
		}
		return outcome
	}
	caps[symbol] = *trillions
	outcome.MarketCapT = trillions
	e.logger.Verbose("Successfully fetched %s market cap: %vB → %vT",
		symbol, quote.ToBillions(*record.MarketCap), *trillions)
	return outcome
}

// display formats a price in its currency, falling back to USD for unknown
// or missing codes.
func display(price float64, currency string) string {
	if currency == "" || money.GetCurrency(currency) == nil {
		currency = money.USD
	}
	return money.NewFromFloat(price, currency).Display()
}
