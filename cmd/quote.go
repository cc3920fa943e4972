package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"sheetquote/internal/enricher"
	"sheetquote/internal/provider"
	"sheetquote/internal/utils"
	"sheetquote/models"
)

// quoteCmd looks symbols up and prints what update would write for them,
// without touching any workbook.
type quoteCmd struct {
	provider string
	timeout  int
	apiKey   string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "look up symbols and show price and market cap" }
func (*quoteCmd) Usage() string {
	return "sheetquote quote [-provider yahoo|yahoo-summary|browser|polygon] SYMBOL...\n"
}
func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.provider, "provider", "yahoo", "market data provider")
	f.IntVar(&c.timeout, "timeout", 30, "request timeout in seconds")
	f.StringVar(&c.apiKey, "api-key", os.Getenv("POLYGON_API_KEY"), "Polygon.io API key")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := utils.UniqueSymbols(f.Args())
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol expected")
		return subcommands.ExitUsageError
	}

	config := utils.DefaultConfig()
	config.Provider.Name = c.provider
	config.Provider.Timeout = c.timeout
	config.Provider.APIKey = c.apiKey

	logger := utils.NewConsoleLogger(os.Stdout, true)
	p, err := provider.New(config, logger)
	if err != nil {
		logger.Error("Failed to initialize provider: %v", err)
		return subcommands.ExitFailure
	}
	if closer, ok := p.(io.Closer); ok {
		defer closer.Close()
	}

	e := enricher.NewEnricher(logger, p)
	result := &models.RunResult{Date: time.Now(), Symbols: symbols}
	result.Prices, result.MarketCaps, result.Outcomes = e.Lookup(ctx, symbols)

	out, err := enricher.RenderSummary(result, "auto")
	if err != nil {
		fmt.Print(enricher.Summary(result))
	} else {
		fmt.Print(out)
	}

	if len(result.Prices) == 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
