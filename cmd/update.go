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
)

type updateCmd struct {
	summary bool
}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "write today's close and market cap next to the Symbol column"
}
func (*updateCmd) Usage() string { return "sheetquote [-config file] update [-summary]\n" }
func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.summary, "summary", false, "render a summary table after the run (overrides output.summary)")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}
	startTime := time.Now()

	config, err := utils.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	logger, err := utils.NewLogger(config.Output.LogDir, config.Output.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Close()

	logger.Info("Updating %s [%s] with %s quotes", config.Excel.FilePath, config.Excel.SheetName, config.Provider.Name)

	p, err := provider.New(config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize provider: %v", err)
	}
	if closer, ok := p.(io.Closer); ok {
		defer closer.Close()
	}

	e := enricher.NewEnricher(logger, p)
	if err := e.PreflightCheck(ctx, config.Excel.FilePath); err != nil {
		logger.Error("Preflight check failed: %v", err)
		return subcommands.ExitFailure
	}

	result, err := e.Run(ctx, config.Excel.FilePath, config.Excel.SheetName)
	if err != nil {
		logger.Error("Update failed: %v", err)
		return subcommands.ExitFailure
	}

	if c.summary || config.Output.Summary {
		out, err := enricher.RenderSummary(result, "auto")
		if err != nil {
			logger.Error("Failed to render summary: %v", err)
		} else {
			fmt.Print(out)
		}
	}

	logger.Info("Total execution time: %v", time.Since(startTime).Round(time.Millisecond))
	logger.Info("Data has been updated to the Excel file.")
	return subcommands.ExitSuccess
}
