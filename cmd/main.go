// Command sheetquote adds the day's closing price and market capitalization
// of every symbol in a workbook next to its "Symbol" column.
//
// Usage:
//
//	sheetquote [-config configs/config.yaml] update
//	sheetquote quote AAPL SPYD BTC-USD
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", defaultConfigPath(), "Path to the YAML configuration file")

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&updateCmd{}, "")
	subcommands.Register(&quoteCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}
