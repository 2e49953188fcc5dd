package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/quote"
	"github.com/etnz/costbasis/renderer"
	"github.com/google/subcommands"
)

type valueCmd struct {
	output
	currency  string
	asset     string
	price     float64
	quoteURL  string
	quotePath string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value a holding at its current price" }
func (*valueCmd) Usage() string {
	return `cbs value -a <asset> (-price <price> | -quote-url <url> -quote-path <jsonpath>) [-c <currency>]

  Displays the market value, unrealized and total P&L of an asset. The current
  price is either given with -price or read from a JSON endpoint.

Usage Examples:
$ cbs value -a AAPL -price 231.5
$ cbs value -a AAPL -quote-url 'https://example.com/quote?s=AAPL' -quote-path '$.last'
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	c.output.SetFlags(f)
	f.StringVar(&c.currency, "c", "USD", "Reporting currency, also the currency of the price")
	f.StringVar(&c.asset, "a", "", "Asset (required)")
	f.Float64Var(&c.price, "price", 0, "Current unit price")
	f.StringVar(&c.quoteURL, "quote-url", "", "JSON endpoint publishing the current price")
	f.StringVar(&c.quotePath, "quote-path", "", "jsonpath expression of the price in the -quote-url response")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" {
		fmt.Fprintln(os.Stderr, "Error: -a is required")
		return subcommands.ExitUsageError
	}
	if (c.price > 0) == (c.quoteURL != "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -price or -quote-url is required")
		return subcommands.ExitUsageError
	}

	price := c.price
	if c.quoteURL != "" {
		var err error
		price, err = quote.Quoter{URL: c.quoteURL, Path: c.quotePath}.Price(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching current price: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	m, err := holdingMetrics(ctx, c.asset, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing metrics: %v\n", err)
		return subcommands.ExitFailure
	}
	v, err := costbasis.Valuate(m, costbasis.M(price, m.Currency))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing holding: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.print(renderer.ValuationMarkdown(m, v)); err != nil {
		fmt.Fprintf(os.Stderr, "Error printing report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
