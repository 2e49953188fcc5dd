package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/costbasis/renderer"
	"github.com/google/subcommands"
)

type lotsCmd struct {
	output
	currency string
	asset    string
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "list the open lots of an asset" }
func (*lotsCmd) Usage() string {
	return `cbs lots -a <asset> [-c <currency>] [-format terminal|markdown|html]

  Lists the lots of an asset that are still open after FIFO matching, oldest
  first, with their unit cost in the reporting currency.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	c.output.SetFlags(f)
	f.StringVar(&c.currency, "c", "USD", "Reporting currency")
	f.StringVar(&c.asset, "a", "", "Asset (required)")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" {
		fmt.Fprintln(os.Stderr, "Error: -a is required")
		return subcommands.ExitUsageError
	}
	m, err := holdingMetrics(ctx, c.asset, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing lots: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.print(renderer.LotsMarkdown(m)); err != nil {
		fmt.Fprintf(os.Stderr, "Error printing report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
