package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/renderer"
	"github.com/google/subcommands"
)

// metricsCmd holds the flags for the 'metrics' subcommand.
type metricsCmd struct {
	output
	currency string
	asset    string
}

func (*metricsCmd) Name() string     { return "metrics" }
func (*metricsCmd) Synopsis() string { return "display cost basis and realized P&L per asset" }
func (*metricsCmd) Usage() string {
	return `cbs metrics [-c <currency>] [-a <asset>] [-format terminal|markdown|html]

  Replays the ledger with FIFO lot matching and displays, for each asset, the
  quantity held, its cost basis, the average buy price, the realized P&L and
  the first purchase date. Transactions in other currencies are converted with
  the historical rate of their own day.
`
}

func (c *metricsCmd) SetFlags(f *flag.FlagSet) {
	c.output.SetFlags(f)
	f.StringVar(&c.currency, "c", "USD", "Reporting currency")
	f.StringVar(&c.asset, "a", "", "Only report this asset")
}

func (c *metricsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	engine, closeRates, err := newEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening rate service: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeRates()

	currency := strings.ToUpper(c.currency)
	ms, err := engine.ComputePortfolio(ctx, filterAsset(txs, c.asset), currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing metrics: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := c.print(renderer.RenderMetrics(renderer.NewMetrics(currency, ms))); err != nil {
		fmt.Fprintf(os.Stderr, "Error printing report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// holdingMetrics computes the metrics of a single asset from the ledger.
func holdingMetrics(ctx context.Context, asset, currency string) (costbasis.HoldingMetrics, error) {
	txs, err := DecodeLedger()
	if err != nil {
		return costbasis.HoldingMetrics{}, err
	}
	engine, closeRates, err := newEngine()
	if err != nil {
		return costbasis.HoldingMetrics{}, err
	}
	defer closeRates()

	m, err := engine.ComputeHoldingMetrics(ctx, filterAsset(txs, asset), currency)
	if err != nil {
		return costbasis.HoldingMetrics{}, err
	}
	m.Asset = asset
	return m, nil
}
