package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/date"
	"github.com/google/subcommands"
	"github.com/google/uuid"
)

// txFlags are the flags shared by buy and sell.
type txFlags struct {
	id       string
	date     string
	asset    string
	quantity float64
	price    float64
	currency string
}

func (c *txFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Transaction id, generated when empty")
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.asset, "a", "", "Asset identifier, e.g. a ticker")
	f.Float64Var(&c.quantity, "q", 0, "Number of units")
	f.Float64Var(&c.price, "p", 0, "Price per unit")
	f.StringVar(&c.currency, "cur", "USD", "Currency of the price")
}

// record validates the transaction described by the flags and appends it to the ledger.
func (c *txFlags) record(kind costbasis.Kind) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.asset == "" {
		fmt.Fprintln(os.Stderr, "Error: -a is required")
		return subcommands.ExitUsageError
	}
	id := c.id
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := costbasis.NewTransaction(id, on, c.asset, kind, c.quantity, c.price, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return appendTransaction(tx)
}

// --- Buy Command ---

type buyCmd struct{ txFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase, opening a new lot" }
func (*buyCmd) Usage() string {
	return `cbs buy -d <date> -a <asset> -q <quantity> -p <price> [-cur <currency>] [-id <id>]

  Appends a buy transaction to the ledger.
`
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.record(costbasis.Buy)
}

// --- Sell Command ---

type sellCmd struct{ txFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale, closing the oldest lots first" }
func (*sellCmd) Usage() string {
	return `cbs sell -d <date> -a <asset> -q <quantity> -p <price> [-cur <currency>] [-id <id>]

  Appends a sell transaction to the ledger. Selling more than is held is
  recorded as is and reported as a warning by the reports.
`
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.record(costbasis.Sell)
}
