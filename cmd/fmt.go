package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/costbasis"
	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `cbs fmt

  Validates and formats the ledger file. This command reads all transactions,
  validates them, gives an id to those without one, sorts them by date, and
  writes them back in a canonical JSONL format. Same day transactions keep
  their relative order.
`
}

func (p *fmtCmd) SetFlags(f *flag.FlagSet) {}

func (p *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	slices.SortStableFunc(txs, func(a, b costbasis.Transaction) int { return a.Date.Compare(b.Date) })

	var buf bytes.Buffer
	if err := costbasis.EncodeLedger(&buf, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(*ledgerFile, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving formatted ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Successfully formatted %d transactions in %s\n", len(txs), *ledgerFile)
	return subcommands.ExitSuccess
}
