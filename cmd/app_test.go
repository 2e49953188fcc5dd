package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"
)

// setup points the global flags to a temporary ledger holding content, with
// no rate service, and captures the report output.
func setup(t *testing.T, content string) (ledger string, output *bytes.Buffer) {
	t.Helper()
	ledger = filepath.Join(t.TempDir(), "test_ledger.jsonl")
	if content != "" {
		require.NoError(t, os.WriteFile(ledger, []byte(content), 0644))
	}
	output = new(bytes.Buffer)

	oldLedger, oldKey, oldCache, oldLevel, oldOut := *ledgerFile, *eodhdAPIKey, *rateCache, *logLevel, out
	*ledgerFile, *eodhdAPIKey, *rateCache, *logLevel, out = ledger, "", "off", "error", output
	t.Cleanup(func() {
		*ledgerFile, *eodhdAPIKey, *rateCache, *logLevel, out = oldLedger, oldKey, oldCache, oldLevel, oldOut
	})
	return ledger, output
}

// run parses args for c and executes it.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return c.Execute(context.Background(), f)
}

const ledgerFixture = `{"id":"b1","date":"2025-01-10","asset":"MSFT","kind":"buy","quantity":10,"price":100,"currency":"USD"}
{"id":"b2","date":"2025-01-11","asset":"MSFT","kind":"buy","quantity":10,"price":200,"currency":"USD"}
{"id":"s1","date":"2025-02-01","asset":"MSFT","kind":"sell","quantity":15,"price":250,"currency":"USD"}
{"id":"b3","date":"2025-01-12","asset":"AAPL","kind":"buy","quantity":2,"price":150,"currency":"USD"}
`
