package main

import (
	"flag"
	"testing"

	"github.com/etnz/costbasis/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletion(t *testing.T) {
	fs := flag.NewFlagSet("cbs", flag.ContinueOnError)
	fs.String("ledger-file", "", "")
	commander := subcommands.NewCommander(fs, "cbs")
	cmd.Register(commander)

	root := completion(commander)
	assert.NotNil(t, root.Flags["ledger-file"])
	for _, name := range []string{"metrics", "lots", "value", "buy", "sell", "fmt"} {
		require.Contains(t, root.Sub, name)
	}
	assert.Equal(t, predict.Set{"terminal", "markdown", "html"}, root.Sub["metrics"].Flags["format"])
	assert.Contains(t, root.Sub["buy"].Flags, "cur")
	assert.Contains(t, root.Sub["value"].Flags, "quote-path")
}
