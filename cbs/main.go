// Command cbs computes FIFO cost basis reports from a ledger of buys and sells.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/costbasis/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// exits when invoked by the shell for completion.
	completion(commander).Complete("cbs")

	flag.Parse()
	cmd.LoadEnv()
	os.Exit(int(commander.Execute(context.Background())))
}
