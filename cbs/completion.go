package main

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// predictors for flags whose values are known.
var predictors = map[string]complete.Predictor{
	"format":      predict.Set{"terminal", "markdown", "html"},
	"c":           predict.Set{"USD", "EUR", "GBP", "JPY", "CHF", "IDR"},
	"cur":         predict.Set{"USD", "EUR", "GBP", "JPY", "CHF", "IDR"},
	"reference":   predict.Set{"USD", "EUR"},
	"log-level":   predict.Set{"debug", "info", "warn", "error"},
	"ledger-file": predict.Files("*.jsonl"),
	"rate-cache":  predict.Files("*.db"),
}

// completion builds the shell completion tree of every command of c.
//
// install with: COMP_INSTALL=1 cbs
func completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: make(map[string]complete.Predictor),
	}
	c.VisitAll(func(f *flag.Flag) { root.Flags[f.Name] = predictorOf(f.Name) })

	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
		fs.VisitAll(func(f *flag.Flag) { sub.Flags[f.Name] = predictorOf(f.Name) })
		root.Sub[cmd.Name()] = sub
	})
	return root
}

func predictorOf(name string) complete.Predictor {
	if p, ok := predictors[name]; ok {
		return p
	}
	return predict.Something
}
