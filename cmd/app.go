// Package cmd implements the cbs command line application: FIFO cost basis
// reports computed from a JSONL ledger of buys and sells.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/eodhd"
	"github.com/etnz/costbasis/ratecache"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&metricsCmd{}, "reports")
	c.Register(&lotsCmd{}, "reports")
	c.Register(&valueCmd{}, "reports")

	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&fmtCmd{}, "transactions")

	c.Register(&topicCmd{}, "help")
}

const (
	EnvLedgerFile  = "COSTBASIS_LEDGER_FILE"
	EnvEODHDAPIKey = "EODHD_API_KEY"
	EnvRateCache   = "COSTBASIS_RATE_CACHE"
	EnvReference   = "COSTBASIS_REFERENCE"
	EnvLogLevel    = "COSTBASIS_LOG_LEVEL"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
// Empty flags fall back to the environment, see LoadEnv.

var ledgerFile = flag.String("ledger-file", "", "Path to the ledger file containing transactions (JSONL format). Env "+EnvLedgerFile+", default transactions.jsonl")
var eodhdAPIKey = flag.String("eodhd-api-key", "", "EODHD API key used to fetch historical rates. Env "+EnvEODHDAPIKey)
var rateCache = flag.String("rate-cache", "", "Path to the SQLite historical rate cache, 'off' to disable. Env "+EnvRateCache+", default rates.db")
var reference = flag.String("reference", "", "Reference currency of the historical rates. Env "+EnvReference+", default USD")
var rateTimeout = flag.Duration("rate-timeout", 10*time.Second, "Maximum time spent fetching historical rates before falling back to a rate of 1")
var logLevel = flag.String("log-level", "", "Log level (debug, info, warn, error). Env "+EnvLogLevel+", default warn")

// out is where reports are printed.
var out io.Writer = os.Stdout

// LoadEnv loads a .env file from the working directory, if any, and fills
// the global flags that were not set on the command line from the
// environment. It must be called after flag.Parse.
func LoadEnv() {
	_ = godotenv.Load()
	fill := func(p *string, key, def string) {
		if *p != "" {
			return
		}
		*p = getEnv(key, def)
	}
	fill(ledgerFile, EnvLedgerFile, "transactions.jsonl")
	fill(eodhdAPIKey, EnvEODHDAPIKey, "")
	fill(rateCache, EnvRateCache, "rates.db")
	fill(reference, EnvReference, "USD")
	fill(logLevel, EnvLogLevel, "warn")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// DecodeLedger reads all transactions of the ledger file. A missing ledger is
// an empty one.
func DecodeLedger() ([]costbasis.Transaction, error) {
	f, err := os.Open(*ledgerFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger %q: %w", *ledgerFile, err)
	}
	defer f.Close()
	txs, err := costbasis.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode ledger %q: %w", *ledgerFile, err)
	}
	return txs, nil
}

// appendTransaction appends a transaction to the ledger file.
func appendTransaction(tx costbasis.Transaction) subcommands.ExitStatus {
	filename := *ledgerFile
	// Open the file in append mode, creating it if it doesn't exist.
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger file %q: %v\n", filename, err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	if err := costbasis.EncodeTransaction(f, tx); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to ledger file %q: %v\n", filename, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Successfully appended transaction %s to %s\n", tx.ID, filename)
	return subcommands.ExitSuccess
}

// newEngine builds the engine and its rate service from the global flags.
// The returned close function releases the rate cache.
func newEngine() (*costbasis.Engine, func() error, error) {
	log := newLogger()
	closer := func() error { return nil }

	var rates costbasis.RateService
	if *eodhdAPIKey != "" {
		rates = eodhd.New(*eodhdAPIKey, eodhd.WithReference(*reference), eodhd.WithLogger(log))
	}
	if *rateCache != "" && !strings.EqualFold(*rateCache, "off") {
		cache, err := ratecache.Open(*rateCache, rates, log)
		if err != nil {
			return nil, nil, err
		}
		rates, closer = cache, cache.Close
	}
	if rates == nil {
		log.Info().Msg("no rate service configured, multi-currency ledgers will use a rate of 1")
	}

	engine := costbasis.NewEngine(rates,
		costbasis.WithLogger(log),
		costbasis.WithRateTimeout(*rateTimeout),
	)
	return engine, closer, nil
}

// filterAsset returns the transactions of asset, or all of them when asset is empty.
func filterAsset(txs []costbasis.Transaction, asset string) []costbasis.Transaction {
	if asset == "" {
		return txs
	}
	var res []costbasis.Transaction
	for _, tx := range txs {
		if tx.Asset == asset {
			res = append(res, tx)
		}
	}
	return res
}
