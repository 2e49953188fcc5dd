package costbasis

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/etnz/costbasis/date"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HoldingMetrics is the state of one asset after replaying all its transactions.
//
// Amounts are in Currency. FirstPurchase is the date of the earliest buy, even
// if that lot has been sold since, and is zero when there was no buy.
type HoldingMetrics struct {
	Asset         string
	Currency      string
	CostBasis     Money
	Quantity      Quantity
	AvgBuyPrice   Money
	RealizedPnL   Money
	FirstPurchase date.Date
	Lots          []Lot // open lots, oldest first

	// Degraded is true when at least one historical rate was unavailable and
	// replaced by 1. Values may then be approximate.
	Degraded bool
	Warnings []Warning
}

// Oversold returns the oversold warnings of m.
func (m HoldingMetrics) Oversold() []Oversold {
	var out []Oversold
	for _, w := range m.Warnings {
		if o, ok := w.(Oversold); ok {
			out = append(out, o)
		}
	}
	return out
}

func zeroMetrics(asset, currency string) HoldingMetrics {
	return HoldingMetrics{
		Asset:       asset,
		Currency:    currency,
		CostBasis:   M(0, currency),
		AvgBuyPrice: M(0, currency),
		RealizedPnL: M(0, currency),
	}
}

// Engine computes holding metrics from raw transactions. It keeps no state
// between calls: every call replays the full history it is given, so it is
// safe for concurrent use.
type Engine struct {
	rates       RateService
	log         zerolog.Logger
	timeout     time.Duration
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for degraded results and oversells.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithRateTimeout bounds the time spent resolving historical rates for one
// call. Zero disables the bound.
//
// When the bound is reached the call proceeds with fallback rates at once.
// Lookups still in flight are abandoned, they keep running until the
// RateService returns.
func WithRateTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithConcurrency sets the maximum number of concurrent rate lookups, and of
// concurrent assets in ComputePortfolio.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// NewEngine returns an engine that resolves historical rates with rates.
func NewEngine(rates RateService, opts ...Option) *Engine {
	e := &Engine{
		rates:       rates,
		log:         zerolog.Nop(),
		timeout:     10 * time.Second,
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("component", "costbasis").Logger()
	return e
}

// ComputeHoldingMetrics replays txs, all for the same asset, and returns the
// resulting metrics in target currency.
//
// Transactions are sorted by date; same-day transactions keep their relative
// order in txs. txs is not modified. Historical rates are all resolved before
// the replay starts, so the replay itself is pure computation.
//
// A malformed transaction aborts the call with a *MalformedTransactionError.
// Unavailable rates and oversells are reported in the metrics warnings.
func (e *Engine) ComputeHoldingMetrics(ctx context.Context, txs []Transaction, target string) (HoldingMetrics, error) {
	target = strings.ToUpper(target)
	if err := ValidateCurrency(target); err != nil {
		return HoldingMetrics{}, fmt.Errorf("invalid target currency: %w", err)
	}
	if len(txs) == 0 {
		return zeroMetrics("", target), nil
	}

	asset := txs[0].Asset
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return HoldingMetrics{}, err
		}
		if tx.Asset != asset {
			return HoldingMetrics{}, fmt.Errorf("%w: %q and %q", ErrMixedAssets, asset, tx.Asset)
		}
	}

	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int { return a.Date.Compare(b.Date) })

	table := e.resolveRates(ctx, requiredRates(sorted, target))
	return e.replay(asset, sorted, target, table)
}

func (e *Engine) resolveRates(ctx context.Context, keys []RateKey) *RateTable {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	r := rateResolver{service: e.rates, concurrency: e.concurrency, log: e.log}
	return r.resolve(ctx, keys)
}

// replay runs the tracker over sorted transactions. It is pure.
func (e *Engine) replay(asset string, sorted []Transaction, target string, table *RateTable) (HoldingMetrics, error) {
	m := zeroMetrics(asset, target)
	normalizer := NewNormalizer(table)
	tracker := NewTracker(target)
	if err := tracker.Begin(); err != nil {
		return HoldingMetrics{}, err
	}

	reported := make(map[RateKey]bool)
	for _, tx := range sorted {
		if tx.Kind == Buy && (m.FirstPurchase.IsZero() || tx.Date.Before(m.FirstPurchase)) {
			m.FirstPurchase = tx.Date
		}
		np := normalizer.Normalize(tx.Quantity, tx.Price, target, tx.Date)
		for _, w := range np.Warnings {
			k := RateKey{Date: w.Date, Currency: w.Currency}
			if reported[k] {
				continue
			}
			reported[k] = true
			m.Warnings = append(m.Warnings, w)
			e.log.Warn().Err(w.Err).Str("asset", asset).Stringer("date", w.Date).Str("currency", w.Currency).Msg("historical rate unavailable, using 1")
		}
		if err := tracker.Apply(tx, np.Price); err != nil {
			return HoldingMetrics{}, err
		}
	}

	r, err := tracker.Finish()
	if err != nil {
		return HoldingMetrics{}, err
	}
	for _, o := range r.Oversold {
		m.Warnings = append(m.Warnings, o)
		e.log.Warn().Str("asset", o.Asset).Str("transaction", o.TransactionID).Stringer("excess", o.Excess).Msg("sell exceeds open lots")
	}

	basis := Aggregate(r.Lots, target)
	m.CostBasis = basis.CostBasis
	m.Quantity = basis.Quantity
	m.AvgBuyPrice = basis.AvgBuyPrice
	m.RealizedPnL = r.RealizedPnL
	m.Lots = r.Lots
	m.Degraded = len(reported) > 0
	return m, nil
}

// ComputePortfolio groups txs by asset and computes the metrics of every asset
// concurrently. Results are sorted by asset. The first error aborts the call.
func (e *Engine) ComputePortfolio(ctx context.Context, txs []Transaction, target string) ([]HoldingMetrics, error) {
	var assets []string
	byAsset := make(map[string][]Transaction)
	for _, tx := range txs {
		if _, ok := byAsset[tx.Asset]; !ok {
			assets = append(assets, tx.Asset)
		}
		byAsset[tx.Asset] = append(byAsset[tx.Asset], tx)
	}
	slices.Sort(assets)

	results := make([]HoldingMetrics, len(assets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.concurrency))
	for i, asset := range assets {
		g.Go(func() error {
			m, err := e.ComputeHoldingMetrics(ctx, byAsset[asset], target)
			if err != nil {
				return fmt.Errorf("asset %q: %w", asset, err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
