package costbasis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/costbasis/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// RateKey identifies a historical rate: a currency on a given day.
type RateKey struct {
	Date     date.Date
	Currency string
}

func (k RateKey) String() string { return k.Currency + "@" + k.Date.String() }

// RateService is the historical rate collaborator.
//
// GetRate returns how many units of currency are worth one unit of the
// service's fixed reference currency on that day. A non-positive rate or an
// error means the rate is unavailable.
type RateService interface {
	GetRate(ctx context.Context, on date.Date, currency string) (float64, error)
}

// BatchRateService is implemented by collaborators able to resolve many rates
// in a single request. Keys missing from the returned map are unavailable.
type BatchRateService interface {
	RateService
	GetRates(ctx context.Context, keys []RateKey) (map[RateKey]float64, error)
}

var errNonPositiveRate = errors.New("non-positive rate")

// RateTable is an immutable set of resolved rates for one replay.
//
// Every lookup of the same key returns the same value, whatever happened on
// the network while it was built.
type RateTable struct {
	rates   map[RateKey]decimal.Decimal
	missing map[RateKey]error
}

// NewRateTable returns a table from known rates. Non-positive rates are
// recorded as unavailable.
func NewRateTable(rates map[RateKey]float64) *RateTable {
	t := &RateTable{
		rates:   make(map[RateKey]decimal.Decimal, len(rates)),
		missing: make(map[RateKey]error),
	}
	for k, v := range rates {
		t.set(k, v, nil)
	}
	return t
}

func (t *RateTable) set(k RateKey, v float64, err error) {
	switch {
	case err != nil:
		t.missing[k] = err
	case v <= 0 || !finite(v):
		t.missing[k] = fmt.Errorf("%w: %v", errNonPositiveRate, v)
	default:
		t.rates[k] = decimal.NewFromFloat(v)
	}
}

// Rate returns the rate for key. When the rate is unavailable it returns 1 and
// the reason.
func (t *RateTable) Rate(k RateKey) (decimal.Decimal, error) {
	if t != nil {
		if r, ok := t.rates[k]; ok {
			return r, nil
		}
		if err, ok := t.missing[k]; ok {
			return decimal.NewFromInt(1), err
		}
	}
	return decimal.NewFromInt(1), fmt.Errorf("rate %s was not resolved", k)
}

// Len returns the number of keys known to the table, resolved or not.
func (t *RateTable) Len() int { return len(t.rates) + len(t.missing) }

// requiredRates collects the distinct keys needed to normalize txs into target.
// Transactions already in target need no rate.
func requiredRates(txs []Transaction, target string) []RateKey {
	seen := make(map[RateKey]bool)
	var keys []RateKey
	add := func(k RateKey) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, tx := range txs {
		if tx.Currency() == target {
			continue
		}
		add(RateKey{Date: tx.Date, Currency: tx.Currency()})
		add(RateKey{Date: tx.Date, Currency: target})
	}
	slices.SortFunc(keys, func(a, b RateKey) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Currency, b.Currency)
	})
	return keys
}

// rateResolver fetches all rates of a replay before the replay starts.
type rateResolver struct {
	service     RateService
	concurrency int
	log         zerolog.Logger
}

// resolve fetches keys and returns the resulting table. It never fails: rates
// that could not be fetched are recorded as missing. If ctx is done before all
// lookups completed, every key is recorded as missing so that a replay never
// mixes real and fallback rates because of a timeout.
func (r *rateResolver) resolve(ctx context.Context, keys []RateKey) *RateTable {
	table := NewRateTable(nil)
	if len(keys) == 0 {
		return table
	}
	if r.service == nil {
		for _, k := range keys {
			table.set(k, 0, errors.New("no rate service configured"))
		}
		return table
	}

	// a service ignoring ctx must not hold the replay past the deadline,
	// late answers land in a discarded table.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if batch, ok := r.service.(BatchRateService); ok {
			r.resolveBatch(ctx, batch, keys, table)
		} else {
			r.resolveEach(ctx, keys, table)
		}
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if err := ctx.Err(); err != nil {
		r.log.Warn().Err(err).Int("keys", len(keys)).Msg("rate resolution interrupted, falling back to default rates")
		table = NewRateTable(nil)
		for _, k := range keys {
			table.set(k, 0, err)
		}
		return table
	}
	r.log.Debug().Int("keys", len(keys)).Int("missing", len(table.missing)).Msg("rates resolved")
	return table
}

func (r *rateResolver) resolveBatch(ctx context.Context, batch BatchRateService, keys []RateKey, table *RateTable) {
	rates, err := batch.GetRates(ctx, keys)
	for _, k := range keys {
		v, ok := rates[k]
		switch {
		case ok:
			table.set(k, v, nil)
		case err != nil:
			table.set(k, 0, err)
		default:
			table.set(k, 0, errors.New("rate missing from batch response"))
		}
	}
}

func (r *rateResolver) resolveEach(ctx context.Context, keys []RateKey, table *RateTable) {
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(max(1, r.concurrency))
	for _, k := range keys {
		g.Go(func() error {
			v, err := r.service.GetRate(ctx, k.Date, k.Currency)
			mu.Lock()
			defer mu.Unlock()
			table.set(k, v, err)
			return nil
		})
	}
	// lookups never return errors, failures are recorded in the table.
	_ = g.Wait()
}
