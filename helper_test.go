package costbasis

import (
	"context"
	"errors"
	"sync"

	"github.com/etnz/costbasis/date"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// IDR is a helper for test to create rupiah money from const
func IDR(v float64) Money { return M(v, "IDR") }

var errNoRate = errors.New("no rate")

// fixedRates is a RateService reading from a map, and counting lookups.
type fixedRates struct {
	mu    sync.Mutex
	rates map[RateKey]float64
	calls map[RateKey]int
}

func newFixedRates(rates map[RateKey]float64) *fixedRates {
	return &fixedRates{rates: rates, calls: make(map[RateKey]int)}
}

func (f *fixedRates) GetRate(_ context.Context, on date.Date, currency string) (float64, error) {
	k := RateKey{Date: on, Currency: currency}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[k]++
	if v, ok := f.rates[k]; ok {
		return v, nil
	}
	return 0, errNoRate
}

func (f *fixedRates) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// batchRates is a BatchRateService counting batch requests.
type batchRates struct {
	*fixedRates
	batches int
}

func (b *batchRates) GetRates(ctx context.Context, keys []RateKey) (map[RateKey]float64, error) {
	b.batches++
	out := make(map[RateKey]float64)
	for _, k := range keys {
		if v, err := b.GetRate(ctx, k.Date, k.Currency); err == nil {
			out[k] = v
		}
	}
	return out, nil
}

// slowRates blocks until ctx is done.
type slowRates struct{}

func (slowRates) GetRate(ctx context.Context, _ date.Date, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func day(s string) date.Date { return date.MustParse(s) }

// stuckRates ignores ctx and only answers once release is closed.
type stuckRates struct{ release chan struct{} }

func (s stuckRates) GetRate(_ context.Context, _ date.Date, _ string) (float64, error) {
	<-s.release
	return 2, nil
}
