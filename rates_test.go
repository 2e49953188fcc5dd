package costbasis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredRates(t *testing.T) {
	d1, d2 := day("2025-01-10"), day("2025-01-11")
	txs := []Transaction{
		NewBuy("b1", d2, "X", Q(1), IDR(10)),
		NewBuy("b2", d1, "X", Q(1), IDR(10)),
		NewBuy("b3", d1, "X", Q(1), IDR(12)), // same day, same currency
		NewBuy("b4", d1, "X", Q(1), EUR(1)),  // already in target
	}
	got := requiredRates(txs, "EUR")
	assert.Equal(t, []RateKey{
		{Date: d1, Currency: "EUR"},
		{Date: d1, Currency: "IDR"},
		{Date: d2, Currency: "EUR"},
		{Date: d2, Currency: "IDR"},
	}, got)

	assert.Empty(t, requiredRates(txs[3:], "EUR"))
}

func TestRateResolver_Each(t *testing.T) {
	on := day("2025-01-10")
	svc := newFixedRates(map[RateKey]float64{
		{Date: on, Currency: "USD"}: 1,
		{Date: on, Currency: "IDR"}: 15000,
	})
	r := rateResolver{service: svc, concurrency: 4, log: zerolog.Nop()}
	keys := []RateKey{
		{Date: on, Currency: "USD"},
		{Date: on, Currency: "IDR"},
		{Date: on, Currency: "GBP"},
	}
	table := r.resolve(context.Background(), keys)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 3, svc.totalCalls())
	rate, err := table.Rate(RateKey{Date: on, Currency: "IDR"})
	require.NoError(t, err)
	assert.Equal(t, "15000", rate.String())

	rate, err = table.Rate(RateKey{Date: on, Currency: "GBP"})
	assert.ErrorIs(t, err, errNoRate)
	assert.Equal(t, "1", rate.String())
}

func TestRateResolver_Batch(t *testing.T) {
	on := day("2025-01-10")
	svc := &batchRates{fixedRates: newFixedRates(map[RateKey]float64{
		{Date: on, Currency: "USD"}: 1,
	})}
	r := rateResolver{service: svc, concurrency: 4, log: zerolog.Nop()}
	table := r.resolve(context.Background(), []RateKey{
		{Date: on, Currency: "USD"},
		{Date: on, Currency: "EUR"},
	})

	assert.Equal(t, 1, svc.batches)
	_, err := table.Rate(RateKey{Date: on, Currency: "USD"})
	assert.NoError(t, err)
	_, err = table.Rate(RateKey{Date: on, Currency: "EUR"})
	assert.Error(t, err)
}

func TestRateResolver_TimeoutIsUniform(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	on := day("2025-01-10")
	r := rateResolver{service: slowRates{}, concurrency: 2, log: zerolog.Nop()}
	table := r.resolve(ctx, []RateKey{{Date: on, Currency: "USD"}, {Date: on, Currency: "EUR"}})

	for _, c := range []string{"USD", "EUR"} {
		_, err := table.Rate(RateKey{Date: on, Currency: c})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestRateResolver_TimeoutWithStuckService(t *testing.T) {
	svc := stuckRates{release: make(chan struct{})}
	t.Cleanup(func() { close(svc.release) })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	on := day("2025-01-10")
	r := rateResolver{service: svc, concurrency: 2, log: zerolog.Nop()}
	table := r.resolve(ctx, []RateKey{{Date: on, Currency: "EUR"}})

	_, err := table.Rate(RateKey{Date: on, Currency: "EUR"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateResolver_NoService(t *testing.T) {
	on := day("2025-01-10")
	r := rateResolver{log: zerolog.Nop()}
	table := r.resolve(context.Background(), []RateKey{{Date: on, Currency: "EUR"}})
	_, err := table.Rate(RateKey{Date: on, Currency: "EUR"})
	assert.Error(t, err)
}
