package costbasis

import (
	"errors"
	"fmt"

	"github.com/etnz/costbasis/date"
)

var (
	// ErrMalformedTransaction is returned when a transaction has a non-finite or
	// out of range numeric field. The replay that met it is aborted.
	ErrMalformedTransaction = errors.New("malformed transaction")

	// ErrMixedAssets is returned when ComputeHoldingMetrics receives transactions
	// for more than one asset.
	ErrMixedAssets = errors.New("transactions for more than one asset")

	// ErrTrackerState is returned when a Tracker method is called in the wrong state.
	ErrTrackerState = errors.New("invalid tracker state")

	// ErrInvalidCurrency is returned for an unknown or empty currency code.
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrCurrencyMismatch is returned when two amounts must share a currency and don't.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// MalformedTransactionError identifies the offending transaction of a replay.
type MalformedTransactionError struct {
	ID     string
	Field  string
	Reason string
}

func (e *MalformedTransactionError) Error() string {
	return fmt.Sprintf("malformed transaction %q: %s %s", e.ID, e.Field, e.Reason)
}

func (e *MalformedTransactionError) Unwrap() error { return ErrMalformedTransaction }

// Warning is a condition that does not prevent a result from being computed
// but makes it less trustworthy.
type Warning interface {
	error
	warning()
}

// RateUnavailable reports a historical rate that could not be resolved. A rate
// of 1 was used in its place.
type RateUnavailable struct {
	Date     date.Date
	Currency string
	Err      error
}

func (w RateUnavailable) Error() string {
	if w.Err == nil {
		return fmt.Sprintf("rate unavailable for %s on %s", w.Currency, w.Date)
	}
	return fmt.Sprintf("rate unavailable for %s on %s: %v", w.Currency, w.Date, w.Err)
}

func (w RateUnavailable) Unwrap() error { return w.Err }
func (RateUnavailable) warning()        {}

// Oversold reports a sell that could not be fully matched against open lots.
// The excess quantity was ignored.
type Oversold struct {
	Asset         string
	TransactionID string
	Excess        Quantity
}

func (w Oversold) Error() string {
	return fmt.Sprintf("asset %q oversold by %s in transaction %q", w.Asset, w.Excess, w.TransactionID)
}

func (Oversold) warning() {}
