package costbasis

import "fmt"

// Valuation is the mark-to-market view of a holding at a given unit price.
type Valuation struct {
	UnitPrice     Money
	MarketValue   Money
	UnrealizedPnL Money // MarketValue - CostBasis
	TotalPnL      Money // RealizedPnL + UnrealizedPnL
}

// Valuate values the quantity held in m at unitPrice, which must be expressed
// in the metrics currency. The engine never fetches current prices, they come
// from the caller.
func Valuate(m HoldingMetrics, unitPrice Money) (Valuation, error) {
	if unitPrice.Currency() != m.Currency {
		return Valuation{}, fmt.Errorf("%w: price in %s, holding in %s", ErrCurrencyMismatch, unitPrice.Currency(), m.Currency)
	}
	mv := unitPrice.Mul(m.Quantity)
	unrealized := mv.Sub(m.CostBasis)
	return Valuation{
		UnitPrice:     unitPrice,
		MarketValue:   mv,
		UnrealizedPnL: unrealized,
		TotalPnL:      m.RealizedPnL.Add(unrealized),
	}, nil
}
