package costbasis

import (
	"strings"

	"github.com/etnz/costbasis/date"
)

// NormalizedPrice is a unit price converted into a target currency.
type NormalizedPrice struct {
	Price    Money // unit price in the target currency
	Amount   Money // Price times the normalized quantity
	Degraded bool  // at least one rate fell back to 1
	Warnings []RateUnavailable
}

// Normalizer converts prices between currencies as of a given day, using a
// table of rates resolved ahead of time.
type Normalizer struct {
	rates *RateTable
}

// NewNormalizer returns a Normalizer reading rates from table.
func NewNormalizer(table *RateTable) *Normalizer { return &Normalizer{rates: table} }

// Normalize converts price, expressed in its own currency on day on, into
// currency to.
//
// The conversion is price / rate(from) * rate(to). Identical currencies are
// returned unchanged. A missing rate is replaced by 1 and reported in the
// returned warnings, never as an error.
func (n *Normalizer) Normalize(quantity Quantity, price Money, to string, on date.Date) NormalizedPrice {
	to = strings.ToUpper(to)
	if price.Currency() == to {
		return NormalizedPrice{Price: price, Amount: price.Mul(quantity)}
	}

	var out NormalizedPrice
	from, err := n.rates.Rate(RateKey{Date: on, Currency: price.Currency()})
	if err != nil {
		out.Warnings = append(out.Warnings, RateUnavailable{Date: on, Currency: price.Currency(), Err: err})
	}
	dest, err := n.rates.Rate(RateKey{Date: on, Currency: to})
	if err != nil {
		out.Warnings = append(out.Warnings, RateUnavailable{Date: on, Currency: to, Err: err})
	}
	out.Degraded = len(out.Warnings) > 0
	out.Price = Money{value: price.value.Div(from).Mul(dest), cur: to}
	out.Amount = out.Price.Mul(quantity)
	return out
}
