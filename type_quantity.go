package costbasis

import (
	"math"

	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// finite reports whether v can be represented as a decimal.
func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Quantity is an amount of an asset, in units of that asset.
type Quantity struct {
	value decimal.Decimal
}

// Q returns a Quantity. It panics on non-finite floats, use NewTransaction to
// validate untrusted values.
func Q[T float64 | int | int64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: newDecimal(value)}
}

// ParseQuantity parses a decimal string.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: d}, nil
}

func (q Quantity) Decimal() decimal.Decimal     { return q.value }
func (q Quantity) Equal(p Quantity) bool        { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool     { return q.value.LessThan(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool  { return q.value.GreaterThan(p.value) }
func (q Quantity) Add(p Quantity) Quantity      { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity      { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Mul(p Quantity) Quantity      { return Quantity{value: q.value.Mul(p.value)} }
func (q Quantity) IsNegative() bool             { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool             { return q.value.IsPositive() }
func (q Quantity) IsZero() bool                 { return q.value.IsZero() }
func (q Quantity) String() string               { return q.value.String() }
func (q Quantity) InexactFloat64() float64      { return q.value.InexactFloat64() }

func minQuantity(a, b Quantity) Quantity {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MarshalJSON encodes the quantity as an exact json number.
func (q Quantity) MarshalJSON() ([]byte, error) { return q.value.MarshalJSON() }

// UnmarshalJSON accepts both a json number and a json string.
func (q *Quantity) UnmarshalJSON(decimalBytes []byte) error {
	return q.value.UnmarshalJSON(decimalBytes)
}
