package costbasis

// Basis is the cost of the quantity still held.
type Basis struct {
	CostBasis   Money
	Quantity    Quantity
	AvgBuyPrice Money // zero when nothing is held
}

// Aggregate reduces open lots into their total cost, total quantity and
// average unit cost, in currency.
func Aggregate(lots []Lot, currency string) Basis {
	b := Basis{CostBasis: M(0, currency), AvgBuyPrice: M(0, currency)}
	for _, l := range lots {
		b.CostBasis = b.CostBasis.Add(l.Cost())
		b.Quantity = b.Quantity.Add(l.Quantity)
	}
	if b.Quantity.IsPositive() {
		b.AvgBuyPrice = b.CostBasis.Div(b.Quantity)
	}
	return b
}
