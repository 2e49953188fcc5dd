package costbasis

import "testing"

func TestAggregate(t *testing.T) {
	testCases := []struct {
		name     string
		lots     []Lot
		wantCost Money
		wantQty  Quantity
		wantAvg  Money
	}{
		{
			name:     "no lots",
			wantCost: EUR(0),
			wantQty:  Q(0),
			wantAvg:  EUR(0),
		},
		{
			name:     "single lot",
			lots:     []Lot{{Quantity: Q(5), UnitCost: EUR(2)}},
			wantCost: EUR(10),
			wantQty:  Q(5),
			wantAvg:  EUR(2),
		},
		{
			name: "weighted average",
			lots: []Lot{
				{Quantity: Q(1), UnitCost: EUR(10)},
				{Quantity: Q(3), UnitCost: EUR(30)},
			},
			wantCost: EUR(100),
			wantQty:  Q(4),
			wantAvg:  EUR(25),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := Aggregate(tc.lots, "EUR")
			assertMoney(t, tc.wantCost, b.CostBasis)
			assertQuantity(t, tc.wantQty, b.Quantity)
			assertMoney(t, tc.wantAvg, b.AvgBuyPrice)
		})
	}
}
