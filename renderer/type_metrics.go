package renderer

import (
	"strings"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/date"
)

// Metrics is the cost basis report of a set of assets in a single currency.
// Numbers keep their exact decimal types so that they already carry their
// renderers (String, SignedString).
type Metrics struct {
	Currency string
	// Assets are sorted as given, usually by asset name.
	Assets []MetricsAsset
	// TotalCostBasis is the sum of the assets cost basis.
	TotalCostBasis costbasis.Money
	// TotalRealizedPnL is the sum of the assets realized P&L.
	TotalRealizedPnL costbasis.Money
	// Degraded is true when any asset was computed with a fallback rate.
	Degraded bool
	Warnings []string
}

// MetricsAsset is the row of a single asset.
type MetricsAsset struct {
	Asset         string
	Quantity      costbasis.Quantity
	AvgBuyPrice   costbasis.Money
	CostBasis     costbasis.Money
	RealizedPnL   costbasis.Money
	FirstPurchase date.Date
	Degraded      bool
}

// NewMetrics builds the report from metrics that all share currency.
func NewMetrics(currency string, ms []costbasis.HoldingMetrics) *Metrics {
	currency = strings.ToUpper(currency)
	r := &Metrics{
		Currency:         currency,
		Assets:           make([]MetricsAsset, 0, len(ms)),
		TotalCostBasis:   costbasis.M(0, currency),
		TotalRealizedPnL: costbasis.M(0, currency),
	}
	for _, m := range ms {
		r.Assets = append(r.Assets, MetricsAsset{
			Asset:         m.Asset,
			Quantity:      m.Quantity,
			AvgBuyPrice:   m.AvgBuyPrice,
			CostBasis:     m.CostBasis,
			RealizedPnL:   m.RealizedPnL,
			FirstPurchase: m.FirstPurchase,
			Degraded:      m.Degraded,
		})
		r.TotalCostBasis = r.TotalCostBasis.Add(m.CostBasis)
		r.TotalRealizedPnL = r.TotalRealizedPnL.Add(m.RealizedPnL)
		r.Degraded = r.Degraded || m.Degraded
		for _, w := range m.Warnings {
			r.Warnings = append(r.Warnings, w.Error())
		}
	}
	return r
}
