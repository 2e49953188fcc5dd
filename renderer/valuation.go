package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/costbasis"
	md "github.com/nao1215/markdown"
)

// ValuationMarkdown renders the mark-to-market view of a holding.
func ValuationMarkdown(m costbasis.HoldingMetrics, v costbasis.Valuation) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Valuation of %s", m.Asset))
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
		},
		Header: []string{
			md.Bold("Market Value"),
			md.Bold(v.MarketValue.String()),
		},
		Rows: [][]string{
			{"Quantity", m.Quantity.String()},
			{"Unit Price", v.UnitPrice.String()},
			{"Cost Basis", m.CostBasis.String()},
			{"Unrealized P&L", v.UnrealizedPnL.SignedString()},
			{"Realized P&L", m.RealizedPnL.SignedString()},
			{md.Bold("Total P&L"), md.Bold(v.TotalPnL.SignedString())},
		},
	})

	var out strings.Builder
	out.WriteString(doc.String())
	ConditionalBlock(&out, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Warnings\n\n")
		if m.Degraded {
			fmt.Fprint(w, "Some historical rates were unavailable and replaced by 1, amounts may be approximate.\n\n")
		}
		for _, warn := range m.Warnings {
			fmt.Fprintf(w, "- %s\n", warn.Error())
		}
		return m.Degraded || len(m.Warnings) > 0
	})
	return out.String()
}
