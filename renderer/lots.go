package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/costbasis"
	md "github.com/nao1215/markdown"
)

// LotsMarkdown renders the open lots of a holding, oldest first.
func LotsMarkdown(m costbasis.HoldingMetrics) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Open Lots of %s", m.Asset))
	if len(m.Lots) == 0 {
		doc.PlainText("No open lots.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Purchased", "Transaction", "Quantity", "Unit Cost", "Cost"},
	}
	for _, l := range m.Lots {
		table.Rows = append(table.Rows, []string{
			l.Date.String(),
			l.TransactionID,
			l.Quantity.String(),
			l.UnitCost.String(),
			l.Cost().String(),
		})
	}
	table.Rows = append(table.Rows, []string{
		md.Bold("Total"),
		"",
		md.Bold(m.Quantity.String()),
		m.AvgBuyPrice.String(),
		md.Bold(m.CostBasis.String()),
	})
	doc.Table(table)
	return doc.String()
}
