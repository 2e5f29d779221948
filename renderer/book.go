package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/dgoubkine/pnl"
)

// DealsMarkdown renders the book: the latest terms of every facility, one
// line each. Deals need not be Derived, the figures are recomputed here.
func DealsMarkdown(deals []pnl.DealTerms) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Book")
	doc.PlainText(fmt.Sprintf("%d facilities.", len(deals)))

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft,
			md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Facility", "Client", "Commitment", "Advances", "Margin", "Unused Fee", "WAL", "Maturity"},
	}
	for _, d := range deals {
		d.Derive()
		table.Rows = append(table.Rows, []string{
			d.Facility,
			d.Client,
			pnl.M(d.Commitment, d.Currency).String(),
			pnl.M(d.AdvancesOutstanding, d.Currency).String(),
			pnl.Percent(d.Margin * 100).String(),
			pnl.Percent(d.UnusedFee * 100).String(),
			fmt.Sprintf("%.2fy", d.WALYears),
			d.MaturityDate.String(),
		})
	}
	doc.Table(table)

	return doc.String()
}
