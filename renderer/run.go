// Package renderer turns engine results into markdown reports.
package renderer

import (
	"bytes"
	"fmt"
	"sort"

	md "github.com/nao1215/markdown"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/date"
)

// RunSummary is the rendering model of one engine run.
// Amounts are carried as exact Money so the table totals do not drift.
type RunSummary struct {
	RunID  string
	Period date.Range
	Built  int

	Deals  []DealSummary
	Totals []CurrencyTotal
	Failed []FailedDeal
}

// DealSummary aggregates one facility's rows.
type DealSummary struct {
	Facility string
	Client   string
	Currency string
	Days     int
	From     date.Date
	To       date.Date
	Drawn    pnl.Money
	Unused   pnl.Money
	Premium  pnl.Percent
	Margin   pnl.Percent
	PnL      pnl.Money
}

// CurrencyTotal aggregates the run per currency.
type CurrencyTotal struct {
	Currency      string
	GrossRevenue  pnl.Money
	UnusedRevenue pnl.Money
	CostOfFunds   pnl.Money
	PnL           pnl.Money
}

// FailedDeal is a deal the run skipped.
type FailedDeal struct {
	Facility string
	Reason   string
}

// NewRunSummary builds the report model from a run result. Rows arrive
// contiguous per facility, so one pass folds them into deal summaries.
func NewRunSummary(result *pnl.RunResult) *RunSummary {
	s := &RunSummary{RunID: result.ID, Period: result.Period, Built: result.Built}

	last := -1
	for _, row := range result.Rows {
		if last < 0 || s.Deals[last].Facility != row.Facility {
			s.Deals = append(s.Deals, DealSummary{
				Facility: row.Facility,
				Client:   row.Client,
				Currency: row.Currency,
				From:     row.BusinessDate,
				Drawn:    pnl.M(row.DrawnBalance, row.Currency),
				Unused:   pnl.M(row.UnusedBalance, row.Currency),
				Premium:  pnl.Percent(row.FundingPremium * 100),
				Margin:   pnl.Percent(row.Margin * 100),
			})
			last = len(s.Deals) - 1
		}
		d := &s.Deals[last]
		d.Days++
		d.To = row.BusinessDate
		d.PnL = d.PnL.Add(pnl.M(row.PnL, row.Currency))
	}

	totals := make(map[string]*CurrencyTotal)
	var currencies []string
	for _, row := range result.Rows {
		tot, ok := totals[row.Currency]
		if !ok {
			tot = &CurrencyTotal{Currency: row.Currency}
			totals[row.Currency] = tot
			currencies = append(currencies, row.Currency)
		}
		tot.GrossRevenue = tot.GrossRevenue.Add(pnl.M(row.GrossRevenue, row.Currency))
		tot.UnusedRevenue = tot.UnusedRevenue.Add(pnl.M(row.UnusedRevenue, row.Currency))
		costOfFunds := row.CostOfFundsDrawn + row.CostOfFundsWALDrawn + row.CostOfFundsWALUndrawn
		tot.CostOfFunds = tot.CostOfFunds.Add(pnl.M(costOfFunds, row.Currency))
		tot.PnL = tot.PnL.Add(pnl.M(row.PnL, row.Currency))
	}
	sort.Strings(currencies)
	for _, cur := range currencies {
		s.Totals = append(s.Totals, *totals[cur])
	}

	for _, f := range result.Failed {
		s.Failed = append(s.Failed, FailedDeal{Facility: f.Facility, Reason: f.Err.Error()})
	}
	return s
}

// RunMarkdown renders the run summary report.
func RunMarkdown(s *RunSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Daily PnL Run")
	doc.PlainText(fmt.Sprintf("Run `%s` over %s, %d deals built.", s.RunID, s.Period, s.Built))

	if len(s.Deals) > 0 {
		doc.H2("Deals")
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft, md.AlignLeft,
				md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
			},
			Header: []string{"Facility", "Client", "Days", "Drawn", "Unused", "Premium", "Margin", "PnL"},
		}
		for _, d := range s.Deals {
			table.Rows = append(table.Rows, []string{
				d.Facility,
				d.Client,
				fmt.Sprintf("%d", d.Days),
				d.Drawn.String(),
				d.Unused.String(),
				d.Premium.String(),
				d.Margin.String(),
				d.PnL.SignedString(),
			})
		}
		doc.Table(table)
	}

	if len(s.Totals) > 0 {
		doc.H2("Totals")
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft,
				md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
			},
			Header: []string{"Currency", "Gross Revenue", "Unused Revenue", "Cost of Funds", "PnL"},
		}
		for _, tot := range s.Totals {
			table.Rows = append(table.Rows, []string{
				tot.Currency,
				tot.GrossRevenue.String(),
				tot.UnusedRevenue.String(),
				tot.CostOfFunds.String(),
				md.Bold(tot.PnL.SignedString()),
			})
		}
		doc.Table(table)
	}

	if len(s.Failed) > 0 {
		doc.H2("Skipped Deals")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft},
			Header:    []string{"Facility", "Reason"},
		}
		for _, f := range s.Failed {
			table.Rows = append(table.Rows, []string{f.Facility, f.Reason})
		}
		doc.Table(table)
	}

	return doc.String()
}
