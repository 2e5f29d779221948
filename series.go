package pnl

import (
	"github.com/dgoubkine/pnl/calendar"
	"github.com/dgoubkine/pnl/date"
)

// Row is one deal-day accrual record. Rows are immutable once produced.
type Row struct {
	Facility     string
	Client       string
	Currency     string
	BusinessDate date.Date
	FiscalYear   string
	DaySpan      int

	DrawnBalance          float64
	UnusedBalance         float64
	MinUtilization        float64
	MinUtilizationAmount  float64
	MinUtilizationApplied bool

	TermYears      int
	WALYears       float64
	FundingPremium float64
	Margin         float64
	UnusedFee      float64

	ShortTenorRate      float64
	OvernightRate       float64
	PriorShortTenorRate float64
	PriorOvernightRate  float64

	Components
}

// BuildSeries computes one deal's accrual rows over the business days of
// period, in ascending order. The deal must have been Derived.
//
// Balances and the funding premium are resolved once for the whole series.
// Each day looks up the same-day and prior-day rate observations; a missing
// observation aborts the series immediately.
func BuildSeries(deal DealTerms, grid PremiumGrid, rates *RateTable, cal calendar.ID, period date.Range) ([]Row, error) {
	days, err := calendar.BusinessDays(cal, period.From, period.To)
	if err != nil {
		return nil, err
	}

	premium := deal.SelectPremium(grid)
	balances := ResolveBalances(deal)
	spans := DaySpans(days)

	rows := make([]Row, 0, len(days))
	for i, day := range days {
		t0, err := rates.On(day)
		if err != nil {
			return nil, err
		}
		t1, err := rates.On(day.Add(-1))
		if err != nil {
			return nil, err
		}

		c := ComputeComponents(FormulaInputs{
			DaySpan:             spans[i],
			AdvancesOutstanding: deal.AdvancesOutstanding,
			WALDrawnBase:        balances.Drawn,
			WALUndrawnBase:      balances.Unused,
			FundingPremium:      premium,
			UnusedFee:           deal.UnusedFee,
			Margin:              deal.Margin,
			SpreadMultiplier:    deal.SpreadMultiplier,
			OvernightPrior:      t1.Overnight,
			ShortTenorPrior:     t1.ShortTenor,
		})

		rows = append(rows, Row{
			Facility:     deal.Facility,
			Client:       deal.Client,
			Currency:     deal.Currency,
			BusinessDate: day,
			FiscalYear:   FiscalYear(day),
			DaySpan:      spans[i],

			DrawnBalance:          balances.Drawn,
			UnusedBalance:         balances.Unused,
			MinUtilization:        deal.MinUtilization,
			MinUtilizationAmount:  deal.MinUtilizationAmount,
			MinUtilizationApplied: balances.MinApplied,

			TermYears:      deal.TermYears,
			WALYears:       deal.WALYears,
			FundingPremium: premium,
			Margin:         deal.Margin,
			UnusedFee:      deal.UnusedFee,

			ShortTenorRate:      t0.ShortTenor,
			OvernightRate:       t0.Overnight,
			PriorShortTenorRate: t1.ShortTenor,
			PriorOvernightRate:  t1.Overnight,

			Components: c,
		})
	}
	return rows, nil
}
