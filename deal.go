package pnl

import (
	"math"

	"github.com/dgoubkine/pnl/date"
)

// DealTerms is the latest reported term sheet of one credit facility.
type DealTerms struct {
	Facility string
	Client   string
	Currency string

	ClosingDate      date.Date
	AmendmentDate    date.Date // most recent amendment, equals ClosingDate when never amended
	RevolvingEndDate date.Date
	MaturityDate     date.Date

	Commitment          float64
	AdvancesOutstanding float64
	Margin              float64 // decimal, e.g. 0.0425
	UnusedFee           float64 // decimal
	MinUtilization      float64 // ratio of commitment, zero when the deal has no floor

	// PremiumOverride, when set, replaces the grid funding premium.
	PremiumOverride *float64

	// SpreadMultiplier scales the undrawn cost-of-funds term. Zero when the
	// facility has none configured.
	SpreadMultiplier float64

	// Derived by Derive once per run, read-only afterwards.
	TermYears            int
	WALYears             float64
	MinUtilizationAmount float64
}

// Derive computes the figures that depend only on the raw terms:
//
//	TermYears            = ceil(days from AmendmentDate to RevolvingEndDate / 360)
//	WALYears             = 0.5 × days from RevolvingEndDate to MaturityDate / 360 + TermYears
//	MinUtilizationAmount = MinUtilization × Commitment
func (d *DealTerms) Derive() {
	termDays := d.RevolvingEndDate.DaysSince(d.AmendmentDate)
	walDays := d.MaturityDate.DaysSince(d.RevolvingEndDate)
	d.TermYears = int(math.Ceil(float64(termDays) / 360))
	d.WALYears = float64(walDays)*0.5/360 + float64(d.TermYears)
	d.MinUtilizationAmount = d.MinUtilization * d.Commitment
}

// SelectPremium returns the funding premium the deal accrues at: the
// explicit override when present, otherwise the grid rate at the deal's
// term, clamped to the grid tenors.
func (d DealTerms) SelectPremium(grid PremiumGrid) float64 {
	if d.PremiumOverride != nil {
		return *d.PremiumOverride
	}
	return grid.ByYear(d.TermYears)
}
