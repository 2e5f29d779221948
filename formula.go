package pnl

// Divisors for the accrual terms. The extra powers of ten fold the unit of
// each input (percent quotes, decimal premium) into an Actual/365 day count.
const (
	daysPerYear       = 365
	overnightDivisor  = 36_500
	walDrawnDivisor   = 3_650_000
	walUndrawnDivisor = 365_000
)

// FormulaInputs are the per-day inputs of the accrual formula. Rates quoted
// in percent stay in percent; the margin, fee and premium are decimals.
type FormulaInputs struct {
	DaySpan             int
	AdvancesOutstanding float64
	WALDrawnBase        float64 // resolved drawn balance
	WALUndrawnBase      float64 // resolved unused balance
	FundingPremium      float64
	UnusedFee           float64
	Margin              float64
	SpreadMultiplier    float64
	OvernightPrior      float64 // prior business day, percent
	ShortTenorPrior     float64 // prior business day, percent
}

// Components are the accrual terms of one row and their sum.
type Components struct {
	CostOfFundsDrawn      float64
	CostOfFundsWALDrawn   float64
	CostOfFundsWALUndrawn float64
	UnusedRevenue         float64
	GrossRate             float64
	GrossRevenue          float64
	PnL                   float64
}

// ComputeComponents evaluates the five accrual terms over the day span.
//
// Every term enters the sum with the same sign. Whether the cost-of-funds
// terms should instead be subtracted is an unsettled accounting question;
// the additive convention stays until it is.
func ComputeComponents(in FormulaInputs) Components {
	span := float64(in.DaySpan)
	var c Components
	c.CostOfFundsDrawn = in.AdvancesOutstanding * in.OvernightPrior * span / overnightDivisor
	c.CostOfFundsWALDrawn = in.WALDrawnBase * span * in.FundingPremium / walDrawnDivisor
	c.CostOfFundsWALUndrawn = in.SpreadMultiplier * in.FundingPremium * span * in.WALUndrawnBase / walUndrawnDivisor
	c.UnusedRevenue = in.UnusedFee * span * in.WALUndrawnBase / daysPerYear
	c.GrossRate = in.ShortTenorPrior/100 + in.Margin
	c.GrossRevenue = c.GrossRate * span * in.WALDrawnBase / daysPerYear
	c.PnL = c.CostOfFundsDrawn + c.CostOfFundsWALUndrawn + c.CostOfFundsWALDrawn + c.UnusedRevenue + c.GrossRevenue
	return c
}
