package pnl

// Balances is a deal's resolved position for accrual purposes.
type Balances struct {
	Drawn      float64
	Unused     float64
	MinApplied bool // the minimum-utilization floor raised the drawn balance
}

// ResolveBalances applies the minimum-utilization floor: when the derived
// minimum amount exceeds actual advances, the deal accrues as if drawn at
// the minimum. Unused capacity never goes negative.
func ResolveBalances(d DealTerms) Balances {
	if d.MinUtilizationAmount > d.AdvancesOutstanding {
		return Balances{
			Drawn:      d.MinUtilizationAmount,
			Unused:     max(d.Commitment-d.MinUtilizationAmount, 0),
			MinApplied: true,
		}
	}
	return Balances{
		Drawn:  d.AdvancesOutstanding,
		Unused: max(d.Commitment-d.AdvancesOutstanding, 0),
	}
}
