package pnl

import "github.com/dgoubkine/pnl/date"

// Tenor bounds of the funding premium grid.
const (
	minTenorYears = 1
	maxTenorYears = 10
)

// PremiumGrid is a snapshot of the funding premium by whole tenor year,
// one through ten, effective as of a business date. It is read-only for the
// duration of a run.
type PremiumGrid struct {
	AsOf  date.Date
	Rates map[int]float64
}

// ByYear returns the premium for a tenor, clamped into [1, 10] years.
func (g PremiumGrid) ByYear(years int) float64 {
	return g.Rates[clampTenor(years)]
}

func clampTenor(years int) int {
	return min(max(years, minTenorYears), maxTenorYears)
}
