package pnl

import (
	"math"
	"testing"
	"time"

	"github.com/dgoubkine/pnl/date"
)

// testGrid returns a premium grid with distinct, easy to spot rates:
// 0.005 at one year stepping up to 0.014 at ten.
func testGrid() PremiumGrid {
	rates := make(map[int]float64, 10)
	for y := 1; y <= 10; y++ {
		rates[y] = 0.005 + float64(y-1)*0.001
	}
	return PremiumGrid{AsOf: date.New(2025, time.August, 1), Rates: rates}
}

// testDeal returns the reference facility used across the engine tests:
// 12.5M commitment, 8M drawn, one year term, 1.5 year WAL, and a
// minimum-utilization floor low enough to stay inactive.
func testDeal() DealTerms {
	closing := date.New(2025, time.August, 4)
	d := DealTerms{
		Facility:            "G9930",
		Client:              "Harbor Industrial",
		Currency:            "USD",
		ClosingDate:         closing,
		AmendmentDate:       closing,
		RevolvingEndDate:    closing.Add(360),
		MaturityDate:        closing.Add(720),
		Commitment:          12_500_000,
		AdvancesOutstanding: 8_000_000,
		Margin:              0.0425,
		UnusedFee:           0.0025,
		MinUtilization:      0.5,
		SpreadMultiplier:    0.0004,
	}
	d.Derive()
	return d
}

// testRates returns observations for August 1 and the business week of
// August 4 2025, all quoted at 5.25 / 5.00 percent.
func testRates() *RateTable {
	table := &RateTable{}
	for _, day := range []date.Date{
		date.New(2025, time.August, 1),
		date.New(2025, time.August, 4),
		date.New(2025, time.August, 5),
		date.New(2025, time.August, 6),
		date.New(2025, time.August, 7),
		date.New(2025, time.August, 8),
	} {
		table.Add(day, RateObservation{ShortTenor: 5.25, Overnight: 5.00})
	}
	return table
}

// approx fails the test when got strays from want by more than tol.
func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v want %v (tolerance %v)", name, got, want, tol)
	}
}
