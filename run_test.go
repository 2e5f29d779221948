package pnl

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgoubkine/pnl/date"
)

type dealsFunc func(context.Context) ([]DealTerms, error)

func (f dealsFunc) Deals(ctx context.Context) ([]DealTerms, error) { return f(ctx) }

type premiumFunc func(context.Context, date.Date) (PremiumGrid, error)

func (f premiumFunc) PremiumGrid(ctx context.Context, asOf date.Date) (PremiumGrid, error) {
	return f(ctx, asOf)
}

type ratesFunc func(context.Context, date.Date, date.Date) (*RateTable, error)

func (f ratesFunc) Rates(ctx context.Context, from, to date.Date) (*RateTable, error) {
	return f(ctx, from, to)
}

type sinkFunc func(context.Context, []Row) error

func (f sinkFunc) SaveRows(ctx context.Context, rows []Row) error { return f(ctx, rows) }

func staticDeals(deals ...DealTerms) DealSource {
	return dealsFunc(func(context.Context) ([]DealTerms, error) { return deals, nil })
}

func staticPremiums(grid PremiumGrid) PremiumSource {
	return premiumFunc(func(context.Context, date.Date) (PremiumGrid, error) { return grid, nil })
}

func staticRates(table *RateTable) RateSource {
	return ratesFunc(func(context.Context, date.Date, date.Date) (*RateTable, error) { return table, nil })
}

// secondDeal closes two days after the reference facility and carries a
// premium override, so its rows must ignore the grid.
func secondDeal() DealTerms {
	closing := date.New(2025, time.August, 6)
	override := 0.011
	return DealTerms{
		Facility:            "G7182",
		Client:              "Meridian Freight",
		Currency:            "USD",
		ClosingDate:         closing,
		AmendmentDate:       closing,
		RevolvingEndDate:    closing.Add(360),
		MaturityDate:        closing.Add(1080),
		Commitment:          10_000_000,
		AdvancesOutstanding: 7_500_000,
		Margin:              0.0375,
		UnusedFee:           0.002,
		PremiumOverride:     &override,
		SpreadMultiplier:    0.0005,
	}
}

func thirdDeal() DealTerms {
	closing := date.New(2025, time.August, 5)
	return DealTerms{
		Facility:            "G5501",
		Client:              "Atlas Marine",
		Currency:            "USD",
		ClosingDate:         closing,
		AmendmentDate:       closing,
		RevolvingEndDate:    closing.Add(720),
		MaturityDate:        closing.Add(1440),
		Commitment:          6_000_000,
		AdvancesOutstanding: 2_000_000,
		Margin:              0.0500,
		UnusedFee:           0.0030,
		MinUtilization:      0.25,
		SpreadMultiplier:    0.0006,
	}
}

func TestRunnerRun(t *testing.T) {
	var gotFrom, gotTo date.Date
	rates := ratesFunc(func(_ context.Context, from, to date.Date) (*RateTable, error) {
		gotFrom, gotTo = from, to
		return testRates(), nil
	})
	var saved []Row
	sink := sinkFunc(func(_ context.Context, rows []Row) error {
		saved = append([]Row(nil), rows...)
		return nil
	})

	r := NewRunner(staticDeals(testDeal(), secondDeal()), staticPremiums(testGrid()), rates, sink, zap.NewNop())
	result, err := r.Run(context.Background(), Options{End: date.New(2025, time.August, 8)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ID == "" {
		t.Errorf("Run() assigned no run id")
	}
	if result.Err() != nil || len(result.Failed) != 0 {
		t.Fatalf("Run() failed deals = %v", result.Err())
	}
	if result.Built != 2 {
		t.Errorf("Built = %d want 2", result.Built)
	}

	want := date.Range{From: date.New(2025, time.August, 4), To: date.New(2025, time.August, 8)}
	if result.Period != want {
		t.Errorf("Period = %v want %v", result.Period, want)
	}
	if gotFrom != want.From || gotTo != want.To {
		t.Errorf("rates fetched for %s..%s want %v", gotFrom, gotTo, want)
	}

	// Rows stay contiguous per deal, in input order: the reference facility
	// covers the full week, the later closer only its own days.
	if len(result.Rows) != 8 {
		t.Fatalf("len(Rows) = %d want 8", len(result.Rows))
	}
	for i, row := range result.Rows {
		facility := "G9930"
		if i >= 5 {
			facility = "G7182"
		}
		if row.Facility != facility {
			t.Errorf("row %d facility = %s want %s", i, row.Facility, facility)
		}
	}
	if first := result.Rows[5].BusinessDate; first != date.New(2025, time.August, 6) {
		t.Errorf("first G7182 row = %v want closing date", first)
	}
	for _, row := range result.Rows[5:] {
		if row.FundingPremium != 0.011 {
			t.Errorf("G7182 FundingPremium = %v want the 0.011 override", row.FundingPremium)
		}
	}

	if !reflect.DeepEqual(saved, result.Rows) {
		t.Errorf("sink received %d rows, result holds %d; contents differ", len(saved), len(result.Rows))
	}
}

func TestRunnerRunMultipliers(t *testing.T) {
	base := Options{End: date.New(2025, time.August, 8)}

	// The facility is present in the map: the configured value wins.
	r := NewRunner(staticDeals(testDeal()), staticPremiums(testGrid()), staticRates(testRates()), nil, zap.NewNop())
	opts := base
	opts.Multipliers = map[string]float64{"G9930": 0.0008}
	result, err := r.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	approx(t, "CostOfFundsWALUndrawn (configured)", result.Rows[0].CostOfFundsWALUndrawn, 0.0000493, 1e-7)

	// The facility is absent: the multiplier carried by the deal survives.
	opts = base
	opts.Multipliers = map[string]float64{"OTHER": 0.0008}
	result, err = r.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	approx(t, "CostOfFundsWALUndrawn (deal's own)", result.Rows[0].CostOfFundsWALUndrawn, 0.0000247, 1e-7)
}

func TestRunnerRunStartOverride(t *testing.T) {
	r := NewRunner(staticDeals(testDeal()), staticPremiums(testGrid()), staticRates(testRates()), nil, zap.NewNop())
	result, err := r.Run(context.Background(), Options{
		Start: date.New(2025, time.August, 6),
		End:   date.New(2025, time.August, 8),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("len(Rows) = %d want 3", len(result.Rows))
	}
	if first := result.Rows[0].BusinessDate; first != date.New(2025, time.August, 6) {
		t.Errorf("first row = %v want the start override", first)
	}
	if result.Period.From != date.New(2025, time.August, 6) {
		t.Errorf("Period.From = %v want the start override", result.Period.From)
	}
}

func TestRunnerRunIsolation(t *testing.T) {
	end := date.New(2025, time.August, 8)

	t.Run("premium grid failure", func(t *testing.T) {
		premiums := premiumFunc(func(_ context.Context, asOf date.Date) (PremiumGrid, error) {
			if asOf == date.New(2025, time.August, 4) {
				return PremiumGrid{}, &NoPremiumGridError{AsOf: asOf}
			}
			return testGrid(), nil
		})
		r := NewRunner(staticDeals(testDeal(), secondDeal()), premiums, staticRates(testRates()), nil, zap.NewNop())
		result, err := r.Run(context.Background(), Options{End: end})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Built != 1 || len(result.Failed) != 1 {
			t.Fatalf("Built = %d Failed = %d, want 1 and 1", result.Built, len(result.Failed))
		}
		if result.Failed[0].Facility != "G9930" {
			t.Errorf("failed facility = %s want G9930", result.Failed[0].Facility)
		}
		var noGrid *NoPremiumGridError
		if !errors.As(result.Err(), &noGrid) {
			t.Errorf("Err() = %v, want to unwrap to *NoPremiumGridError", result.Err())
		}
		for _, row := range result.Rows {
			if row.Facility != "G7182" {
				t.Errorf("row for %s present, want only the surviving deal", row.Facility)
			}
		}
	})

	t.Run("series build failure", func(t *testing.T) {
		// Observations begin August 5: the August 4 closer cannot build,
		// the August 6 closer can.
		table := &RateTable{}
		for d := 5; d <= 8; d++ {
			table.Add(date.New(2025, time.August, d), RateObservation{ShortTenor: 5.25, Overnight: 5.00})
		}
		r := NewRunner(staticDeals(testDeal(), secondDeal()), staticPremiums(testGrid()), staticRates(table), nil, zap.NewNop())
		result, err := r.Run(context.Background(), Options{End: end})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Built != 1 || len(result.Failed) != 1 {
			t.Fatalf("Built = %d Failed = %d, want 1 and 1", result.Built, len(result.Failed))
		}
		var noRate *NoRateError
		if !errors.As(result.Err(), &noRate) {
			t.Errorf("Err() = %v, want to unwrap to *NoRateError", result.Err())
		}
		if len(result.Rows) != 3 {
			t.Errorf("len(Rows) = %d want the surviving deal's 3", len(result.Rows))
		}
	})
}

func TestRunnerRunStrict(t *testing.T) {
	end := date.New(2025, time.August, 8)

	t.Run("premium grid failure", func(t *testing.T) {
		premiums := premiumFunc(func(_ context.Context, asOf date.Date) (PremiumGrid, error) {
			return PremiumGrid{}, &NoPremiumGridError{AsOf: asOf}
		})
		r := NewRunner(staticDeals(testDeal()), premiums, staticRates(testRates()), nil, zap.NewNop())
		_, err := r.Run(context.Background(), Options{End: end, Strict: true})
		var derr *DealError
		if !errors.As(err, &derr) {
			t.Fatalf("Run() error = %v, want *DealError", err)
		}
		if derr.Facility != "G9930" {
			t.Errorf("DealError.Facility = %s want G9930", derr.Facility)
		}
	})

	t.Run("series build failure", func(t *testing.T) {
		table := &RateTable{}
		table.Add(date.New(2025, time.August, 20), RateObservation{ShortTenor: 5.25, Overnight: 5.00})
		r := NewRunner(staticDeals(testDeal()), staticPremiums(testGrid()), staticRates(table), nil, zap.NewNop())
		_, err := r.Run(context.Background(), Options{End: end, Strict: true})
		var derr *DealError
		if !errors.As(err, &derr) {
			t.Fatalf("Run() error = %v, want *DealError", err)
		}
	})
}

func TestRunnerRunNoDeals(t *testing.T) {
	sinkCalled := false
	sink := sinkFunc(func(context.Context, []Row) error {
		sinkCalled = true
		return nil
	})
	r := NewRunner(staticDeals(), staticPremiums(testGrid()), staticRates(testRates()), sink, zap.NewNop())
	result, err := r.Run(context.Background(), Options{End: date.New(2025, time.August, 8)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ID == "" || len(result.Rows) != 0 {
		t.Errorf("empty run: ID = %q rows = %d", result.ID, len(result.Rows))
	}
	if sinkCalled {
		t.Errorf("sink called on an empty run")
	}
}

func TestRunnerRunSinkError(t *testing.T) {
	errDown := errors.New("sink down")
	sink := sinkFunc(func(context.Context, []Row) error { return errDown })
	r := NewRunner(staticDeals(testDeal()), staticPremiums(testGrid()), staticRates(testRates()), sink, zap.NewNop())
	_, err := r.Run(context.Background(), Options{End: date.New(2025, time.August, 8)})
	if !errors.Is(err, errDown) {
		t.Errorf("Run() error = %v, want to wrap the sink error", err)
	}
}

func TestRunnerRunWorkers(t *testing.T) {
	deals := []DealTerms{testDeal(), secondDeal(), thirdDeal()}
	end := date.New(2025, time.August, 8)

	runWith := func(workers int) []Row {
		t.Helper()
		r := NewRunner(staticDeals(deals...), staticPremiums(testGrid()), staticRates(testRates()), nil, zap.NewNop())
		result, err := r.Run(context.Background(), Options{End: end, Workers: workers})
		if err != nil {
			t.Fatalf("Run(workers=%d) error = %v", workers, err)
		}
		return result.Rows
	}

	serial := runWith(1)
	parallel := runWith(4)
	if len(serial) != 5+3+4 {
		t.Fatalf("len(rows) = %d want 12", len(serial))
	}
	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("parallel run produced different rows than the serial run")
	}
}
