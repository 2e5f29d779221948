package calendar

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/dgoubkine/pnl/date"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{in: "NYSE", want: NYSE},
		{in: "nyse", want: NYSE},
		{in: "frb", want: FederalReserve},
		{in: "fed", want: FederalReserve},
		{in: "LSE", wantErr: true},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("Parse(%q) = %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsBusinessDay(t *testing.T) {
	tests := []struct {
		name string
		cal  ID
		day  date.Date
		want bool
	}{
		{name: "plain friday", cal: NYSE, day: date.New(2025, time.August, 29), want: true},
		{name: "saturday", cal: NYSE, day: date.New(2025, time.August, 30), want: false},
		{name: "sunday", cal: NYSE, day: date.New(2025, time.August, 31), want: false},
		{name: "independence day", cal: NYSE, day: date.New(2025, time.July, 4), want: false},
		{name: "labor day", cal: NYSE, day: date.New(2025, time.September, 1), want: false},
		{name: "good friday closes the exchange", cal: NYSE, day: date.New(2025, time.April, 18), want: false},
		{name: "good friday is a fed working day", cal: FederalReserve, day: date.New(2025, time.April, 18), want: true},
		{name: "columbus day keeps the exchange open", cal: NYSE, day: date.New(2025, time.October, 13), want: true},
		{name: "columbus day closes the fed", cal: FederalReserve, day: date.New(2025, time.October, 13), want: false},
		{name: "veterans day closes the fed", cal: FederalReserve, day: date.New(2025, time.November, 11), want: false},
		{name: "thanksgiving", cal: NYSE, day: date.New(2025, time.November, 27), want: false},
		{name: "christmas", cal: NYSE, day: date.New(2025, time.December, 25), want: false},
		{name: "juneteenth", cal: NYSE, day: date.New(2025, time.June, 19), want: false},
		{name: "mlk day", cal: NYSE, day: date.New(2025, time.January, 20), want: false},
		{name: "washington birthday", cal: NYSE, day: date.New(2025, time.February, 17), want: false},
		{name: "memorial day", cal: NYSE, day: date.New(2025, time.May, 26), want: false},

		// Saturday July 4 2026: the exchange closes the Friday before, the
		// Fed stays open.
		{name: "saturday fourth shifts for nyse", cal: NYSE, day: date.New(2026, time.July, 3), want: false},
		{name: "saturday fourth does not shift for fed", cal: FederalReserve, day: date.New(2026, time.July, 3), want: true},

		// Sunday January 1 2023 is observed the Monday after on both.
		{name: "sunday new year nyse", cal: NYSE, day: date.New(2023, time.January, 2), want: false},
		{name: "sunday new year fed", cal: FederalReserve, day: date.New(2023, time.January, 2), want: false},

		// Saturday January 1 2022: no NYSE observance, December 31 2021 trades.
		{name: "no new year observance across year end", cal: NYSE, day: date.New(2021, time.December, 31), want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsBusinessDay(tc.cal, tc.day); got != tc.want {
				t.Errorf("IsBusinessDay(%v, %v) = %v want %v", tc.cal, tc.day, got, tc.want)
			}
		})
	}
}

func TestBusinessDays(t *testing.T) {
	// Thursday August 28 2025 through Tuesday September 2 2025: the weekend
	// and Labor Day drop out.
	got, err := BusinessDays(NYSE, date.New(2025, time.August, 28), date.New(2025, time.September, 2))
	if err != nil {
		t.Fatalf("BusinessDays() error = %v", err)
	}
	want := []date.Date{
		date.New(2025, time.August, 28),
		date.New(2025, time.August, 29),
		date.New(2025, time.September, 2),
	}
	if !slices.Equal(got, want) {
		t.Errorf("BusinessDays() = %v want %v", got, want)
	}

	// Strictly ascending.
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Errorf("BusinessDays() not strictly ascending at %d: %v then %v", i, got[i-1], got[i])
		}
	}

	// Restartable: a second walk yields the identical sequence.
	again, err := BusinessDays(NYSE, date.New(2025, time.August, 28), date.New(2025, time.September, 2))
	if err != nil {
		t.Fatalf("BusinessDays() second call error = %v", err)
	}
	if !slices.Equal(got, again) {
		t.Errorf("BusinessDays() not restartable: %v then %v", got, again)
	}
}

func TestBusinessDaysEmptyRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to date.Date
	}{
		{name: "inverted range", from: date.New(2025, time.August, 29), to: date.New(2025, time.August, 28)},
		{name: "weekend only", from: date.New(2025, time.August, 30), to: date.New(2025, time.August, 31)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BusinessDays(NYSE, tc.from, tc.to)
			var empty *EmptyRangeError
			if !errors.As(err, &empty) {
				t.Fatalf("BusinessDays() error = %v, want *EmptyRangeError", err)
			}
			if empty.From != tc.from || empty.To != tc.to {
				t.Errorf("EmptyRangeError range = %v..%v want %v..%v", empty.From, empty.To, tc.from, tc.to)
			}
		})
	}
}

func TestEaster(t *testing.T) {
	tests := []struct {
		year int
		want date.Date
	}{
		{2024, date.New(2024, time.March, 31)},
		{2025, date.New(2025, time.April, 20)},
		{2026, date.New(2026, time.April, 5)},
	}
	for _, tc := range tests {
		if got := easter(tc.year); got != tc.want {
			t.Errorf("easter(%d) = %v want %v", tc.year, got, tc.want)
		}
	}
}
