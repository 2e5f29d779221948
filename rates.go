package pnl

import (
	"iter"

	"github.com/dgoubkine/pnl/date"
)

// RateObservation is one day's pair of reference-rate quotes, both in
// percent units as published.
type RateObservation struct {
	ShortTenor float64 // 30-day average SOFR
	Overnight  float64 // overnight SOFR
}

// RateTable is a date-keyed table of rate observations. It is loaded once
// per run and shared read-only across every deal.
type RateTable struct {
	obs date.History[RateObservation]
}

// Add records the observation for a day, overwriting any previous one.
func (t *RateTable) Add(on date.Date, o RateObservation) { t.obs.Append(on, o) }

// On returns the observation for a day, falling back to the latest
// observation strictly before it. It returns a *NoRateError when nothing is
// available on or before day.
func (t *RateTable) On(day date.Date) (RateObservation, error) {
	o, ok := t.obs.ValueAsOf(day)
	if !ok {
		return RateObservation{}, &NoRateError{Day: day}
	}
	return o, nil
}

// Len returns the number of observed days.
func (t *RateTable) Len() int { return t.obs.Len() }

// Latest returns the most recent observed day and its observation.
func (t *RateTable) Latest() (date.Date, RateObservation) { return t.obs.Latest() }

// Values iterates the observed days in chronological order.
func (t *RateTable) Values() iter.Seq2[date.Date, RateObservation] { return t.obs.Values() }
