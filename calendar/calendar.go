// Package calendar provides market holiday calendars and business-day
// sequences over them.
//
// Holidays are computed from the published closing rules rather than kept as
// hardcoded date lists, so any year works.
package calendar

import (
	"fmt"
	"time"

	"github.com/dgoubkine/pnl/date"
)

// ID names a supported holiday calendar.
type ID string

const (
	// NYSE follows the New York Stock Exchange full closings.
	NYSE ID = "NYSE"
	// FederalReserve follows the Federal Reserve Bank holiday schedule.
	FederalReserve ID = "FRB"
)

// Parse returns the calendar ID for a user supplied name.
func Parse(name string) (ID, error) {
	switch name {
	case "NYSE", "nyse":
		return NYSE, nil
	case "FRB", "frb", "fed", "FederalReserve":
		return FederalReserve, nil
	}
	return "", fmt.Errorf("unknown calendar %q want %q or %q", name, NYSE, FederalReserve)
}

// EmptyRangeError reports a walk that produced no business day.
type EmptyRangeError struct {
	Cal      ID
	From, To date.Date
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("no %s business day between %s and %s", e.Cal, e.From, e.To)
}

// IsBusinessDay reports whether day is a working day on the calendar:
// not a weekend and not an observed holiday.
func IsBusinessDay(cal ID, day date.Date) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	for _, h := range holidays(cal, day.Year()) {
		if h == day {
			return false
		}
	}
	return true
}

// BusinessDays returns every business day in [from, to], both bounds
// included, in strictly ascending order. It returns an *EmptyRangeError when
// the walk yields nothing, so callers never have to guess about an empty
// slice.
func BusinessDays(cal ID, from, to date.Date) ([]date.Date, error) {
	if to.Before(from) {
		return nil, &EmptyRangeError{Cal: cal, From: from, To: to}
	}
	var days []date.Date
	for day := from; !day.After(to); day = day.Add(1) {
		if IsBusinessDay(cal, day) {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, &EmptyRangeError{Cal: cal, From: from, To: to}
	}
	return days, nil
}

// holidays returns the observed holidays of one calendar year.
func holidays(cal ID, year int) []date.Date {
	switch cal {
	case FederalReserve:
		return federalHolidays(year)
	default:
		return nyseHolidays(year)
	}
}

func nyseHolidays(year int) []date.Date {
	hs := make([]date.Date, 0, 10)

	// New Year's Day. When January 1 falls on a Saturday the exchange stays
	// open on the preceding December 31, so that year has no observance.
	switch d := date.New(year, time.January, 1); d.Weekday() {
	case time.Saturday:
	case time.Sunday:
		hs = append(hs, d.Add(1))
	default:
		hs = append(hs, d)
	}

	hs = append(hs,
		nthWeekday(year, time.January, time.Monday, 3),  // Martin Luther King Jr. Day
		nthWeekday(year, time.February, time.Monday, 3), // Washington's Birthday
		easter(year).Add(-2),                            // Good Friday
		lastWeekday(year, time.May, time.Monday),        // Memorial Day
	)
	if year >= 2022 {
		hs = append(hs, observed(date.New(year, time.June, 19))) // Juneteenth
	}
	hs = append(hs,
		observed(date.New(year, time.July, 4)),            // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving Day
		observed(date.New(year, time.December, 25)),       // Christmas Day
	)
	return hs
}

func federalHolidays(year int) []date.Date {
	hs := make([]date.Date, 0, 11)
	hs = append(hs,
		sundayToMonday(date.New(year, time.January, 1)),
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		lastWeekday(year, time.May, time.Monday),
	)
	if year >= 2021 {
		hs = append(hs, sundayToMonday(date.New(year, time.June, 19)))
	}
	hs = append(hs,
		sundayToMonday(date.New(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.October, time.Monday, 2),     // Columbus Day
		sundayToMonday(date.New(year, time.November, 11)),  // Veterans Day
		nthWeekday(year, time.November, time.Thursday, 4),
		sundayToMonday(date.New(year, time.December, 25)),
	)
	return hs
}

// observed applies the exchange weekend shift: Saturday holidays close the
// Friday before, Sunday holidays close the Monday after.
func observed(d date.Date) date.Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.Add(-1)
	case time.Sunday:
		return d.Add(1)
	}
	return d
}

// sundayToMonday applies the Federal Reserve shift: Sunday holidays are
// observed the Monday after, Saturday holidays are not moved (offices open
// the Friday before).
func sundayToMonday(d date.Date) date.Date {
	if d.Weekday() == time.Sunday {
		return d.Add(1)
	}
	return d
}

// nthWeekday returns the n-th given weekday of a month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) date.Date {
	first := date.New(year, month, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.Add(offset + (n-1)*7)
}

// lastWeekday returns the last given weekday of a month.
func lastWeekday(year int, month time.Month, wd time.Weekday) date.Date {
	last := date.New(year, month+1, 1).Add(-1)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.Add(-offset)
}

// easter computes Gregorian Easter Sunday (Meeus/Jones/Butcher algorithm).
func easter(year int) date.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date.New(year, time.Month(month), day)
}
