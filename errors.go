package pnl

import (
	"fmt"

	"github.com/dgoubkine/pnl/date"
)

// NoRateError reports a rate lookup that found no observation on or before
// the requested day.
type NoRateError struct{ Day date.Date }

func (e *NoRateError) Error() string {
	return fmt.Sprintf("no rate observation on or before %s", e.Day)
}

// NoPremiumGridError reports that no funding premium grid is effective on or
// before the as-of day.
type NoPremiumGridError struct{ AsOf date.Date }

func (e *NoPremiumGridError) Error() string {
	return fmt.Sprintf("no funding premium grid on or before %s", e.AsOf)
}

// DealError labels a failure with the facility whose series could not be
// built.
type DealError struct {
	Facility string
	Err      error
}

func (e *DealError) Error() string { return fmt.Sprintf("deal %s: %v", e.Facility, e.Err) }

func (e *DealError) Unwrap() error { return e.Err }
