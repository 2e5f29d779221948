package pnl

import (
	"fmt"
	"time"

	"github.com/dgoubkine/pnl/date"
)

// FiscalYear returns the reporting-year label for a day. The fiscal year
// rolls over on November 1, so November and December already carry the next
// year's label.
func FiscalYear(day date.Date) string {
	year := day.Year()
	if day.Month() >= time.November {
		year++
	}
	return fmt.Sprintf("FY%d", year)
}
