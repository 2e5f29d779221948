package pnl

import "github.com/dgoubkine/pnl/date"

// DaySpans assigns every business day in an ordered sequence the number of
// calendar days its accrual row carries, so that weekends and holidays are
// absorbed by an adjacent business day:
//
//   - on the first business day of a new month, the span reaches back over
//     the whole gap to the previous business day;
//   - otherwise the span reaches forward to the next business day, floored
//     at one, so a Friday before a plain weekend carries three days;
//   - the last day of the sequence carries one day.
//
// Known hazard: when the sequence crosses a month boundary, the last
// business day of the old month claims the gap forward while the first
// business day of the new month claims the same gap backward, so those
// calendar days are counted twice. That is the current production behavior
// and it stays until the accounting treatment is settled.
func DaySpans(days []date.Date) []int {
	spans := make([]int, len(days))
	for i := range days {
		spans[i] = daySpanAt(days, i)
	}
	return spans
}

func daySpanAt(days []date.Date, i int) int {
	cur := days[i]
	if i > 0 && cur.Month() != days[i-1].Month() {
		return cur.DaysSince(days[i-1])
	}
	if i < len(days)-1 {
		return max(days[i+1].DaysSince(cur), 1)
	}
	return 1
}
