// Package pnl accrues daily profit and loss for a book of revolving credit
// facilities.
//
// The engine walks the business days of a period on a holiday calendar,
// prices each facility against the funding curve of the day, and produces
// one Row per facility per business day. A Row carries the resolved
// balances, the rates it was priced on, the fiscal year label and the five
// accrual terms summed into the day's PnL.
//
// The core pieces:
//   - DealTerms: the latest reported terms of one facility. Derive computes
//     the figures the formula needs, term years, weighted average life and
//     the minimum utilization floor.
//   - PremiumGrid: funding premium per tenor year as of a business date.
//     SelectPremium resolves a deal's premium, an explicit override winning
//     over the tenor lookup.
//   - RateTable: dated SOFR observations with exact-or-prior lookup.
//   - BuildSeries: one deal's accrual rows over a period.
//   - Runner: a whole run, every deal built over a worker pool and the
//     concatenated rows handed to a RowSink.
//
// Sources and sinks are interfaces. The store package implements them over
// PostgreSQL, the sofr package feeds the rate table from the NY Fed, and
// the cmd package ties everything into the dpnl command line tool.
package pnl
