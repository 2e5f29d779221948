package pnl

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgoubkine/pnl/calendar"
	"github.com/dgoubkine/pnl/date"
)

// DealSource returns the latest terms per facility.
type DealSource interface {
	Deals(ctx context.Context) ([]DealTerms, error)
}

// PremiumSource returns the funding premium grid effective on or before
// asOf.
type PremiumSource interface {
	PremiumGrid(ctx context.Context, asOf date.Date) (PremiumGrid, error)
}

// RateSource returns the rate observations covering [from, to].
type RateSource interface {
	Rates(ctx context.Context, from, to date.Date) (*RateTable, error)
}

// RowSink persists computed rows. Whether it inserts or upserts is the
// sink's own contract.
type RowSink interface {
	SaveRows(ctx context.Context, rows []Row) error
}

// Options tune one run.
type Options struct {
	Calendar calendar.ID // defaults to NYSE
	Start    date.Date   // zero: each deal starts at its closing date
	End      date.Date   // zero: today
	Workers  int         // parallel deal builds, defaults to 1
	Strict   bool        // abort the run on the first failing deal

	// Multipliers maps facility to its spread multiplier.
	Multipliers map[string]float64
}

// RunResult is the outcome of one run.
type RunResult struct {
	ID     string // fresh per run
	Period date.Range
	Rows   []Row
	Built  int // deals whose series were produced
	Failed []*DealError
}

// Err joins the per-deal failures into one error, or returns nil.
func (r *RunResult) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Runner wires the engine to its sources and sink.
type Runner struct {
	deals    DealSource
	premiums PremiumSource
	rates    RateSource
	sink     RowSink
	log      *zap.Logger
}

// NewRunner returns a Runner. A nil sink makes Run a dry run that only
// computes rows.
func NewRunner(deals DealSource, premiums PremiumSource, rates RateSource, sink RowSink, log *zap.Logger) *Runner {
	return &Runner{deals: deals, premiums: premiums, rates: rates, sink: sink, log: log.Named("run")}
}

// Run builds the accrual series of every deal and hands the concatenated
// rows to the sink.
//
// The shared rate table covers the earliest closing date through the end
// date and is fetched once. Each deal then builds independently; within a
// deal rows ascend by business day, and rows of one deal stay contiguous in
// input order. A failing deal is recorded in RunResult.Failed and the run
// continues, unless Strict is set.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	if opts.Calendar == "" {
		opts.Calendar = calendar.NYSE
	}
	workers := max(opts.Workers, 1)
	end := opts.End
	if end.IsZero() {
		end = date.Today()
	}

	deals, err := r.deals.Deals(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading deals: %w", err)
	}
	result := &RunResult{ID: uuid.NewString()}
	if len(deals) == 0 {
		r.log.Warn("no deals to run", zap.String("run", result.ID))
		return result, nil
	}

	start := opts.Start
	for i := range deals {
		if m, ok := opts.Multipliers[deals[i].Facility]; ok {
			deals[i].SpreadMultiplier = m
		}
		deals[i].Derive()
		if start.IsZero() || deals[i].ClosingDate.Before(start) {
			start = deals[i].ClosingDate
		}
	}
	if !opts.Start.IsZero() {
		start = opts.Start
	}
	result.Period = date.Range{From: start, To: end}
	r.log.Info("run started",
		zap.String("run", result.ID),
		zap.Int("deals", len(deals)),
		zap.Stringer("from", start),
		zap.Stringer("to", end),
		zap.Int("workers", workers))

	table, err := r.rates.Rates(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading rates %s..%s: %w", start, end, err)
	}
	r.log.Debug("rates loaded", zap.Int("days", table.Len()))

	// Premium grids are fetched per deal before fanning out, keyed by the
	// deal's amendment date, so workers only read shared state.
	grids := make([]PremiumGrid, len(deals))
	ready := make([]bool, len(deals))
	for i, d := range deals {
		g, err := r.premiums.PremiumGrid(ctx, d.AmendmentDate)
		if err != nil {
			derr := &DealError{Facility: d.Facility, Err: err}
			if opts.Strict {
				return nil, derr
			}
			result.Failed = append(result.Failed, derr)
			continue
		}
		grids[i] = g
		ready[i] = true
	}

	series := make([][]Row, len(deals))
	var mu sync.Mutex // guards result.Failed
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range deals {
		if !ready[i] {
			continue
		}
		g.Go(func() error {
			from := deals[i].ClosingDate
			if opts.Start.After(from) {
				from = opts.Start
			}
			rows, err := BuildSeries(deals[i], grids[i], table, opts.Calendar, date.Range{From: from, To: end})
			if err != nil {
				derr := &DealError{Facility: deals[i].Facility, Err: err}
				if opts.Strict {
					return derr
				}
				mu.Lock()
				result.Failed = append(result.Failed, derr)
				mu.Unlock()
				return nil
			}
			series[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, rows := range series {
		if rows == nil {
			continue
		}
		result.Built++
		result.Rows = append(result.Rows, rows...)
		r.log.Debug("series built",
			zap.String("facility", deals[i].Facility),
			zap.Int("rows", len(rows)))
	}
	// Failure order is nondeterministic under workers > 1.
	slices.SortFunc(result.Failed, func(a, b *DealError) int {
		return strings.Compare(a.Facility, b.Facility)
	})
	for _, f := range result.Failed {
		r.log.Warn("deal skipped", zap.String("facility", f.Facility), zap.Error(f.Err))
	}

	if r.sink != nil && len(result.Rows) > 0 {
		if err := r.sink.SaveRows(ctx, result.Rows); err != nil {
			return nil, fmt.Errorf("saving %d rows: %w", len(result.Rows), err)
		}
	}
	r.log.Info("run finished",
		zap.String("run", result.ID),
		zap.Int("rows", len(result.Rows)),
		zap.Int("built", result.Built),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}
