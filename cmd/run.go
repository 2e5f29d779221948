package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/calendar"
	"github.com/dgoubkine/pnl/date"
	"github.com/dgoubkine/pnl/renderer"
)

type runCmd struct {
	start   string
	end     string
	cal     string
	workers int
	strict  bool
	dry     bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "accrue the book and store the daily rows" }
func (*runCmd) Usage() string {
	return `dpnl run [-start <date>] [-end <date>] [-workers <n>] [-strict] [-dry]

  Accrues every facility of the book over the period and upserts the daily
  rows, so re-running a period converges. Prints the run summary report.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "first business date (defaults to each facility's closing date)")
	f.StringVar(&c.end, "end", "", "last business date (defaults to today)")
	f.StringVar(&c.cal, "calendar", "", "business-day calendar, NYSE or FRB (defaults to the config, then NYSE)")
	f.IntVar(&c.workers, "workers", 0, "parallel facility builds (defaults to the config, then 1)")
	f.BoolVar(&c.strict, "strict", false, "abort the run on the first failing facility")
	f.BoolVar(&c.dry, "dry", false, "compute the rows without storing them")
}

func (c *runCmd) options(cfg pnl.Config) (pnl.Options, error) {
	return mergeOptions(cfg, c.cal, c.start, c.end, c.workers, c.strict)
}

// mergeOptions merges the configuration file and the command line. The
// command line wins, except strict which is on when either asks.
func mergeOptions(cfg pnl.Config, cal, start, end string, workers int, strict bool) (pnl.Options, error) {
	var opts pnl.Options

	name := cal
	if name == "" {
		name = cfg.Calendar
	}
	if name != "" {
		id, err := calendar.Parse(name)
		if err != nil {
			return opts, err
		}
		opts.Calendar = id
	}

	opts.Workers = workers
	if opts.Workers == 0 {
		opts.Workers = cfg.Workers
	}
	opts.Strict = strict || cfg.Strict

	if start != "" {
		day, err := date.Parse(start)
		if err != nil {
			return opts, fmt.Errorf("parsing -start: %w", err)
		}
		opts.Start = day
	}
	if end != "" {
		day, err := date.Parse(end)
		if err != nil {
			return opts, fmt.Errorf("parsing -end: %w", err)
		}
		opts.End = day
	}

	var err error
	opts.Multipliers, err = cfg.Multipliers()
	if err != nil {
		return opts, err
	}
	return opts, nil
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	opts, err := c.options(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	st, err := openStore(ctx, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	var sink pnl.RowSink = st
	if c.dry {
		sink = nil
	}

	result, err := pnl.NewRunner(st, st, st, sink, log).Run(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.RunMarkdown(renderer.NewRunSummary(result)))

	// Skipped deals are in the report, but scripts still deserve the exit code.
	if result.Err() != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
