package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dgoubkine/pnl/date"
	"github.com/dgoubkine/pnl/sofr"
)

type fetchCmd struct {
	from string
	to   string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "pull SOFR observations from the NY Fed into the store" }
func (*fetchCmd) Usage() string {
	return `dpnl fetch [-from <date>] [-to <date>]

  Fetches the overnight SOFR and its 30-day average from the NY Fed over
  the period and upserts them, so overlapping fetches converge. Accrual
  needs the observations of the prior business day too, fetch a little
  wider than the run.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "first date (defaults to 30 days before -to)")
	f.StringVar(&c.to, "to", "", "last date (defaults to today)")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	to := date.Today()
	if c.to != "" {
		var err error
		if to, err = date.Parse(c.to); err != nil {
			fmt.Fprintf(os.Stderr, "parsing -to: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	from := to.Add(-30)
	if c.from != "" {
		var err error
		if from, err = date.Parse(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "parsing -from: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	table, err := sofr.NewClient(log).Fetch(from, to)
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

	if err := st.UpsertRates(ctx, table); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Stored %d observation days over %s..%s\n", table.Len(), from, to)
	return subcommands.ExitSuccess
}
