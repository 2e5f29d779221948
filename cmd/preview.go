package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/renderer"
)

type previewCmd struct {
	facility string
	start    string
	end      string
	cal      string
}

func (*previewCmd) Name() string     { return "preview" }
func (*previewCmd) Synopsis() string { return "render one facility's accruals without storing" }
func (*previewCmd) Usage() string {
	return `dpnl preview -facility <id> [-start <date>] [-end <date>]

  Accrues a single facility over the period and renders the full report,
  terms and daily rows, without writing anything back.
`
}

func (c *previewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.facility, "facility", "", "the facility to preview (required)")
	f.StringVar(&c.start, "start", "", "first business date (defaults to the closing date)")
	f.StringVar(&c.end, "end", "", "last business date (defaults to today)")
	f.StringVar(&c.cal, "calendar", "", "business-day calendar, NYSE or FRB (defaults to the config, then NYSE)")
}

// facilityDeals narrows a deal source to one facility.
type facilityDeals struct {
	src      pnl.DealSource
	facility string
}

func (s facilityDeals) Deals(ctx context.Context) ([]pnl.DealTerms, error) {
	deals, err := s.src.Deals(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range deals {
		if d.Facility == s.facility {
			return []pnl.DealTerms{d}, nil
		}
	}
	return nil, fmt.Errorf("unknown facility %q", s.facility)
}

func (c *previewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	if c.facility == "" {
		fmt.Fprintln(os.Stderr, "preview needs -facility, list them with: dpnl deals")
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	opts, err := mergeOptions(cfg, c.cal, c.start, c.end, 1, true)
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

	source := facilityDeals{src: st, facility: c.facility}
	result, err := pnl.NewRunner(source, st, st, nil, log).Run(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if len(result.Rows) == 0 {
		fmt.Fprintf(os.Stderr, "no business day for %s over %s\n", c.facility, result.Period)
		return subcommands.ExitFailure
	}

	// Rebuild the deal the way the run saw it for the report head.
	deals, err := source.Deals(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	deal := deals[0]
	if m, ok := opts.Multipliers[deal.Facility]; ok {
		deal.SpreadMultiplier = m
	}
	deal.Derive()

	premium := result.Rows[0].FundingPremium
	vars := pnl.FieldVars(deal, pnl.ResolveBalances(deal), premium)
	fields, err := cfg.ReportFields(c.facility, vars)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.RenderDealDetail(renderer.NewDealDetail(deal, result.Rows, fields)))
	return subcommands.ExitSuccess
}
