package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dgoubkine/pnl/renderer"
)

type dealsCmd struct{}

func (*dealsCmd) Name() string     { return "deals" }
func (*dealsCmd) Synopsis() string { return "list the facilities on the book" }
func (*dealsCmd) Usage() string {
	return `dpnl deals

  Lists every facility with its latest reported terms.
`
}

func (*dealsCmd) SetFlags(f *flag.FlagSet) {}

func (c *dealsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	st, err := openStore(ctx, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	deals, err := st.Deals(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.DealsMarkdown(deals))
	return subcommands.ExitSuccess
}
