package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/dgoubkine/pnl/cmd"
	"github.com/dgoubkine/pnl/docs"
)

// completion is the command tree for shell completion. Install the hook
// with: COMP_INSTALL=1 dpnl
func completion() *complete.Command {
	calendars := predict.Set{"NYSE", "FRB"}

	topics, _ := docs.GetAllTopics()
	topics = append(topics, "readme", "*")

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"v":      predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"init": {},
			"run": {Flags: map[string]complete.Predictor{
				"start":    predict.Nothing,
				"end":      predict.Nothing,
				"calendar": calendars,
				"workers":  predict.Something,
				"strict":   predict.Nothing,
				"dry":      predict.Nothing,
			}},
			"preview": {Flags: map[string]complete.Predictor{
				"facility": predict.Something,
				"start":    predict.Nothing,
				"end":      predict.Nothing,
				"calendar": calendars,
			}},
			"deals": {},
			"fetch": {Flags: map[string]complete.Predictor{
				"from": predict.Nothing,
				"to":   predict.Nothing,
			}},
			"topic":  {Args: predict.Set(topics)},
			"assist": {},
		},
	}
}

func main() {
	completion().Complete("dpnl")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
