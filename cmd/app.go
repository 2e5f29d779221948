// Package cmd implements the dpnl command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/store"
)

// Commands is the full command set, in help order. The main package
// registers them on its commander.
var Commands = []subcommands.Command{
	&initCmd{},
	&runCmd{},
	&previewCmd{},
	&dealsCmd{},
	&fetchCmd{},
	&topicCmd{},
	&assistCmd{},
}

// The application is short lived, globals are fine for the app-wide flags.

var configPath = flag.String("config", "", "path to the YAML run configuration")
var verbose = flag.Bool("v", false, "enable debug logging")

// newLogger builds the application logger, console-style on stderr.
func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !*verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// loadConfig reads the -config file. No flag means stock defaults.
func loadConfig() (pnl.Config, error) {
	if *configPath == "" {
		return pnl.Config{}, nil
	}
	return pnl.LoadConfig(*configPath)
}

// openStore connects to the database named by DATABASE_URL, which may come
// from the environment or from a .env file in the working directory.
func openStore(ctx context.Context, log *zap.Logger) (*store.Store, error) {
	godotenv.Load() // .env is optional
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set, export it or put it in a .env file")
	}
	return store.Open(ctx, dsn, log)
}

// renderMarkdown renders a markdown document for the terminal, or returns
// it untouched when the renderer cannot be built.
func renderMarkdown(doc string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return doc
	}
	out, err := r.Render(doc)
	if err != nil {
		return doc
	}
	return out
}

func printMarkdown(doc string) {
	fmt.Print(renderMarkdown(doc))
}
