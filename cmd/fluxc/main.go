package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vito/fluxc/pkg/ioctx"
)

var (
	version = "v0.1.0"
	commit  = "dev"
)

func main() {
	app := &app{}

	ctx := context.Background()
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)
	err := fang.Execute(ctx, app.command(),
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	)
	app.close()
	if err != nil {
		os.Exit(1)
	}
}

// app carries the global flags and the resources set up for the running
// command.
type app struct {
	dir   string
	debug bool

	release func() error
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "fluxc",
		Short: "Flux query language front end",
		Long: `fluxc parses and type checks Flux queries.

It reports syntax and type errors with their location in the source,
prints the inferred type of every binding, and exposes the same analysis
interactively and over JSON-RPC.`,
		Example: `  # Type check a query
  fluxc check query.flux

  # Print the syntax tree of a file
  fluxc parse -f pretty query.flux

  # List the bindings of a standard library package
  fluxc types strings

  # Start an interactive session
  fluxc repl`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "Directory to search for fluxc.toml from")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Enable debug logging")

	root.AddCommand(
		parseCmd(),
		checkCmd(),
		typesCmd(),
		findCmd(),
		replCmd(),
		serveCmd(),
	)
	return root
}

// setup resolves the configuration and logger for the command about to
// run and stores them in its context.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := LoadConfig(a.dir)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}

	log, release, err := newLogger(cfg.Log, ioctx.StderrFromContext(ctx))
	if err != nil {
		return err
	}
	a.release = release
	if cfg.Path != "" {
		log.Debug("loaded config", zap.String("path", cfg.Path))
	}

	ctx = ioctx.LoggerToContext(ctx, log.With(zap.String("command", cmd.Name())))
	cmd.SetContext(configToContext(ctx, cfg))
	return nil
}

func (a *app) close() {
	if a.release != nil {
		_ = a.release()
		a.release = nil
	}
}
