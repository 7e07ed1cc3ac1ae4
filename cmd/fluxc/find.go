package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vito/fluxc/pkg/flux"
	"github.com/vito/fluxc/pkg/ioctx"
)

func findCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "find [flags] name path...",
		Short: "Infer the type a program requires of a variable",
		Long: `Analyze Flux files and print the type of name: the type of its
top-level binding if the files define it, otherwise the type its uses
require of it.`,
		Example: `  # What must "v" be for this query to type check?
  fluxc find v query.flux`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd.Context(), args[0], args[1:], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the type as JSON")

	return cmd
}

func runFind(ctx context.Context, name string, paths []string, asJSON bool) error {
	pkg, text, err := parseSources(ctx, paths)
	if err != nil {
		return err
	}
	stdout := ioctx.StdoutFromContext(ctx)

	if asJSON {
		data, err := flux.FindVariableTypeJSON(ctx, pkg, name)
		if err != nil {
			reportError(ioctx.StderrFromContext(ctx), err, text)
			return fmt.Errorf("finding type of %s: analysis failed", name)
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	t, err := flux.FindVariableType(ctx, pkg, name)
	if err != nil {
		reportError(ioctx.StderrFromContext(ctx), err, text)
		return fmt.Errorf("finding type of %s: analysis failed", name)
	}
	_, err = fmt.Fprintf(stdout, "%s : %s\n", name, t)
	return err
}
