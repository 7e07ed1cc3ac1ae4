package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vito/fluxc/pkg/flux"
	"github.com/vito/fluxc/pkg/ioctx"
)

func typesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "types [flags] [package]",
		Short: "Show the type environment of the library",
		Long: `Without arguments, list the packages of the library. With a package
path, list its bindings and their types.`,
		Example: `  # List packages
  fluxc types

  # Show the prelude
  fluxc types universe

  # Dump the whole environment
  fluxc types --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runTypes(cmd.Context(), path, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print every package's bindings as JSON")

	return cmd
}

func runTypes(ctx context.Context, path string, asJSON bool) error {
	cfg := configFromContext(ctx)
	stdout := ioctx.StdoutFromContext(ctx)

	if asJSON && cfg.Library == "" {
		_, err := fmt.Fprintf(stdout, "%s\n", flux.LoadStdlibTypeEnvironment())
		return err
	}
	lib, err := loadLibrary(cfg.Library)
	if err != nil {
		return err
	}
	if asJSON {
		data, err := lib.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%s\n", data)
		return err
	}

	table := tablewriter.NewWriter(stdout)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	if path == "" {
		table.SetHeader([]string{"Package", "Bindings"})
		for _, p := range lib.Paths() {
			table.Append([]string{p, strconv.Itoa(len(lib.Bindings(p)))})
		}
		table.Render()
		return nil
	}

	if _, ok := lib.Import(path); !ok {
		return errors.Errorf("package %q not found", path)
	}
	table.SetHeader([]string{"Name", "Type"})
	for _, b := range lib.Bindings(path) {
		table.Append([]string{b.Name, b.Scheme.String()})
	}
	table.Render()
	return nil
}
