package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vito/fluxc/pkg/flux"
	"github.com/vito/fluxc/pkg/ioctx"
	"github.com/vito/fluxc/pkg/semantic"
)

func checkCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [flags] path...",
		Short: "Type check Flux files",
		Long: `Type check Flux files as one package and print the type of every
top-level binding. Type errors are reported against the source.`,
		Example: `  # Check a query
  fluxc check query.flux

  # Print the typed semantic graph
  fluxc check --json ./queries`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the semantic graph as JSON")

	return cmd
}

func runCheck(ctx context.Context, paths []string, asJSON bool) error {
	cfg := configFromContext(ctx)
	lib, err := loadLibrary(cfg.Library)
	if err != nil {
		return err
	}

	pkg, text, err := parseSources(ctx, paths)
	if err != nil {
		return err
	}

	session := flux.NewSession(cfg.Package, flux.WithLibrary(lib))
	sem, err := session.AnalyzeWith(ctx, "", pkg)
	if err != nil {
		reportError(ioctx.StderrFromContext(ctx), err, text)
		return errors.New("type check failed")
	}

	stdout := ioctx.StdoutFromContext(ctx)
	if asJSON {
		raw, err := json.Marshal(sem)
		if err != nil {
			return errors.Wrap(err, "encoding semantic graph")
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return errors.Wrap(err, "indenting json")
		}
		buf.WriteByte('\n')
		_, err = stdout.Write(buf.Bytes())
		return err
	}

	writeBindings(stdout, topLevelBindings(sem))
	return nil
}

// reportError writes err, highlighted against the file it points into
// when that file's text is known.
func reportError(w io.Writer, err error, text map[string]string) {
	var serr *semantic.SourceError
	if errors.As(err, &serr) {
		if src, ok := text[serr.Location.File]; ok {
			_, _ = fmt.Fprintln(w, serr.FormatWithHighlighting(src))
			return
		}
	}
	_, _ = fmt.Fprintln(w, err.Error())
}

type binding struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// topLevelBindings lists what the package's files bind, in source order.
func topLevelBindings(pkg *semantic.Package) []binding {
	var out []binding
	add := func(a *semantic.NativeVariableAssignment, prefix string) {
		if a.Scheme == nil {
			return
		}
		out = append(out, binding{
			Name:     prefix + a.Identifier.Name,
			Type:     a.Scheme.String(),
			Location: a.Location().String(),
		})
	}
	for _, f := range pkg.Files {
		for _, stmt := range f.Body {
			switch s := stmt.(type) {
			case *semantic.NativeVariableAssignment:
				add(s, "")
			case *semantic.OptionStatement:
				if a, ok := s.Assignment.(*semantic.NativeVariableAssignment); ok {
					add(a, "option ")
				}
			case *semantic.BuiltinStatement:
				if s.Scheme != nil {
					out = append(out, binding{
						Name:     "builtin " + s.ID.Name,
						Type:     s.Scheme.String(),
						Location: s.Location().String(),
					})
				}
			}
		}
	}
	return out
}

func writeBindings(w io.Writer, bindings []binding) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type", "Location"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	for _, b := range bindings {
		table.Append([]string{b.Name, b.Type, b.Location})
	}
	table.Render()
}
