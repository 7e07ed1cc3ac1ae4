package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/flux"
	"github.com/vito/fluxc/pkg/ioctx"
	"github.com/vito/fluxc/pkg/parser"
)

func parseCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "parse [flags] path...",
		Short: "Parse Flux files and print the syntax tree",
		Long: `Parse Flux files into one package and print its syntax tree.

Directories are expanded to the .flux files they contain. All files must
declare the same package.`,
		Example: `  # Print the syntax tree as JSON
  fluxc parse query.flux

  # Print it as a Go value
  fluxc parse -f pretty query.flux

  # Write the compact binary form
  fluxc parse -f binary -o query.ast ./queries`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), args, format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, pretty or binary")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func runParse(ctx context.Context, paths []string, format, output string) error {
	pkg, _, err := parseSources(ctx, paths)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "json":
		raw, err := flux.ASTToJSON(pkg)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return errors.Wrap(err, "indenting json")
		}
		buf.WriteByte('\n')
		data = buf.Bytes()
	case "pretty":
		data = []byte(pretty.Sprint(pkg) + "\n")
	case "binary":
		data, err = flux.ASTToBinary(pkg)
		if err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown format %q", format)
	}

	if output != "" {
		return os.WriteFile(output, data, 0644)
	}
	_, err = ioctx.StdoutFromContext(ctx).Write(data)
	return err
}

// readSources reads every file named by paths, expanding directories to
// the .flux files they contain.
func readSources(paths []string) ([]parser.Source, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "accessing %s", path)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading directory %s", path)
		}
		var names []string
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".flux" {
				names = append(names, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(names)
		files = append(files, names...)
	}

	srcs := make([]parser.Source, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", file)
		}
		srcs = append(srcs, parser.Source{Name: file, Data: data})
	}
	return srcs, nil
}

// parseSources parses paths into one package. Syntax errors are written
// to stderr and fail the parse. The returned map holds each file's text
// by name.
func parseSources(ctx context.Context, paths []string) (*ast.Package, map[string]string, error) {
	srcs, err := readSources(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(srcs) == 0 {
		return nil, nil, errors.New("no .flux files found")
	}

	pkg, err := parser.ParseFiles(ctx, srcs)
	if err != nil {
		return nil, nil, err
	}
	ioctx.LoggerFromContext(ctx).Debug("parsed",
		zap.Int("files", len(srcs)),
		zap.String("package", pkg.Package))

	if errs := ast.Errors(pkg); len(errs) > 0 {
		stderr := ioctx.StderrFromContext(ctx)
		for _, e := range errs {
			_, _ = fmt.Fprintf(stderr, "%s: %s\n", e.Loc, e.Msg)
		}
		return nil, nil, errors.Errorf("%d syntax error(s)", len(errs))
	}

	text := make(map[string]string, len(srcs))
	for _, src := range srcs {
		text[src.Name] = string(src.Data)
	}
	return pkg, text, nil
}
