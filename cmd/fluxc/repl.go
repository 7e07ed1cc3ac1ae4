package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/vito/fluxc/pkg/flux"
	"github.com/vito/fluxc/pkg/hm"
	"github.com/vito/fluxc/pkg/ioctx"
	"github.com/vito/fluxc/pkg/semantic"
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Type check Flux interactively",
		Long: `Start an interactive session. Each input is analyzed in the
environment built by the inputs before it, and its bindings and
expression types are printed. End a line with \ to continue it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), os.Stdin)
		},
	}
}

func runREPL(ctx context.Context, in io.Reader) error {
	cfg := configFromContext(ctx)
	lib, err := loadLibrary(cfg.Library)
	if err != nil {
		return err
	}

	history := newReplHistory(cfg.History)
	history.Load()

	r := newREPL(lib, cfg.Package, history, ioctx.StdoutFromContext(ctx), defaultStyles())
	r.welcome()
	return r.run(ctx, in)
}

type replStyles struct {
	prompt  lipgloss.Style
	result  lipgloss.Style
	error   lipgloss.Style
	dim     lipgloss.Style
	welcome lipgloss.Style
}

func defaultStyles() replStyles {
	return replStyles{
		prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true),
		result:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		welcome: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	}
}

func plainStyles() replStyles {
	plain := lipgloss.NewStyle()
	return replStyles{prompt: plain, result: plain, error: plain, dim: plain, welcome: plain}
}

type replCommandDef struct {
	name string
	desc string
}

var replCommandDefs = []replCommandDef{
	{"help", "Show this help"},
	{"type", "Show the type of an expression"},
	{"env", "List session bindings, optionally filtered"},
	{"packages", "List importable packages, or the bindings of one"},
	{"history", "Show recent input"},
	{"reset", "Forget all session bindings"},
	{"quit", "Exit the REPL"},
}

type repl struct {
	lib     *flux.Library
	pkgPath string
	session *flux.Session
	history *replHistory
	out     io.Writer
	styles  replStyles
	quit    bool
}

func newREPL(lib *flux.Library, pkgPath string, history *replHistory, out io.Writer, styles replStyles) *repl {
	return &repl{
		lib:     lib,
		pkgPath: pkgPath,
		session: flux.NewSession(pkgPath, flux.WithLibrary(lib)),
		history: history,
		out:     out,
		styles:  styles,
	}
}

func (r *repl) println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

func (r *repl) welcome() {
	r.println(r.styles.welcome.Render("fluxc " + version))
	r.println(r.styles.dim.Render("Type :help for commands."))
}

func (r *repl) prompt(continued bool) {
	p := "> "
	if continued {
		p = ". "
	}
	_, _ = fmt.Fprint(r.out, r.styles.prompt.Render(p))
}

// run reads input until EOF or :quit.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder

	r.prompt(false)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutSuffix(line, `\`); ok {
			pending.WriteString(rest)
			pending.WriteByte('\n')
			r.prompt(true)
			continue
		}
		pending.WriteString(line)
		input := pending.String()
		pending.Reset()

		r.handle(ctx, input)
		if r.quit {
			return nil
		}
		r.prompt(false)
	}
	return scanner.Err()
}

func (r *repl) handle(ctx context.Context, input string) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return
	}
	r.history.Add(input)

	if cmd, ok := strings.CutPrefix(trimmed, ":"); ok {
		r.command(ctx, cmd)
		return
	}
	r.analyze(ctx, input)
}

func (r *repl) analyze(ctx context.Context, src string) {
	sem, err := r.session.Analyze(ctx, src)
	if err != nil {
		r.reportError(err)
		return
	}
	for _, b := range topLevelBindings(sem) {
		r.println(r.styles.result.Render(fmt.Sprintf("%s : %s", b.Name, b.Type)))
	}
	for _, f := range sem.Files {
		for _, stmt := range f.Body {
			if es, ok := stmt.(*semantic.ExpressionStatement); ok && es.Expression.TypeOf() != nil {
				r.println(r.styles.result.Render("=> " + hm.Normalize(es.Expression.TypeOf()).String()))
			}
		}
	}
}

func (r *repl) reportError(err error) {
	var serr *semantic.SourceError
	if errors.As(err, &serr) {
		r.println(serr.Highlighted())
		return
	}
	for _, e := range multierr.Errors(err) {
		r.println(r.styles.error.Render(e.Error()))
	}
}

func (r *repl) command(ctx context.Context, line string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		r.println(r.styles.error.Render("empty command"))
		return
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help":
		r.println("Available commands:")
		maxName := 0
		for _, def := range replCommandDefs {
			maxName = max(maxName, len(def.name))
		}
		for _, def := range replCommandDefs {
			r.println(r.styles.dim.Render(fmt.Sprintf("  :%-*s - %s", maxName, def.name, def.desc)))
		}
		r.println("")
		r.println(r.styles.dim.Render(`Type Flux statements to check them. End a line with \ to continue it.`))

	case "quit", "exit":
		r.quit = true

	case "reset":
		r.session = flux.NewSession(r.pkgPath, flux.WithLibrary(r.lib))
		r.println(r.styles.result.Render("Environment reset."))

	case "type":
		if len(args) == 0 {
			r.println(r.styles.dim.Render("Usage: :type <expression>"))
			return
		}
		expr := strings.TrimSpace(strings.TrimPrefix(line, cmd))
		t, err := r.session.TypeOf(ctx, expr)
		if err != nil {
			r.reportError(err)
			return
		}
		r.println(r.styles.result.Render(fmt.Sprintf("%s : %s", expr, t)))
		if scheme, ok := r.session.Lookup(expr); ok {
			r.println(r.styles.dim.Render(fmt.Sprintf("Scheme: %s", scheme)))
		}

	case "env":
		r.envCommand(args)

	case "packages":
		r.packagesCommand(args)

	case "history":
		r.println("Recent history:")
		for i, entry := range r.history.Recent(20) {
			r.println(r.styles.dim.Render(fmt.Sprintf("  %d: %s", i+1, entry)))
		}

	default:
		r.println(r.styles.error.Render(fmt.Sprintf("unknown command: %s (type :help for available commands)", cmd)))
	}
}

func (r *repl) envCommand(args []string) {
	filter := ""
	if len(args) > 0 {
		filter = strings.ToLower(args[0])
	}

	var lines []string
	r.session.Env().Each(func(name string, scheme *hm.Scheme) {
		if filter != "" && !strings.Contains(strings.ToLower(name), filter) {
			return
		}
		lines = append(lines, fmt.Sprintf("  %s : %s", name, scheme))
	})
	if len(lines) == 0 {
		r.println(r.styles.dim.Render("No bindings."))
		return
	}
	sort.Strings(lines)
	for _, l := range lines {
		r.println(r.styles.dim.Render(l))
	}
}

func (r *repl) packagesCommand(args []string) {
	if len(args) == 0 {
		for _, p := range r.lib.Paths() {
			r.println(r.styles.dim.Render("  " + p))
		}
		return
	}
	if _, ok := r.lib.Import(args[0]); !ok {
		r.println(r.styles.error.Render(fmt.Sprintf("package %q not found", args[0])))
		return
	}
	for _, b := range r.lib.Bindings(args[0]) {
		r.println(r.styles.dim.Render(fmt.Sprintf("  %s : %s", b.Name, b.Scheme)))
	}
}
