package semantic

import (
	"fmt"
	"strings"

	"github.com/vito/fluxc/pkg/ast"
)

// SourceError is an analysis error tied to the span of the node that
// caused it.
type SourceError struct {
	Inner    error
	Location ast.SourceLocation

	// Source is the text the error was found in, when the caller has it.
	Source string
}

func errorAt(node interface{ Location() ast.SourceLocation }, err error) *SourceError {
	return &SourceError{Inner: err, Location: node.Location()}
}

func errorfAt(node interface{ Location() ast.SourceLocation }, format string, args ...any) *SourceError {
	return errorAt(node, fmt.Errorf(format, args...))
}

func (e *SourceError) Unwrap() error {
	return e.Inner
}

func (e *SourceError) Error() string {
	if !e.Location.Start.IsValid() {
		return e.Inner.Error()
	}
	return fmt.Sprintf("error @%v-%v: %s", e.Location.Start, e.Location.End, e.Inner)
}

// Highlighted formats the error against its attached source, falling back
// to Error when there is none.
func (e *SourceError) Highlighted() string {
	if e.Source == "" {
		return e.Error()
	}
	return e.FormatWithHighlighting(e.Source)
}

// FormatWithHighlighting renders the error with the surrounding lines of
// source and the offending span underlined.
func (e *SourceError) FormatWithHighlighting(source string) string {
	loc := e.Location
	lines := strings.Split(source, "\n")
	if loc.Start.Line < 1 || loc.Start.Line > len(lines) {
		return e.Error()
	}

	const (
		red   = "\033[31m"
		blue  = "\033[34m"
		bold  = "\033[1m"
		reset = "\033[0m"
		dim   = "\033[2m"
	)

	var result strings.Builder

	fmt.Fprintf(&result, "%s%sError:%s %s\n", bold, red, reset, e.Inner)
	file := loc.File
	if file == "" {
		file = "<input>"
	}
	fmt.Fprintf(&result, "  %s%s--> %s:%d:%d%s\n", dim, blue, file, loc.Start.Line, loc.Start.Column, reset)
	fmt.Fprintf(&result, " %s%s |%s\n", dim, padLeft("", 3), reset)

	startLine := max(1, loc.Start.Line-2)
	endLine := min(len(lines), loc.Start.Line+2)

	for i := startLine; i <= endLine; i++ {
		num := padLeft(fmt.Sprintf("%d", i), 3)
		if i != loc.Start.Line {
			fmt.Fprintf(&result, " %s%s | %s%s\n", dim, num, lines[i-1], reset)
			continue
		}
		fmt.Fprintf(&result, " %s%s%s%s | %s%s\n", dim, blue, bold, num, reset, lines[i-1])

		// Underline to the end of the span, or of the line when the span
		// continues past it.
		width := len(lines[i-1]) - loc.Start.Column + 1
		if loc.End.Line == loc.Start.Line {
			width = loc.End.Column - loc.Start.Column
		}
		padding := strings.Repeat(" ", 1+3+3+loc.Start.Column-1)
		fmt.Fprintf(&result, "%s%s%s%s%s\n", dim, padding, red, strings.Repeat("^", max(1, width)), reset)
	}

	fmt.Fprintf(&result, " %s%s |%s\n", dim, padLeft("", 3), reset)

	return result.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
