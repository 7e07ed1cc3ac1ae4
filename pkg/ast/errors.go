package ast

import (
	"fmt"

	"go.uber.org/multierr"
)

// Check returns the number of syntax errors recorded anywhere in the tree.
// Bad statements and bad expressions count as errors of their own.
func Check(root Node) int {
	return len(Errors(root))
}

// Errors returns every syntax error in the tree paired with the location
// of the node carrying it, in traversal order.
func Errors(root Node) []LocatedError {
	var errs []LocatedError
	Inspect(root, func(n Node) bool {
		for _, err := range n.Errs() {
			errs = append(errs, LocatedError{Loc: n.Location(), Msg: err.Msg})
		}
		switch n := n.(type) {
		case *BadStatement:
			errs = append(errs, LocatedError{Loc: n.Location(), Msg: "invalid statement: " + n.Text})
		case *BadExpression:
			if n.Text != "" {
				errs = append(errs, LocatedError{Loc: n.Location(), Msg: "invalid expression: " + n.Text})
			}
		}
		return true
	})
	return errs
}

// LocatedError is a syntax error along with the span of its node.
type LocatedError struct {
	Loc SourceLocation
	Msg string
}

func (e LocatedError) Error() string {
	return fmt.Sprintf("error @%v-%v: %s", e.Loc.Start, e.Loc.End, e.Msg)
}

// GetError combines every syntax error in the tree into one error, or
// returns nil when the tree is clean.
func GetError(root Node) error {
	var err error
	for _, e := range Errors(root) {
		err = multierr.Append(err, e)
	}
	return err
}
