package flux

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/hm"
	"github.com/vito/fluxc/pkg/semantic"
)

// FindVariableType analyzes pkg, consuming it, and returns the type of
// name: the type of its top-level binding when pkg defines it, and
// otherwise the type its uses require of it. A name that is never used
// gets an unconstrained variable.
func FindVariableType(ctx context.Context, pkg *ast.Package, name string) (hm.Type, error) {
	lib := Stdlib()
	fresher := hm.NewSimpleFresher(0)
	tv := fresher.Fresh()
	env := lib.Prelude().Scope().Add(name, hm.Monotype(tv))

	sem, scope, err := analyzeEnv(ctx, pkg, env, fresher, lib)
	if err != nil {
		return nil, err
	}
	if scheme, ok := scope.LocalSchemeOf(name); ok {
		t, _ := scheme.Normalize().Type()
		return t, nil
	}

	var found hm.Type = tv
	semantic.Inspect(sem, func(n semantic.Node) bool {
		if id, ok := n.(*semantic.IdentifierExpression); ok && id.Name == name && id.TypeOf() != nil {
			found = id.TypeOf()
			return false
		}
		return found == tv
	})
	return hm.Normalize(found), nil
}

// FindVariableTypeJSON is FindVariableType with the type encoded as JSON.
func FindVariableTypeJSON(ctx context.Context, pkg *ast.Package, name string) ([]byte, error) {
	t, err := FindVariableType(ctx, pkg, name)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "encoding type")
	}
	return data, nil
}
