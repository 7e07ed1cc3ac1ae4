package semantic

import (
	"sort"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/hm"
)

// TypeScheme converts a declared type expression into a polytype over all
// of its type variables.
func TypeScheme(te *ast.TypeExpression) (*hm.Scheme, error) {
	tc := &typeConverter{vars: map[string]hm.TypeVariable{}}
	t, err := tc.monotype(te.Ty)
	if err != nil {
		return nil, err
	}

	cons := map[hm.TypeVariable]hm.KindSet{}
	for _, c := range te.Constraints {
		tv := tc.tvar(c.Tvar.Name)
		for _, k := range c.Kinds {
			kind, ok := hm.ParseKind(k.Name)
			if !ok {
				return nil, errorfAt(k, "unknown kind %s", k.Name)
			}
			cons[tv] = cons[tv].With(kind)
		}
	}

	tvs := make([]hm.TypeVariable, 0, len(tc.vars))
	for _, tv := range tc.vars {
		tvs = append(tvs, tv)
	}
	sort.Slice(tvs, func(i, j int) bool { return tvs[i] < tvs[j] })
	return hm.NewConstrainedScheme(tvs, cons, t), nil
}

type typeConverter struct {
	vars map[string]hm.TypeVariable
}

func (tc *typeConverter) tvar(name string) hm.TypeVariable {
	tv, ok := tc.vars[name]
	if !ok {
		tv = hm.TypeVariable(len(tc.vars))
		tc.vars[name] = tv
	}
	return tv
}

func (tc *typeConverter) monotype(mt ast.MonoType) (hm.Type, error) {
	switch mt := mt.(type) {
	case *ast.TvarType:
		return tc.tvar(mt.ID.Name), nil
	case *ast.NamedType:
		b, ok := hm.BasicTypes[mt.ID.Name]
		if !ok {
			return nil, errorfAt(mt, "unknown type %s", mt.ID.Name)
		}
		return b, nil
	case *ast.ArrayType:
		elem, err := tc.monotype(mt.ElementType)
		if err != nil {
			return nil, err
		}
		return hm.NewArray(elem), nil
	case *ast.DictType:
		key, err := tc.monotype(mt.KeyType)
		if err != nil {
			return nil, err
		}
		val, err := tc.monotype(mt.ValueType)
		if err != nil {
			return nil, err
		}
		return hm.NewDict(key, val), nil
	case *ast.RecordType:
		var tail hm.Type
		if mt.Tvar != nil {
			tail = tc.tvar(mt.Tvar.Name)
		}
		props := make([]hm.Property, 0, len(mt.Properties))
		for _, p := range mt.Properties {
			t, err := tc.monotype(p.Ty)
			if err != nil {
				return nil, err
			}
			props = append(props, hm.Property{Label: p.Name.Name, Type: t})
		}
		return hm.NewRecord(props, tail), nil
	case *ast.FunctionType:
		fn := hm.NewFnType(nil, nil, nil, nil)
		for _, p := range mt.Parameters {
			t, err := tc.monotype(p.Ty)
			if err != nil {
				return nil, err
			}
			switch p.Kind {
			case ast.Pipe:
				if fn.Pipe != nil {
					return nil, errorfAt(p, "function type can only have one pipe parameter")
				}
				name := hm.AnonymousPipe
				if p.Name != nil {
					name = p.Name.Name
				}
				fn.Pipe = &hm.PipeArgument{Name: name, Type: t}
			case ast.Optional:
				fn.Opt[p.Name.Name] = t
			default:
				fn.Req[p.Name.Name] = t
			}
		}
		ret, err := tc.monotype(mt.Return)
		if err != nil {
			return nil, err
		}
		fn.Ret = ret
		return fn, nil
	default:
		return nil, errorfAt(mt, "unsupported type expression")
	}
}
