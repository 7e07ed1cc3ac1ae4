package semantic

import (
	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/hm"
)

// Importer resolves an import path to the bindings the package exports.
// Only the innermost scope of the returned environment is exported.
type Importer interface {
	Import(path string) (*hm.Env, bool)
}

// Packages is an Importer backed by a map of package paths.
type Packages map[string]*hm.Env

func (p Packages) Import(path string) (*hm.Env, bool) {
	env, ok := p[path]
	return env, ok
}

// Infer types every expression of pkg in the scope of env and returns a
// new scope holding the package's top-level bindings. Variables are drawn
// from fresher, so a caller analyzing fragments in sequence can share one.
//
// The first error stops inference. Expressions inferred before it keep
// their types; the rest are left untyped.
func Infer(pkg *Package, env *hm.Env, fresher hm.Fresher, importer Importer) (*hm.Env, error) {
	if importer == nil {
		importer = Packages{}
	}
	inf := &inferrer{
		u:        hm.NewUnifier(fresher),
		importer: importer,
		packages: map[string]*hm.Scheme{},
	}

	scope := env.Scope()
	var err error
	for _, f := range pkg.Files {
		scope, err = inf.file(f, scope)
		if err != nil {
			break
		}
	}
	inf.applyTypes(pkg)
	if err != nil {
		return nil, err
	}
	return scope, nil
}

type inferrer struct {
	u        *hm.Unifier
	importer Importer
	packages map[string]*hm.Scheme
}

func (inf *inferrer) file(f *File, pkgScope *hm.Env) (*hm.Env, error) {
	env := pkgScope.Scope()
	for _, imp := range f.Imports {
		scheme, err := inf.importScheme(imp)
		if err != nil {
			return pkgScope, err
		}
		env = env.Add(imp.Name(), scheme)
	}

	for _, s := range f.Body {
		var err error
		env, err = inf.statement(s, env)
		if err != nil {
			return pkgScope, err
		}
		if name := boundName(s); name != "" {
			scheme, _ := env.LocalSchemeOf(name)
			pkgScope = pkgScope.Add(name, scheme)
		}
	}
	return pkgScope, nil
}

// boundName is the name a top-level statement binds, if any.
func boundName(s Statement) string {
	switch s := s.(type) {
	case *NativeVariableAssignment:
		return s.Identifier.Name
	case *OptionStatement:
		if a, ok := s.Assignment.(*NativeVariableAssignment); ok {
			return a.Identifier.Name
		}
	case *BuiltinStatement:
		return s.ID.Name
	case *TestStatement:
		return s.Assignment.Identifier.Name
	}
	return ""
}

// importScheme types a package as one record of its exports. Each member
// is renamed apart and the whole record is quantified, so every reference
// to the package instantiates its members afresh.
func (inf *inferrer) importScheme(imp *ImportDeclaration) (*hm.Scheme, error) {
	path := imp.Path.Value
	if scheme, ok := inf.packages[path]; ok {
		return scheme, nil
	}
	exports, ok := inf.importer.Import(path)
	if !ok {
		return nil, errorfAt(imp, "package %q not found", path)
	}

	local := hm.NewUnifier(hm.NewSimpleFresher(0))
	var props []hm.Property
	exports.Each(func(name string, scheme *hm.Scheme) {
		props = append(props, hm.Property{Label: name, Type: hm.Instantiate(local, scheme)})
	})
	record := hm.NewRecord(props, nil)

	tvs := record.FreeTypeVar().ToSlice()
	cons := map[hm.TypeVariable]hm.KindSet{}
	for _, tv := range tvs {
		if ks := local.KindsOf(tv); ks != 0 {
			cons[tv] = ks
		}
	}
	scheme := hm.NewConstrainedScheme(tvs, cons, record)
	inf.packages[path] = scheme
	return scheme, nil
}

func (inf *inferrer) statement(s Statement, env *hm.Env) (*hm.Env, error) {
	switch s := s.(type) {
	case *NativeVariableAssignment:
		return inf.assign(s, env)
	case *MemberAssignment:
		return env, inf.memberAssign(s, env)
	case *OptionStatement:
		switch a := s.Assignment.(type) {
		case *NativeVariableAssignment:
			// An option may only be set to a value of its declared type.
			if existing, ok := env.SchemeOf(a.Identifier.Name); ok {
				t, err := inf.expr(a.Init, env)
				if err != nil {
					return env, err
				}
				if err := inf.unify(a.Init, hm.Instantiate(inf.u, existing), t); err != nil {
					return env, err
				}
			}
			return inf.assign(a, env)
		case *MemberAssignment:
			return env, inf.memberAssign(a, env)
		}
		return env, errorfAt(s, "invalid option assignment")
	case *BuiltinStatement:
		return env.Add(s.ID.Name, s.Scheme), nil
	case *TestStatement:
		return inf.assign(s.Assignment, env)
	case *TestCaseStatement:
		scope := env.Scope()
		for _, stmt := range s.Block.Body {
			var err error
			if scope, err = inf.statement(stmt, scope); err != nil {
				return env, err
			}
		}
		return env, nil
	case *ExpressionStatement:
		_, err := inf.expr(s.Expression, env)
		return env, err
	case *ReturnStatement:
		_, err := inf.expr(s.Argument, env)
		return env, err
	}
	return env, errorfAt(s, "unsupported statement %s", s.NodeType())
}

func (inf *inferrer) assign(a *NativeVariableAssignment, env *hm.Env) (*hm.Env, error) {
	t := a.Init.TypeOf()
	if t == nil {
		var err error
		if t, err = inf.expr(a.Init, env); err != nil {
			return env, err
		}
	}
	a.Scheme = hm.Generalize(env, inf.u, t)
	return env.Add(a.Identifier.Name, a.Scheme), nil
}

func (inf *inferrer) memberAssign(a *MemberAssignment, env *hm.Env) error {
	member, err := inf.expr(a.Member, env)
	if err != nil {
		return err
	}
	t, err := inf.expr(a.Init, env)
	if err != nil {
		return err
	}
	return inf.unify(a.Init, member, t)
}

func (inf *inferrer) block(b *Block, env *hm.Env) (hm.Type, error) {
	scope := env.Scope()
	for _, s := range b.Body {
		if ret, ok := s.(*ReturnStatement); ok {
			t, err := inf.expr(ret.Argument, scope)
			if err != nil {
				return nil, err
			}
			b.Typ = t
			return t, nil
		}
		var err error
		if scope, err = inf.statement(s, scope); err != nil {
			return nil, err
		}
	}
	return nil, errorfAt(b, "missing return statement in block")
}

func (inf *inferrer) unify(node Node, exp, act hm.Type) error {
	if err := inf.u.Unify(exp, act); err != nil {
		return errorAt(node, err)
	}
	return nil
}

func (inf *inferrer) constrain(node Node, t hm.Type, kinds ...hm.Kind) error {
	for _, k := range kinds {
		if err := inf.u.Constrain(t, k); err != nil {
			return errorAt(node, err)
		}
	}
	return nil
}

type typeSetter interface {
	setType(hm.Type)
}

func (t *Typed) setType(ty hm.Type) {
	t.Typ = ty
}

func (inf *inferrer) expr(e Expression, env *hm.Env) (hm.Type, error) {
	t, err := inf.infer(e, env)
	if err != nil {
		return nil, err
	}
	e.(typeSetter).setType(t)
	return t, nil
}

func (inf *inferrer) infer(e Expression, env *hm.Env) (hm.Type, error) {
	switch e := e.(type) {
	case *IdentifierExpression:
		scheme, ok := env.SchemeOf(e.Name)
		if !ok {
			return nil, errorfAt(e, "undefined identifier %s", e.Name)
		}
		return hm.Instantiate(inf.u, scheme), nil
	case *BooleanLiteral:
		return hm.Bool, nil
	case *IntegerLiteral:
		return hm.Int, nil
	case *UnsignedIntegerLiteral:
		return hm.Uint, nil
	case *FloatLiteral:
		return hm.Float, nil
	case *StringLiteral:
		return hm.String, nil
	case *RegexpLiteral:
		return hm.Regexp, nil
	case *DurationLiteral:
		return hm.Duration, nil
	case *DateTimeLiteral:
		return hm.Time, nil
	case *StringExpression:
		for _, part := range e.Parts {
			ip, ok := part.(*InterpolatedPart)
			if !ok {
				continue
			}
			t, err := inf.expr(ip.Expression, env)
			if err != nil {
				return nil, err
			}
			if err := inf.constrain(ip, t, hm.Stringable); err != nil {
				return nil, err
			}
		}
		return hm.String, nil
	case *ArrayExpression:
		return inf.array(e, env)
	case *DictExpression:
		return inf.dict(e, env)
	case *ObjectExpression:
		return inf.object(e, env)
	case *FunctionExpression:
		return inf.function(e, env)
	case *CallExpression:
		return inf.call(e, env)
	case *MemberExpression:
		obj, err := inf.expr(e.Object, env)
		if err != nil {
			return nil, err
		}
		v := inf.u.Fresh()
		rec := hm.NewRecord([]hm.Property{{Label: e.Property, Type: v}}, inf.u.Fresh())
		if err := inf.unify(e, rec, obj); err != nil {
			return nil, err
		}
		return v, nil
	case *IndexExpression:
		arr, err := inf.expr(e.Array, env)
		if err != nil {
			return nil, err
		}
		idx, err := inf.expr(e.Index, env)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(e.Index, hm.Int, idx); err != nil {
			return nil, err
		}
		elem := inf.u.Fresh()
		if err := inf.unify(e, hm.NewArray(elem), arr); err != nil {
			return nil, err
		}
		return elem, nil
	case *BinaryExpression:
		return inf.binary(e, env)
	case *UnaryExpression:
		arg, err := inf.expr(e.Argument, env)
		if err != nil {
			return nil, err
		}
		switch e.Operator {
		case ast.NotOperator:
			if err := inf.unify(e, hm.Bool, arg); err != nil {
				return nil, err
			}
			return hm.Bool, nil
		case ast.ExistsOperator:
			return hm.Bool, nil
		case ast.AdditionOperator, ast.SubtractionOperator:
			if err := inf.constrain(e, arg, hm.Negatable); err != nil {
				return nil, err
			}
			return arg, nil
		}
		return nil, errorfAt(e, "unsupported unary operator %s", e.Operator)
	case *LogicalExpression:
		left, err := inf.expr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := inf.expr(e.Right, env)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(e.Left, hm.Bool, left); err != nil {
			return nil, err
		}
		if err := inf.unify(e.Right, hm.Bool, right); err != nil {
			return nil, err
		}
		return hm.Bool, nil
	case *ConditionalExpression:
		test, err := inf.expr(e.Test, env)
		if err != nil {
			return nil, err
		}
		cons, err := inf.expr(e.Consequent, env)
		if err != nil {
			return nil, err
		}
		alt, err := inf.expr(e.Alternate, env)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(e.Test, hm.Bool, test); err != nil {
			return nil, err
		}
		if err := inf.unify(e, cons, alt); err != nil {
			return nil, err
		}
		return cons, nil
	}
	return nil, errorfAt(e, "unsupported expression %s", e.NodeType())
}

func (inf *inferrer) array(e *ArrayExpression, env *hm.Env) (hm.Type, error) {
	if len(e.Elements) == 0 {
		return hm.NewArray(inf.u.Fresh()), nil
	}
	elem, err := inf.expr(e.Elements[0], env)
	if err != nil {
		return nil, err
	}
	for _, el := range e.Elements[1:] {
		t, err := inf.expr(el, env)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(el, elem, t); err != nil {
			return nil, err
		}
	}
	return hm.NewArray(elem), nil
}

func (inf *inferrer) dict(e *DictExpression, env *hm.Env) (hm.Type, error) {
	key, val := hm.Type(inf.u.Fresh()), hm.Type(inf.u.Fresh())
	for _, item := range e.Elements {
		kt, err := inf.expr(item.Key, env)
		if err != nil {
			return nil, err
		}
		vt, err := inf.expr(item.Val, env)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(item.Key, key, kt); err != nil {
			return nil, err
		}
		if err := inf.unify(item.Val, val, vt); err != nil {
			return nil, err
		}
	}
	if err := inf.constrain(e, key, hm.Comparable); err != nil {
		return nil, err
	}
	return hm.NewDict(key, val), nil
}

func (inf *inferrer) object(e *ObjectExpression, env *hm.Env) (hm.Type, error) {
	var tail hm.Type
	if e.With != nil {
		t, err := inf.expr(e.With, env)
		if err != nil {
			return nil, err
		}
		if err := inf.constrain(e.With, t, hm.Record); err != nil {
			return nil, err
		}
		tail = t
	}
	props := make([]hm.Property, 0, len(e.Properties))
	for _, p := range e.Properties {
		t, err := inf.expr(p.Value, env)
		if err != nil {
			return nil, err
		}
		props = append(props, hm.Property{Label: p.Key, Type: t})
	}
	return hm.NewRecord(props, tail), nil
}

func (inf *inferrer) function(e *FunctionExpression, env *hm.Env) (hm.Type, error) {
	fn := hm.NewFnType(nil, nil, nil, nil)
	scope := env.Scope()
	for _, p := range e.Parameters {
		name := p.Key.Name
		var t hm.Type
		switch {
		case p.Default != nil:
			var err error
			if t, err = inf.expr(p.Default, env); err != nil {
				return nil, err
			}
			fn.Opt[name] = t
		case p.IsPipe:
			t = inf.u.Fresh()
			fn.Pipe = &hm.PipeArgument{Name: name, Type: t}
		default:
			t = inf.u.Fresh()
			fn.Req[name] = t
		}
		scope = scope.Add(name, hm.Monotype(t))
	}

	ret, err := inf.block(e.Block, scope)
	if err != nil {
		return nil, err
	}
	fn.Ret = ret
	return fn, nil
}

func (inf *inferrer) call(e *CallExpression, env *hm.Env) (hm.Type, error) {
	callee, err := inf.expr(e.Callee, env)
	if err != nil {
		return nil, err
	}
	call := hm.NewFnType(nil, nil, nil, inf.u.Fresh())
	for _, arg := range e.Arguments {
		t, err := inf.expr(arg.Value, env)
		if err != nil {
			return nil, err
		}
		call.Req[arg.Key] = t
	}
	if e.Pipe != nil {
		t, err := inf.expr(e.Pipe, env)
		if err != nil {
			return nil, err
		}
		call.Pipe = &hm.PipeArgument{Name: hm.AnonymousPipe, Type: t}
	}
	if err := inf.unify(e, callee, call); err != nil {
		return nil, err
	}
	return call.Ret, nil
}

func (inf *inferrer) binary(e *BinaryExpression, env *hm.Env) (hm.Type, error) {
	left, err := inf.expr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := inf.expr(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case ast.RegexpMatchOperator, ast.NotRegexpMatchOperator:
		if err := inf.unify(e.Left, hm.String, left); err != nil {
			return nil, err
		}
		if err := inf.unify(e.Right, hm.Regexp, right); err != nil {
			return nil, err
		}
		return hm.Bool, nil
	}

	if err := inf.unify(e, left, right); err != nil {
		return nil, err
	}

	switch e.Operator {
	case ast.AdditionOperator:
		return left, inf.constrain(e, left, hm.Addable)
	case ast.SubtractionOperator:
		return left, inf.constrain(e, left, hm.Subtractable)
	case ast.MultiplicationOperator, ast.DivisionOperator, ast.ModuloOperator, ast.PowerOperator:
		return left, inf.constrain(e, left, hm.Divisible)
	case ast.LessThanOperator, ast.GreaterThanOperator:
		return hm.Bool, inf.constrain(e, left, hm.Comparable)
	case ast.EqualOperator, ast.NotEqualOperator:
		return hm.Bool, inf.constrain(e, left, hm.Equatable)
	case ast.LessThanEqualOperator, ast.GreaterThanEqualOperator:
		return hm.Bool, inf.constrain(e, left, hm.Equatable, hm.Comparable)
	}
	return nil, errorfAt(e, "unsupported binary operator %s", e.Operator)
}

// applyTypes replaces every type in the graph with its solution.
func (inf *inferrer) applyTypes(pkg *Package) {
	Inspect(pkg, func(n Node) bool {
		switch n := n.(type) {
		case Expression:
			if t := n.TypeOf(); t != nil {
				n.(typeSetter).setType(inf.u.Apply(t))
			}
		case *Block:
			if n.Typ != nil {
				n.Typ = inf.u.Apply(n.Typ)
			}
		case *NativeVariableAssignment:
			if n.Scheme != nil {
				n.Scheme = n.Scheme.Apply(inf.u.Subs()).(*hm.Scheme)
			}
		}
		return true
	})
}
