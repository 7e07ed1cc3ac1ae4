package semantic

import (
	"fmt"

	"github.com/vito/fluxc/pkg/ast"
)

// Convert builds an untyped graph from a parsed package. The package must
// be free of syntax errors; the first structural problem found is
// returned as a *SourceError.
func Convert(pkg *ast.Package) (*Package, error) {
	if err := ast.GetError(pkg); err != nil {
		return nil, fmt.Errorf("package has syntax errors: %w", err)
	}
	var c converter
	return c.pkg(pkg)
}

type converter struct {
	// depth counts the function bodies being converted.
	depth int
}

func (c *converter) pkg(pkg *ast.Package) (*Package, error) {
	out := &Package{
		BaseNode: BaseNode{Loc: pkg.Location()},
		Package:  pkg.Package,
	}
	for _, f := range pkg.Files {
		file, err := c.file(f)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, file)
	}
	return out, nil
}

func (c *converter) file(f *ast.File) (*File, error) {
	out := &File{
		BaseNode: BaseNode{Loc: f.Location()},
		Name:     f.Name,
	}
	if f.Package != nil {
		out.Package = &PackageClause{
			BaseNode: BaseNode{Loc: f.Package.Location()},
			Name:     c.ident(f.Package.Name),
		}
	}
	for _, imp := range f.Imports {
		decl := &ImportDeclaration{
			BaseNode: BaseNode{Loc: imp.Location()},
			Path:     c.stringLit(imp.Path),
		}
		if imp.As != nil {
			decl.As = c.ident(imp.As)
		}
		out.Imports = append(out.Imports, decl)
	}
	body, err := c.statements(f.Body)
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func (c *converter) statements(stmts []ast.Statement) ([]Statement, error) {
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		stmt, err := c.statement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (c *converter) statement(s ast.Statement) (Statement, error) {
	switch s := s.(type) {
	case *ast.VariableAssignment:
		return c.variableAssignment(s)
	case *ast.MemberAssignment:
		return c.memberAssignment(s)
	case *ast.OptionStatement:
		var (
			assign Assignment
			err    error
		)
		switch a := s.Assignment.(type) {
		case *ast.VariableAssignment:
			assign, err = c.variableAssignment(a)
		case *ast.MemberAssignment:
			assign, err = c.memberAssignment(a)
		default:
			return nil, errorfAt(s, "invalid option assignment")
		}
		if err != nil {
			return nil, err
		}
		return &OptionStatement{BaseNode: BaseNode{Loc: s.Location()}, Assignment: assign}, nil
	case *ast.BuiltinStatement:
		scheme, err := TypeScheme(s.Ty)
		if err != nil {
			return nil, err
		}
		return &BuiltinStatement{
			BaseNode: BaseNode{Loc: s.Location()},
			ID:       c.ident(s.ID),
			Scheme:   scheme,
		}, nil
	case *ast.TestStatement:
		assign, err := c.variableAssignment(s.Assignment)
		if err != nil {
			return nil, err
		}
		return &TestStatement{BaseNode: BaseNode{Loc: s.Location()}, Assignment: assign}, nil
	case *ast.TestCaseStatement:
		body, err := c.statements(s.Block.Body)
		if err != nil {
			return nil, err
		}
		out := &TestCaseStatement{
			BaseNode: BaseNode{Loc: s.Location()},
			ID:       c.ident(s.ID),
			Block:    &Block{BaseNode: BaseNode{Loc: s.Block.Location()}, Body: body},
		}
		if s.Extends != nil {
			out.Extends = c.stringLit(s.Extends)
		}
		return out, nil
	case *ast.ExpressionStatement:
		expr, err := c.expr(s.Expression)
		if err != nil {
			return nil, err
		}
		return &ExpressionStatement{BaseNode: BaseNode{Loc: s.Location()}, Expression: expr}, nil
	case *ast.ReturnStatement:
		if c.depth == 0 {
			return nil, errorfAt(s, "return is only allowed in a function body")
		}
		arg, err := c.expr(s.Argument)
		if err != nil {
			return nil, err
		}
		return &ReturnStatement{BaseNode: BaseNode{Loc: s.Location()}, Argument: arg}, nil
	case *ast.BadStatement:
		return nil, errorfAt(s, "invalid statement: %s", s.Text)
	default:
		return nil, errorfAt(s, "unsupported statement %s", s.Type())
	}
}

func (c *converter) variableAssignment(s *ast.VariableAssignment) (*NativeVariableAssignment, error) {
	init, err := c.expr(s.Init)
	if err != nil {
		return nil, err
	}
	return &NativeVariableAssignment{
		BaseNode:   BaseNode{Loc: s.Location()},
		Identifier: c.ident(s.ID),
		Init:       init,
	}, nil
}

func (c *converter) memberAssignment(s *ast.MemberAssignment) (*MemberAssignment, error) {
	member, err := c.member(s.Member)
	if err != nil {
		return nil, err
	}
	init, err := c.expr(s.Init)
	if err != nil {
		return nil, err
	}
	return &MemberAssignment{
		BaseNode: BaseNode{Loc: s.Location()},
		Member:   member,
		Init:     init,
	}, nil
}

func (c *converter) ident(id *ast.Identifier) *Identifier {
	return &Identifier{BaseNode: BaseNode{Loc: id.Location()}, Name: id.Name}
}

func (c *converter) stringLit(s *ast.StringLiteral) *StringLiteral {
	return &StringLiteral{BaseNode: BaseNode{Loc: s.Location()}, Value: s.Value}
}

func (c *converter) expr(e ast.Expression) (Expression, error) {
	base := BaseNode{Loc: e.Location()}
	switch e := e.(type) {
	case *ast.Identifier:
		return &IdentifierExpression{BaseNode: base, Name: e.Name}, nil
	case *ast.BooleanLiteral:
		return &BooleanLiteral{BaseNode: base, Value: e.Value}, nil
	case *ast.IntegerLiteral:
		return &IntegerLiteral{BaseNode: base, Value: e.Value}, nil
	case *ast.UnsignedIntegerLiteral:
		return &UnsignedIntegerLiteral{BaseNode: base, Value: e.Value}, nil
	case *ast.FloatLiteral:
		return &FloatLiteral{BaseNode: base, Value: e.Value}, nil
	case *ast.StringLiteral:
		return c.stringLit(e), nil
	case *ast.RegexpLiteral:
		return &RegexpLiteral{BaseNode: base, Value: e.Value}, nil
	case *ast.DurationLiteral:
		return &DurationLiteral{BaseNode: base, Values: e.Values}, nil
	case *ast.DateTimeLiteral:
		return &DateTimeLiteral{BaseNode: base, Value: e.Value}, nil
	case *ast.PipeLiteral:
		return nil, errorfAt(e, "pipe literal is only allowed as a parameter default")
	case *ast.ParenExpression:
		return c.expr(e.Expression)
	case *ast.StringExpression:
		out := &StringExpression{BaseNode: base}
		for _, part := range e.Parts {
			switch part := part.(type) {
			case *ast.TextPart:
				out.Parts = append(out.Parts, &TextPart{BaseNode: BaseNode{Loc: part.Location()}, Value: part.Value})
			case *ast.InterpolatedPart:
				inner, err := c.expr(part.Expression)
				if err != nil {
					return nil, err
				}
				out.Parts = append(out.Parts, &InterpolatedPart{BaseNode: BaseNode{Loc: part.Location()}, Expression: inner})
			}
		}
		return out, nil
	case *ast.ArrayExpression:
		out := &ArrayExpression{BaseNode: base}
		for _, el := range e.Elements {
			conv, err := c.expr(el)
			if err != nil {
				return nil, err
			}
			out.Elements = append(out.Elements, conv)
		}
		return out, nil
	case *ast.DictExpression:
		out := &DictExpression{BaseNode: base}
		for _, item := range e.Elements {
			key, err := c.expr(item.Key)
			if err != nil {
				return nil, err
			}
			val, err := c.expr(item.Val)
			if err != nil {
				return nil, err
			}
			out.Elements = append(out.Elements, &DictItem{BaseNode: BaseNode{Loc: item.Location()}, Key: key, Val: val})
		}
		return out, nil
	case *ast.ObjectExpression:
		return c.object(e)
	case *ast.FunctionExpression:
		return c.function(e)
	case *ast.CallExpression:
		return c.call(e, nil)
	case *ast.PipeExpression:
		pipe, err := c.expr(e.Argument)
		if err != nil {
			return nil, err
		}
		call, err := c.call(e.Call, pipe)
		if err != nil {
			return nil, err
		}
		call.Loc = e.Location()
		return call, nil
	case *ast.MemberExpression:
		return c.member(e)
	case *ast.IndexExpression:
		arr, err := c.expr(e.Array)
		if err != nil {
			return nil, err
		}
		idx, err := c.expr(e.Index)
		if err != nil {
			return nil, err
		}
		return &IndexExpression{BaseNode: base, Array: arr, Index: idx}, nil
	case *ast.BinaryExpression:
		left, err := c.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(e.Right)
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{BaseNode: base, Operator: e.Operator, Left: left, Right: right}, nil
	case *ast.UnaryExpression:
		arg, err := c.expr(e.Argument)
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{BaseNode: base, Operator: e.Operator, Argument: arg}, nil
	case *ast.LogicalExpression:
		left, err := c.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(e.Right)
		if err != nil {
			return nil, err
		}
		return &LogicalExpression{BaseNode: base, Operator: e.Operator, Left: left, Right: right}, nil
	case *ast.ConditionalExpression:
		test, err := c.expr(e.Test)
		if err != nil {
			return nil, err
		}
		cons, err := c.expr(e.Consequent)
		if err != nil {
			return nil, err
		}
		alt, err := c.expr(e.Alternate)
		if err != nil {
			return nil, err
		}
		return &ConditionalExpression{BaseNode: base, Test: test, Consequent: cons, Alternate: alt}, nil
	case *ast.BadExpression:
		return nil, errorfAt(e, "invalid expression: %s", e.Text)
	default:
		return nil, errorfAt(e, "unsupported expression %s", e.Type())
	}
}

func (c *converter) member(e *ast.MemberExpression) (*MemberExpression, error) {
	obj, err := c.expr(e.Object)
	if err != nil {
		return nil, err
	}
	return &MemberExpression{
		BaseNode: BaseNode{Loc: e.Location()},
		Object:   obj,
		Property: e.Property.Key(),
	}, nil
}

func (c *converter) properties(props []*ast.Property) ([]*Property, error) {
	out := make([]*Property, 0, len(props))
	for _, p := range props {
		prop := &Property{BaseNode: BaseNode{Loc: p.Location()}, Key: p.Key.Key()}
		if p.Value == nil {
			// {a} is short for {a: a}.
			prop.Value = &IdentifierExpression{BaseNode: BaseNode{Loc: p.Key.Location()}, Name: p.Key.Key()}
		} else {
			val, err := c.expr(p.Value)
			if err != nil {
				return nil, err
			}
			prop.Value = val
		}
		out = append(out, prop)
	}
	return out, nil
}

func (c *converter) object(e *ast.ObjectExpression) (*ObjectExpression, error) {
	props, err := c.properties(e.Properties)
	if err != nil {
		return nil, err
	}
	out := &ObjectExpression{BaseNode: BaseNode{Loc: e.Location()}, Properties: props}
	if e.With != nil {
		out.With = &IdentifierExpression{BaseNode: BaseNode{Loc: e.With.Location()}, Name: e.With.Name}
	}
	return out, nil
}

func (c *converter) call(e *ast.CallExpression, pipe Expression) (*CallExpression, error) {
	callee, err := c.expr(e.Callee)
	if err != nil {
		return nil, err
	}
	out := &CallExpression{
		BaseNode: BaseNode{Loc: e.Location()},
		Callee:   callee,
		Pipe:     pipe,
	}
	switch len(e.Arguments) {
	case 0:
	case 1:
		obj, ok := e.Arguments[0].(*ast.ObjectExpression)
		if !ok || obj.With != nil {
			return nil, errorfAt(e.Arguments[0], "arguments must be a list of named parameters")
		}
		args, err := c.properties(obj.Properties)
		if err != nil {
			return nil, err
		}
		out.Arguments = args
	default:
		return nil, errorfAt(e, "arguments must be a list of named parameters")
	}
	return out, nil
}

func (c *converter) function(e *ast.FunctionExpression) (*FunctionExpression, error) {
	out := &FunctionExpression{BaseNode: BaseNode{Loc: e.Location()}}

	pipes := 0
	for _, p := range e.Params {
		id, ok := p.Key.(*ast.Identifier)
		if !ok {
			return nil, errorfAt(p, "function parameters must be identifiers")
		}
		param := &FunctionParameter{BaseNode: BaseNode{Loc: p.Location()}, Key: c.ident(id)}
		switch v := p.Value.(type) {
		case nil:
		case *ast.PipeLiteral:
			pipes++
			if pipes > 1 {
				return nil, errorfAt(p, "function can only have one pipe parameter")
			}
			param.IsPipe = true
		default:
			def, err := c.expr(v)
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		out.Parameters = append(out.Parameters, param)
	}

	c.depth++
	defer func() { c.depth-- }()

	switch body := e.Body.(type) {
	case *ast.Block:
		stmts, err := c.statements(body.Body)
		if err != nil {
			return nil, err
		}
		for i, s := range stmts {
			if _, ok := s.(*ReturnStatement); ok && i != len(stmts)-1 {
				return nil, errorfAt(stmts[i+1], "statement follows return")
			}
		}
		block := &Block{BaseNode: BaseNode{Loc: body.Location()}, Body: stmts}
		if block.ReturnStatement() == nil {
			return nil, errorfAt(body, "missing return statement in block")
		}
		out.Block = block
	case ast.Expression:
		ret, err := c.expr(body)
		if err != nil {
			return nil, err
		}
		out.Block = &Block{
			BaseNode: BaseNode{Loc: body.Location()},
			Body:     []Statement{&ReturnStatement{BaseNode: BaseNode{Loc: body.Location()}, Argument: ret}},
		}
	default:
		return nil, errorfAt(e, "invalid function body")
	}
	return out, nil
}
