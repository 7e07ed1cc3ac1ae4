package parser

import (
	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/scanner"
)

// ParseTypeExpression parses a standalone type expression such as
// "(<-tables: [A], fn: (r: A) => bool) => [A] where A: Record".
func ParseTypeExpression(src string) (*ast.TypeExpression, error) {
	p := newParser("", []byte(src))
	ty := p.parseTypeExpression()
	if t := p.peek(); t.Tok != scanner.EOF {
		p.errorf("unexpected %s (%s) after type expression", t.Tok, t.Lit)
	}
	ty.Errors = append(ty.Errors, p.errs...)
	return ty, ast.GetError(ty)
}

func (p *parser) parseTypeExpression() *ast.TypeExpression {
	ty := p.parseMonoType()
	end := endOf(ty)

	var constraints []*ast.TypeConstraint
	if t := p.peek(); t.Tok == scanner.IDENT && t.Lit == "where" {
		p.consume()
		constraints = p.parseConstraints()
		end = endOf(constraints[len(constraints)-1])
	}
	return &ast.TypeExpression{
		BaseNode:    p.base(startOf(ty), end),
		Ty:          ty,
		Constraints: constraints,
	}
}

func (p *parser) parseMonoType() ast.MonoType {
	t := p.peek()
	switch t.Tok {
	case scanner.LBRACK:
		start := p.open(scanner.LBRACK, scanner.RBRACK)
		ty := p.parseMonoType()
		if p.peek().Tok == scanner.RBRACK {
			end := p.close(scanner.RBRACK)
			return &ast.ArrayType{
				BaseNode:    p.baseTokens(start, end),
				ElementType: ty,
			}
		}
		p.expect(scanner.COLON)
		val := p.parseMonoType()
		end := p.close(scanner.RBRACK)
		return &ast.DictType{
			BaseNode:  p.baseTokens(start, end),
			KeyType:   ty,
			ValueType: val,
		}
	case scanner.LBRACE:
		return p.parseRecordType()
	case scanner.LPAREN:
		return p.parseFunctionType()
	}

	id := p.parseIdentifier()
	// Single letters are type variables.
	if len(t.Lit) == 1 {
		return &ast.TvarType{BaseNode: p.baseNodes(id, id), ID: id}
	}
	return &ast.NamedType{BaseNode: p.baseNodes(id, id), ID: id}
}

func (p *parser) parseFunctionType() ast.MonoType {
	lparen := p.open(scanner.LPAREN, scanner.RPAREN)
	var params []*ast.ParameterType
	switch p.peek().Tok {
	case scanner.PIPE_RECEIVE, scanner.QUESTION_MARK, scanner.IDENT:
		params = p.parseParameterTypes()
	}
	p.close(scanner.RPAREN)
	p.expect(scanner.ARROW)
	ret := p.parseMonoType()
	return &ast.FunctionType{
		BaseNode:   p.base(startPos(lparen), endOf(ret)),
		Parameters: params,
		Return:     ret,
	}
}

func (p *parser) parseParameterTypes() []*ast.ParameterType {
	var params []*ast.ParameterType
	for p.more() {
		params = append(params, p.parseParameterType())
		if p.peek().Tok == scanner.COMMA {
			p.consume()
		}
	}
	return params
}

func (p *parser) parseParameterType() *ast.ParameterType {
	switch t := p.peek(); t.Tok {
	case scanner.QUESTION_MARK:
		p.consume()
		name := p.parseIdentifier()
		p.expect(scanner.COLON)
		ty := p.parseMonoType()
		return &ast.ParameterType{
			BaseNode: p.base(startPos(t), endOf(ty)),
			Kind:     ast.Optional,
			Name:     name,
			Ty:       ty,
		}
	case scanner.PIPE_RECEIVE:
		p.consume()
		var name *ast.Identifier
		if p.peek().Tok == scanner.IDENT {
			name = p.parseIdentifier()
		}
		p.expect(scanner.COLON)
		ty := p.parseMonoType()
		return &ast.ParameterType{
			BaseNode: p.base(startPos(t), endOf(ty)),
			Kind:     ast.Pipe,
			Name:     name,
			Ty:       ty,
		}
	default:
		name := p.parseIdentifier()
		p.expect(scanner.COLON)
		ty := p.parseMonoType()
		return &ast.ParameterType{
			BaseNode: p.baseNodes(name, ty),
			Kind:     ast.Required,
			Name:     name,
			Ty:       ty,
		}
	}
}

func (p *parser) parseConstraints() []*ast.TypeConstraint {
	constraints := []*ast.TypeConstraint{p.parseConstraint()}
	for p.peek().Tok == scanner.COMMA {
		p.consume()
		constraints = append(constraints, p.parseConstraint())
	}
	return constraints
}

func (p *parser) parseConstraint() *ast.TypeConstraint {
	tvar := p.parseIdentifier()
	p.expect(scanner.COLON)
	kinds := []*ast.Identifier{p.parseIdentifier()}
	for p.peek().Tok == scanner.ADD {
		p.consume()
		kinds = append(kinds, p.parseIdentifier())
	}
	return &ast.TypeConstraint{
		BaseNode: p.baseNodes(tvar, kinds[len(kinds)-1]),
		Tvar:     tvar,
		Kinds:    kinds,
	}
}

// parseRecordType parses "{}", "{a: T, ...}" and "{R with a: T, ...}".
func (p *parser) parseRecordType() ast.MonoType {
	start := p.open(scanner.LBRACE, scanner.RBRACE)

	var (
		tvar  *ast.Identifier
		props []*ast.PropertyType
	)
	if p.peek().Tok == scanner.IDENT {
		id := p.parseIdentifier()
		switch t := p.peek(); {
		case t.Tok == scanner.COLON:
			props = p.parsePropertyTypeListSuffix(id)
		case t.Tok == scanner.IDENT && t.Lit == "with":
			tvar = id
			p.consume()
			props = p.parsePropertyTypeListSuffix(p.parseIdentifier())
		}
		// Anything else is reported by close.
	}

	end := p.close(scanner.RBRACE)
	return &ast.RecordType{
		BaseNode:   p.baseTokens(start, end),
		Tvar:       tvar,
		Properties: props,
	}
}

func (p *parser) parsePropertyTypeListSuffix(id *ast.Identifier) []*ast.PropertyType {
	props := []*ast.PropertyType{p.parsePropertyTypeSuffix(id)}
	if p.peek().Tok == scanner.COMMA {
		p.consume()
	}
	for p.more() {
		props = append(props, p.parsePropertyTypeSuffix(p.parseIdentifier()))
		if p.peek().Tok == scanner.COMMA {
			p.consume()
		}
	}
	return props
}

func (p *parser) parsePropertyTypeSuffix(id *ast.Identifier) *ast.PropertyType {
	p.expect(scanner.COLON)
	ty := p.parseMonoType()
	return &ast.PropertyType{
		BaseNode: p.baseNodes(id, ty),
		Name:     id,
		Ty:       ty,
	}
}
