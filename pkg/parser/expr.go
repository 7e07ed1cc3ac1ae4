package parser

import (
	"strconv"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/scanner"
)

var (
	comparisonOperators = map[scanner.Token]ast.OperatorKind{
		scanner.EQ:       ast.EqualOperator,
		scanner.NEQ:      ast.NotEqualOperator,
		scanner.LTE:      ast.LessThanEqualOperator,
		scanner.LT:       ast.LessThanOperator,
		scanner.GTE:      ast.GreaterThanEqualOperator,
		scanner.GT:       ast.GreaterThanOperator,
		scanner.REGEXEQ:  ast.RegexpMatchOperator,
		scanner.REGEXNEQ: ast.NotRegexpMatchOperator,
	}
	additiveOperators = map[scanner.Token]ast.OperatorKind{
		scanner.ADD: ast.AdditionOperator,
		scanner.SUB: ast.SubtractionOperator,
	}
	multiplicativeOperators = map[scanner.Token]ast.OperatorKind{
		scanner.MUL: ast.MultiplicationOperator,
		scanner.DIV: ast.DivisionOperator,
		scanner.MOD: ast.ModuloOperator,
	}
	exponentOperators = map[scanner.Token]ast.OperatorKind{
		scanner.POW: ast.PowerOperator,
	}
	logicalUnaryOperators = map[scanner.Token]ast.OperatorKind{
		scanner.NOT:    ast.NotOperator,
		scanner.EXISTS: ast.ExistsOperator,
	}
)

func (p *parser) parseExpression() ast.Expression {
	return p.parseConditionalExpression()
}

// parseExpressionWhileMore parses expressions until the block ends or a
// stop token shows up. Consecutive expressions are joined by a binary
// expression with an invalid operator, and tokens that cannot start an
// expression are skipped with an error.
func (p *parser) parseExpressionWhileMore(init ast.Expression, stop ...scanner.Token) ast.Expression {
	expr := init
	for p.more() && !isStop(p.peek().Tok, stop) {
		e := p.parseExpression()
		if _, bad := e.(*ast.BadExpression); bad {
			t := p.scan()
			p.errorf("invalid expression @%v-%v: %s", startPos(t), endPos(t), t.Lit)
			continue
		}
		if expr == nil {
			expr = e
			continue
		}
		expr = &ast.BinaryExpression{
			BaseNode: p.baseNodes(expr, e),
			Operator: ast.InvalidOperator,
			Left:     expr,
			Right:    e,
		}
	}
	return expr
}

func isStop(tok scanner.Token, stop []scanner.Token) bool {
	for _, s := range stop {
		if tok == s {
			return true
		}
	}
	return false
}

// parseExpressionSuffix continues an expression whose leading identifier
// has already been consumed.
func (p *parser) parseExpressionSuffix(expr ast.Expression) ast.Expression {
	expr = p.parsePostfixOperatorSuffix(expr)
	expr = p.parsePipeExpressionSuffix(expr)
	expr = p.binarySuffix(expr, exponentOperators, p.parsePipeExpression)
	expr = p.binarySuffix(expr, multiplicativeOperators, p.parseExponentExpression)
	expr = p.binarySuffix(expr, additiveOperators, p.parseMultiplicativeExpression)
	expr = p.binarySuffix(expr, comparisonOperators, p.parseAdditiveExpression)
	expr = p.parseLogicalAndExpressionSuffix(expr)
	return p.parseLogicalOrExpressionSuffix(expr)
}

func (p *parser) parseConditionalExpression() ast.Expression {
	t := p.peek()
	if t.Tok != scanner.IF {
		return p.parseLogicalOrExpression()
	}
	p.consume()
	test := p.parseExpression()
	p.expect(scanner.THEN)
	cons := p.parseExpression()
	p.expect(scanner.ELSE)
	alt := p.parseExpression()
	return &ast.ConditionalExpression{
		BaseNode:   p.base(startPos(t), endOf(alt)),
		Test:       test,
		Consequent: cons,
		Alternate:  alt,
	}
}

func (p *parser) parseLogicalOrExpression() ast.Expression {
	return p.parseLogicalOrExpressionSuffix(p.parseLogicalAndExpression())
}

func (p *parser) parseLogicalOrExpressionSuffix(expr ast.Expression) ast.Expression {
	for p.peek().Tok == scanner.OR {
		p.consume()
		rhs := p.parseLogicalAndExpression()
		expr = &ast.LogicalExpression{
			BaseNode: p.baseNodes(expr, rhs),
			Operator: ast.OrOperator,
			Left:     expr,
			Right:    rhs,
		}
	}
	return expr
}

func (p *parser) parseLogicalAndExpression() ast.Expression {
	return p.parseLogicalAndExpressionSuffix(p.parseLogicalUnaryExpression())
}

func (p *parser) parseLogicalAndExpressionSuffix(expr ast.Expression) ast.Expression {
	for p.peek().Tok == scanner.AND {
		p.consume()
		rhs := p.parseLogicalUnaryExpression()
		expr = &ast.LogicalExpression{
			BaseNode: p.baseNodes(expr, rhs),
			Operator: ast.AndOperator,
			Left:     expr,
			Right:    rhs,
		}
	}
	return expr
}

func (p *parser) parseLogicalUnaryExpression() ast.Expression {
	t := p.peek()
	op, ok := logicalUnaryOperators[t.Tok]
	if !ok {
		return p.parseComparisonExpression()
	}
	p.consume()
	arg := p.parseLogicalUnaryExpression()
	return &ast.UnaryExpression{
		BaseNode: p.base(startPos(t), endOf(arg)),
		Operator: op,
		Argument: arg,
	}
}

func (p *parser) parseComparisonExpression() ast.Expression {
	return p.binarySuffix(p.parseAdditiveExpression(), comparisonOperators, p.parseAdditiveExpression)
}

func (p *parser) parseAdditiveExpression() ast.Expression {
	return p.binarySuffix(p.parseMultiplicativeExpression(), additiveOperators, p.parseMultiplicativeExpression)
}

func (p *parser) parseMultiplicativeExpression() ast.Expression {
	return p.binarySuffix(p.parseExponentExpression(), multiplicativeOperators, p.parseExponentExpression)
}

func (p *parser) parseExponentExpression() ast.Expression {
	return p.binarySuffix(p.parsePipeExpression(), exponentOperators, p.parsePipeExpression)
}

// binarySuffix folds left-associative operators of one precedence level.
func (p *parser) binarySuffix(expr ast.Expression, ops map[scanner.Token]ast.OperatorKind, next func() ast.Expression) ast.Expression {
	for {
		op, ok := ops[p.peek().Tok]
		if !ok {
			return expr
		}
		p.consume()
		rhs := next()
		expr = &ast.BinaryExpression{
			BaseNode: p.baseNodes(expr, rhs),
			Operator: op,
			Left:     expr,
			Right:    rhs,
		}
	}
}

func (p *parser) parsePipeExpression() ast.Expression {
	return p.parsePipeExpressionSuffix(p.parseUnaryExpression())
}

func (p *parser) parsePipeExpressionSuffix(expr ast.Expression) ast.Expression {
	for p.peek().Tok == scanner.PIPE_FORWARD {
		p.consume()
		rhs := p.parseUnaryExpression()
		call, ok := rhs.(*ast.CallExpression)
		if !ok {
			p.errorf("pipe destination must be a function call")
			call = &ast.CallExpression{
				BaseNode: p.baseNodes(rhs, rhs),
				Callee:   rhs,
			}
		}
		expr = &ast.PipeExpression{
			BaseNode: p.baseNodes(expr, call),
			Argument: expr,
			Call:     call,
		}
	}
	return expr
}

func (p *parser) parseUnaryExpression() ast.Expression {
	t := p.peek()
	op, ok := additiveOperators[t.Tok]
	if !ok {
		return p.parsePostfixExpression()
	}
	p.consume()
	arg := p.parseUnaryExpression()
	return &ast.UnaryExpression{
		BaseNode: p.base(startPos(t), endOf(arg)),
		Operator: op,
		Argument: arg,
	}
}

func (p *parser) parsePostfixExpression() ast.Expression {
	return p.parsePostfixOperatorSuffix(p.parsePrimaryExpression())
}

func (p *parser) parsePostfixOperatorSuffix(expr ast.Expression) ast.Expression {
	for {
		switch p.peek().Tok {
		case scanner.DOT:
			expr = p.parseDotExpression(expr)
		case scanner.LPAREN:
			expr = p.parseCallExpression(expr)
		case scanner.LBRACK:
			expr = p.parseIndexExpression(expr)
		default:
			return expr
		}
	}
}

func (p *parser) parseDotExpression(expr ast.Expression) ast.Expression {
	p.expect(scanner.DOT)
	prop := p.parseIdentifier()
	return &ast.MemberExpression{
		BaseNode: p.baseNodes(expr, prop),
		Object:   expr,
		Property: prop,
	}
}

func (p *parser) parseCallExpression(callee ast.Expression) ast.Expression {
	p.open(scanner.LPAREN, scanner.RPAREN)
	params := p.parsePropertyList()
	end := p.close(scanner.RPAREN)

	call := &ast.CallExpression{Callee: callee}
	if len(params) > 0 {
		call.Arguments = []ast.Expression{
			&ast.ObjectExpression{
				BaseNode:   p.baseNodes(params[0], params[len(params)-1]),
				Properties: params,
			},
		}
	}
	call.BaseNode = p.base(startOf(callee), endPos(end))
	return call
}

func (p *parser) parseIndexExpression(expr ast.Expression) ast.Expression {
	start := p.open(scanner.LBRACK, scanner.RBRACK)
	index := p.parseExpressionWhileMore(nil)
	end := p.close(scanner.RBRACK)

	switch index := index.(type) {
	case *ast.StringLiteral:
		return &ast.MemberExpression{
			BaseNode: p.base(startOf(expr), endPos(end)),
			Object:   expr,
			Property: index,
		}
	case nil:
		p.errorf("no expression included in brackets")
		base := p.base(startOf(expr), endPos(end))
		return &ast.IndexExpression{
			BaseNode: base,
			Array:    expr,
			Index: &ast.IntegerLiteral{
				BaseNode: p.baseTokens(start, end),
				Value:    -1,
			},
		}
	default:
		return &ast.IndexExpression{
			BaseNode: p.base(startOf(expr), endPos(end)),
			Array:    expr,
			Index:    index,
		}
	}
}

func (p *parser) parsePrimaryExpression() ast.Expression {
	t := p.peekWithRegex()
	switch t.Tok {
	case scanner.IDENT:
		return p.parseIdentifier()
	case scanner.INT:
		return p.parseIntLiteral()
	case scanner.FLOAT:
		return p.parseFloatLiteral()
	case scanner.STRING:
		return p.parseStringLiteral()
	case scanner.QUOTE:
		return p.parseStringExpression()
	case scanner.REGEX:
		return p.parseRegexpLiteral()
	case scanner.TIME:
		return p.parseTimeLiteral()
	case scanner.DURATION:
		return p.parseDurationLiteral()
	case scanner.PIPE_RECEIVE:
		t := p.consume()
		return &ast.PipeLiteral{BaseNode: p.baseTokens(t, t)}
	case scanner.LBRACK:
		start := p.open(scanner.LBRACK, scanner.RBRACK)
		return p.parseArrayOrDict(start)
	case scanner.LBRACE:
		return p.parseObjectLiteral()
	case scanner.LPAREN:
		return p.parseParenExpression()
	default:
		// Left in place; callers decide whether to skip it.
		return p.badExpression(t)
	}
}

// badExpression marks a token that cannot start an expression. Pending
// errors stay with the parent.
func (p *parser) badExpression(t scanner.TokenInfo) *ast.BadExpression {
	return &ast.BadExpression{
		BaseNode: ast.BaseNode{Loc: p.sourceLocation(startPos(t), endPos(t))},
		Text:     "invalid token for primary expression: " + t.Tok.String(),
	}
}

func (p *parser) parseIdentifier() *ast.Identifier {
	t := p.expect(scanner.IDENT)
	return &ast.Identifier{
		BaseNode: p.baseTokens(t, t),
		Name:     t.Lit,
	}
}

func (p *parser) parseIntLiteral() *ast.IntegerLiteral {
	t := p.expect(scanner.INT)
	v, err := strconv.ParseInt(t.Lit, 10, 64)
	if err != nil {
		p.errorf("invalid integer literal %q: value out of range", t.Lit)
		v = 0
	}
	return &ast.IntegerLiteral{
		BaseNode: p.baseTokens(t, t),
		Value:    v,
	}
}

func (p *parser) parseFloatLiteral() ast.Expression {
	t := p.expect(scanner.FLOAT)
	v, err := strconv.ParseFloat(t.Lit, 64)
	if err != nil {
		return p.badExpression(t)
	}
	return &ast.FloatLiteral{
		BaseNode: p.baseTokens(t, t),
		Value:    v,
	}
}

func (p *parser) parseStringLiteral() *ast.StringLiteral {
	t := p.expect(scanner.STRING)
	v, err := ParseString(t.Lit)
	if err != nil {
		p.errorf("%s", err)
	}
	return &ast.StringLiteral{
		BaseNode: p.baseTokens(t, t),
		Value:    v,
	}
}

func (p *parser) parseRegexpLiteral() *ast.RegexpLiteral {
	t := p.expect(scanner.REGEX)
	v, err := ParseRegex(t.Lit)
	if err != nil {
		p.errorf("%s", err)
	}
	return &ast.RegexpLiteral{
		BaseNode: p.baseTokens(t, t),
		Value:    v,
	}
}

func (p *parser) parseTimeLiteral() ast.Expression {
	t := p.expect(scanner.TIME)
	v, err := ParseTime(t.Lit)
	if err != nil {
		return p.badExpression(t)
	}
	return &ast.DateTimeLiteral{
		BaseNode: p.baseTokens(t, t),
		Value:    v,
	}
}

func (p *parser) parseDurationLiteral() ast.Expression {
	t := p.expect(scanner.DURATION)
	values, err := ParseDuration(t.Lit)
	if err != nil {
		return p.badExpression(t)
	}
	return &ast.DurationLiteral{
		BaseNode: p.baseTokens(t, t),
		Values:   values,
	}
}

func (p *parser) parseStringExpression() ast.Expression {
	start := p.expect(scanner.QUOTE)
	var parts []ast.StringExpressionPart
	for {
		// String bodies are scanned in their own mode, so nothing may be
		// buffered from the default one.
		p.unpeek()
		t := p.s.Scan(scanner.StringMode)
		switch t.Tok {
		case scanner.TEXT:
			v, err := ParseText(t.Lit)
			if err != nil {
				p.errorf("%s", err)
				v = t.Lit
			}
			parts = append(parts, &ast.TextPart{
				BaseNode: p.baseTokens(t, t),
				Value:    v,
			})
		case scanner.STRINGEXPR:
			p.blocks[scanner.RBRACE]++
			expr := p.parseExpression()
			end := p.close(scanner.RBRACE)
			parts = append(parts, &ast.InterpolatedPart{
				BaseNode:   p.base(startPos(t), endPos(end)),
				Expression: expr,
			})
		case scanner.QUOTE:
			return &ast.StringExpression{
				BaseNode: p.baseTokens(start, t),
				Parts:    parts,
			}
		default:
			p.errorf("got unexpected token in string expression %s@%d:%d-%d:%d: %s",
				p.fname, t.Start.Line, t.Start.Column, t.End.Line, t.End.Column, t.Tok)
			return &ast.StringExpression{
				BaseNode: p.baseTokens(start, t),
			}
		}
	}
}

func (p *parser) parseArrayOrDict(start scanner.TokenInfo) ast.Expression {
	switch p.peek().Tok {
	case scanner.COLON:
		p.consume()
		end := p.close(scanner.RBRACK)
		return &ast.DictExpression{BaseNode: p.baseTokens(start, end)}
	case scanner.RBRACK:
		end := p.close(scanner.RBRACK)
		return &ast.ArrayExpression{BaseNode: p.baseTokens(start, end)}
	}

	expr := p.parseExpression()
	if p.peek().Tok == scanner.COLON {
		p.consume()
		val := p.parseExpression()
		return p.parseDictItemsRest(start, expr, val)
	}
	return p.parseArrayItemsRest(start, expr)
}

func (p *parser) parseArrayItemsRest(start scanner.TokenInfo, init ast.Expression) ast.Expression {
	items := []ast.Expression{init}
	if p.peek().Tok != scanner.RBRACK {
		p.expect(scanner.COMMA)
		last := p.peek().StartOffset
		for p.more() {
			items = append(items, p.parseExpression())
			if p.peek().Tok == scanner.COMMA {
				p.scan()
			}
			// The same token twice in a row means nothing was parsed.
			this := p.peek().StartOffset
			if this == last {
				break
			}
			last = this
		}
	}
	end := p.close(scanner.RBRACK)
	return &ast.ArrayExpression{
		BaseNode: p.baseTokens(start, end),
		Elements: items,
	}
}

func (p *parser) parseDictItemsRest(start scanner.TokenInfo, key, val ast.Expression) ast.Expression {
	items := []*ast.DictItem{{
		BaseNode: p.baseNodes(key, val),
		Key:      key,
		Val:      val,
	}}
	if p.peek().Tok != scanner.RBRACK {
		p.expect(scanner.COMMA)
		for p.more() {
			key := p.parseExpression()
			p.expect(scanner.COLON)
			val := p.parseExpression()
			if p.peek().Tok == scanner.COMMA {
				p.scan()
			}
			items = append(items, &ast.DictItem{
				BaseNode: p.baseNodes(key, val),
				Key:      key,
				Val:      val,
			})
		}
	}
	end := p.close(scanner.RBRACK)
	return &ast.DictExpression{
		BaseNode: p.baseTokens(start, end),
		Elements: items,
	}
}

func (p *parser) parseObjectLiteral() *ast.ObjectExpression {
	start := p.open(scanner.LBRACE, scanner.RBRACE)
	obj := p.parseObjectBody()
	end := p.close(scanner.RBRACE)
	obj.BaseNode = p.baseTokens(start, end)
	return obj
}

func (p *parser) parseObjectBody() *ast.ObjectExpression {
	switch p.peek().Tok {
	case scanner.IDENT:
		id := p.parseIdentifier()
		return p.parseObjectBodySuffix(id)
	case scanner.STRING:
		key := p.parseStringLiteral()
		return &ast.ObjectExpression{Properties: p.parsePropertyListSuffix(key)}
	default:
		return &ast.ObjectExpression{Properties: p.parsePropertyList()}
	}
}

func (p *parser) parseObjectBodySuffix(id *ast.Identifier) *ast.ObjectExpression {
	t := p.peek()
	if t.Tok != scanner.IDENT {
		return &ast.ObjectExpression{Properties: p.parsePropertyListSuffix(id)}
	}
	if t.Lit != "with" {
		p.errorf("expected with, got %s", t.Lit)
	}
	p.consume()
	return &ast.ObjectExpression{
		With:       id,
		Properties: p.parsePropertyList(),
	}
}

func (p *parser) parsePropertyListSuffix(key ast.PropertyKey) []*ast.Property {
	props := []*ast.Property{p.parsePropertySuffix(key)}
	if !p.more() {
		return props
	}
	if t := p.peek(); t.Tok != scanner.COMMA {
		p.errorf("expected comma in property list, got %s", t.Tok)
	} else {
		p.consume()
	}
	return append(props, p.parsePropertyList()...)
}

func (p *parser) parsePropertyList() []*ast.Property {
	var props []*ast.Property
	var errs []ast.Error
	for p.more() {
		var prop *ast.Property
		switch p.peek().Tok {
		case scanner.IDENT:
			prop = p.parsePropertySuffix(p.parseIdentifier())
		case scanner.STRING:
			prop = p.parsePropertySuffix(p.parseStringLiteral())
		default:
			prop = p.parseInvalidProperty()
		}
		if p.more() {
			if t := p.peek(); t.Tok != scanner.COMMA {
				errs = append(errs, ast.Error{Msg: "expected comma in property list, got " + t.Tok.String()})
			} else {
				p.consume()
			}
		}
		props = append(props, prop)
	}
	p.errs = append(p.errs, errs...)
	return props
}

func (p *parser) parsePropertySuffix(key ast.PropertyKey) *ast.Property {
	var value ast.Expression
	if p.peek().Tok == scanner.COLON {
		p.consume()
		value = p.parsePropertyValue()
	}
	var end ast.Node = key
	if value != nil {
		end = value
	}
	return &ast.Property{
		BaseNode: p.baseNodes(key, end),
		Key:      key,
		Value:    value,
	}
}

func (p *parser) parseInvalidProperty() *ast.Property {
	var value ast.Expression
	t := p.peek()
	switch t.Tok {
	case scanner.COLON:
		p.errorf("missing property key")
		p.consume()
		value = p.parsePropertyValue()
	case scanner.COMMA:
		p.errorf("missing property in property list")
	default:
		p.errorf("unexpected token for property key: %s (%s)", t.Tok, t.Lit)
		// Skip ahead to the next comma, colon, or end of block.
		p.parseExpressionWhileMore(nil, scanner.COMMA, scanner.COLON)
		if p.peek().Tok == scanner.COLON {
			p.consume()
			value = p.parsePropertyValue()
		}
	}

	base := p.base(startPos(t), startPos(p.peek()))
	return &ast.Property{
		BaseNode: base,
		Key: &ast.StringLiteral{
			BaseNode: p.base(startPos(t), startPos(t)),
			Value:    "<invalid>",
		},
		Value: value,
	}
}

func (p *parser) parsePropertyValue() ast.Expression {
	value := p.parseExpressionWhileMore(nil, scanner.COMMA, scanner.COLON)
	if value == nil {
		p.errorf("missing property value")
	}
	return value
}

func (p *parser) parseParenExpression() ast.Expression {
	lparen := p.open(scanner.LPAREN, scanner.RPAREN)
	return p.parseParenBodyExpression(lparen)
}

func (p *parser) parseParenBodyExpression(lparen scanner.TokenInfo) ast.Expression {
	t := p.peek()
	switch t.Tok {
	case scanner.RPAREN:
		rparen := p.close(scanner.RPAREN)
		return p.parseFunctionExpression(lparen, rparen, nil)
	case scanner.IDENT:
		id := p.parseIdentifier()
		return p.parseParenIdentExpression(lparen, id)
	}

	expr := p.parseExpressionWhileMore(nil)
	if expr == nil {
		expr = &ast.BadExpression{
			BaseNode: ast.BaseNode{Loc: p.sourceLocation(startPos(t), endPos(t))},
			Text:     t.Lit,
		}
	}
	rparen := p.close(scanner.RPAREN)
	return &ast.ParenExpression{
		BaseNode:   p.baseTokens(lparen, rparen),
		Expression: expr,
	}
}

func (p *parser) parseParenIdentExpression(lparen scanner.TokenInfo, key *ast.Identifier) ast.Expression {
	switch p.peek().Tok {
	case scanner.RPAREN:
		rparen := p.close(scanner.RPAREN)
		if p.peek().Tok == scanner.ARROW {
			params := []*ast.Property{{
				BaseNode: p.baseNodes(key, key),
				Key:      key,
			}}
			return p.parseFunctionExpression(lparen, rparen, params)
		}
		return &ast.ParenExpression{
			BaseNode:   p.baseTokens(lparen, rparen),
			Expression: key,
		}
	case scanner.ASSIGN:
		p.consume()
		value := p.parseExpression()
		params := []*ast.Property{{
			BaseNode: p.baseNodes(key, value),
			Key:      key,
			Value:    value,
		}}
		if p.peek().Tok == scanner.COMMA {
			p.scan()
			params = append(params, p.parseParameterList()...)
		}
		rparen := p.close(scanner.RPAREN)
		return p.parseFunctionExpression(lparen, rparen, params)
	case scanner.COMMA:
		p.consume()
		params := []*ast.Property{{
			BaseNode: p.baseNodes(key, key),
			Key:      key,
		}}
		params = append(params, p.parseParameterList()...)
		rparen := p.close(scanner.RPAREN)
		return p.parseFunctionExpression(lparen, rparen, params)
	}

	expr := p.parseExpressionSuffix(key)
	for p.more() {
		rhs := p.parseExpression()
		if _, bad := rhs.(*ast.BadExpression); bad {
			t := p.scan()
			p.errorf("invalid expression @%v-%v: %s", startPos(t), endPos(t), t.Lit)
			continue
		}
		expr = &ast.BinaryExpression{
			BaseNode: p.baseNodes(expr, rhs),
			Operator: ast.InvalidOperator,
			Left:     expr,
			Right:    rhs,
		}
	}
	rparen := p.close(scanner.RPAREN)
	return &ast.ParenExpression{
		BaseNode:   p.baseTokens(lparen, rparen),
		Expression: expr,
	}
}

func (p *parser) parseParameterList() []*ast.Property {
	var params []*ast.Property
	for p.more() {
		params = append(params, p.parseParameter())
		if p.peek().Tok == scanner.COMMA {
			p.scan()
		}
	}
	return params
}

func (p *parser) parseParameter() *ast.Property {
	key := p.parseIdentifier()
	if p.peek().Tok != scanner.ASSIGN {
		return &ast.Property{
			BaseNode: p.baseNodes(key, key),
			Key:      key,
		}
	}
	p.scan()
	value := p.parseExpression()
	return &ast.Property{
		BaseNode: p.baseNodes(key, value),
		Key:      key,
		Value:    value,
	}
}

func (p *parser) parseFunctionExpression(lparen, rparen scanner.TokenInfo, params []*ast.Property) ast.Expression {
	p.expect(scanner.ARROW)
	var body ast.Node
	if p.peek().Tok == scanner.LBRACE {
		body = p.parseBlock()
	} else {
		body = p.parseExpression()
	}
	return &ast.FunctionExpression{
		BaseNode: p.base(startPos(lparen), endOf(body)),
		Params:   params,
		Body:     body,
	}
}
