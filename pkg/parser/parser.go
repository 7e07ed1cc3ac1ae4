// Package parser turns Flux source text into an ast.File. Parsing never
// fails outright: syntax errors are recorded on the nodes they affect and
// can be collected with ast.Check or ast.GetError.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/scanner"
)

// Metadata identifies files produced by this parser.
const Metadata = "parser-type=fluxc"

// Source is a named chunk of Flux source.
type Source struct {
	Name string
	Data []byte
}

// ParseFile parses one file.
func ParseFile(fname string, src []byte) *ast.File {
	return newParser(fname, src).parseFile()
}

// Parse parses src into a package holding a single file. The package is
// named after the file's package clause, or "main" without one.
func Parse(fname string, src []byte) *ast.Package {
	f := ParseFile(fname, src)
	pkg := &ast.Package{
		Package: ast.DefaultPackageName,
		Files:   []*ast.File{f},
	}
	if f.Package != nil && f.Package.Name != nil {
		pkg.Package = f.Package.Name.Name
	}
	return pkg
}

// ParseFiles parses every source concurrently and merges the results into
// one package, keeping the order of srcs. It fails if the files disagree
// on their package name.
func ParseFiles(ctx context.Context, srcs []Source) (*ast.Package, error) {
	pkgs := make([]*ast.Package, len(srcs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range srcs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pkgs[i] = Parse(src.Name, src.Data)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(pkgs) == 0 {
		return &ast.Package{Package: ast.DefaultPackageName}, nil
	}
	root := pkgs[0]
	for _, pkg := range pkgs[1:] {
		if err := ast.MergePackages(root, pkg); err != nil {
			return nil, err
		}
	}
	return root, nil
}

type parser struct {
	s     *scanner.Scanner
	src   []byte
	fname string

	// tok is the token buffered by peek, if any.
	tok *scanner.TokenInfo

	// errs collects errors until the next node is built.
	errs []ast.Error

	// blocks counts the open brackets by their closing token.
	blocks map[scanner.Token]int
}

func newParser(fname string, src []byte) *parser {
	// Invalid bytes become U+FFFD up front, so every string in the tree
	// is valid UTF-8 and positions refer to the text the tree holds.
	if !utf8.Valid(src) {
		src = bytes.ToValidUTF8(src, []byte(string(utf8.RuneError)))
	}
	return &parser{
		s:      scanner.New(src),
		src:    src,
		fname:  fname,
		blocks: map[scanner.Token]int{},
	}
}

func (p *parser) scan() scanner.TokenInfo {
	if p.tok != nil {
		t := *p.tok
		p.tok = nil
		return t
	}
	return p.s.Scan(scanner.DefaultMode)
}

func (p *parser) peek() scanner.TokenInfo {
	if p.tok == nil {
		t := p.s.Scan(scanner.DefaultMode)
		p.tok = &t
	}
	return *p.tok
}

// peekWithRegex is peek for places where a regex literal may start. A
// buffered division is rescanned as a regex.
func (p *parser) peekWithRegex() scanner.TokenInfo {
	if p.tok != nil && p.tok.Tok == scanner.DIV {
		p.s.Unread()
		p.tok = nil
	}
	if p.tok == nil {
		t := p.s.Scan(scanner.RegexMode)
		p.tok = &t
	}
	return *p.tok
}

// unpeek drops the buffered token so the scanner can rescan it in another
// mode.
func (p *parser) unpeek() {
	if p.tok != nil {
		p.s.Unread()
		p.tok = nil
	}
}

func (p *parser) consume() scanner.TokenInfo {
	return p.scan()
}

// expect consumes tokens until one of type exp shows up. It gives up
// without consuming at EOF or at a token closing an open bracket, and
// then returns an empty token positioned where exp was wanted.
func (p *parser) expect(exp scanner.Token) scanner.TokenInfo {
	for {
		t := p.peek()
		switch {
		case t.Tok == exp:
			return p.consume()
		case t.Tok == scanner.EOF:
			p.errorf("expected %s, got EOF", exp)
			return missing(t)
		case p.blocks[t.Tok] > 0:
			p.errorf("expected %s, got %s (%s) at %s", exp, t.Tok, t.Lit, t.Start)
			return missing(t)
		default:
			p.consume()
			p.errorf("expected %s, got %s (%s) at %s", exp, t.Tok, t.Lit, t.Start)
		}
	}
}

// missing is a zero-width token at the start of t.
func missing(t scanner.TokenInfo) scanner.TokenInfo {
	return scanner.TokenInfo{
		Tok:         t.Tok,
		StartOffset: t.StartOffset,
		EndOffset:   t.StartOffset,
		Start:       t.Start,
		End:         t.Start,
	}
}

func (p *parser) open(start, end scanner.Token) scanner.TokenInfo {
	t := p.expect(start)
	p.blocks[end]++
	return t
}

// more reports whether the current block continues.
func (p *parser) more() bool {
	t := p.peek()
	if t.Tok == scanner.EOF {
		return false
	}
	return p.blocks[t.Tok] == 0
}

func (p *parser) close(end scanner.Token) scanner.TokenInfo {
	p.blocks[end]--
	t := p.peek()
	if t.Tok == end {
		return p.consume()
	}
	p.errorf("expected %s, got %s", end, t.Tok)
	return missing(t)
}

func (p *parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, ast.Error{Msg: fmt.Sprintf(format, args...)})
}

func startPos(t scanner.TokenInfo) ast.Position {
	return ast.Position{Line: t.Start.Line, Column: t.Start.Column}
}

func endPos(t scanner.TokenInfo) ast.Position {
	return ast.Position{Line: t.End.Line, Column: t.End.Column}
}

func startOf(n ast.Node) ast.Position {
	return n.Location().Start
}

func endOf(n ast.Node) ast.Position {
	return n.Location().End
}

// offset maps a position back to its byte offset in the source.
func (p *parser) offset(pos ast.Position) int {
	off := pos.Column - 1
	if nl := p.s.Newlines(); pos.Line > 1 && pos.Line-2 < len(nl) {
		off += nl[pos.Line-2] + 1
	}
	return max(0, min(off, len(p.src)))
}

func (p *parser) sourceLocation(start, end ast.Position) *ast.SourceLocation {
	if !start.IsValid() || !end.IsValid() {
		return nil
	}
	s, e := p.offset(start), p.offset(end)
	if e < s {
		e = s
	}
	return &ast.SourceLocation{
		File:   p.fname,
		Start:  start,
		End:    end,
		Source: string(p.src[s:e]),
	}
}

// base builds the BaseNode for a span, handing it every pending error.
func (p *parser) base(start, end ast.Position) ast.BaseNode {
	errs := p.errs
	p.errs = nil
	return ast.BaseNode{Loc: p.sourceLocation(start, end), Errors: errs}
}

func (p *parser) baseTokens(start, end scanner.TokenInfo) ast.BaseNode {
	return p.base(startPos(start), endPos(end))
}

func (p *parser) baseNodes(start, end ast.Node) ast.BaseNode {
	return p.base(startOf(start), endOf(end))
}

func (p *parser) parseFile() *ast.File {
	start := startPos(p.peek())
	var end ast.Position

	f := &ast.File{
		Name:     p.fname,
		Metadata: Metadata,
	}
	if f.Package = p.parsePackageClause(); f.Package != nil {
		end = endOf(f.Package)
	}
	if f.Imports = p.parseImportList(); len(f.Imports) > 0 {
		end = endOf(f.Imports[len(f.Imports)-1])
	}
	if f.Body = p.parseStatementList(); len(f.Body) > 0 {
		end = endOf(f.Body[len(f.Body)-1])
	}
	f.BaseNode = p.base(start, end)
	return f
}

func (p *parser) parsePackageClause() *ast.PackageClause {
	if p.peek().Tok != scanner.PACKAGE {
		return nil
	}
	t := p.consume()
	name := p.parseIdentifier()
	return &ast.PackageClause{
		BaseNode: p.base(startPos(t), endOf(name)),
		Name:     name,
	}
}

func (p *parser) parseImportList() []*ast.ImportDeclaration {
	var imports []*ast.ImportDeclaration
	for p.peek().Tok == scanner.IMPORT {
		imports = append(imports, p.parseImportDeclaration())
	}
	return imports
}

func (p *parser) parseImportDeclaration() *ast.ImportDeclaration {
	t := p.expect(scanner.IMPORT)
	var as *ast.Identifier
	if p.peek().Tok == scanner.IDENT {
		as = p.parseIdentifier()
	}
	path := p.parseStringLiteral()
	return &ast.ImportDeclaration{
		BaseNode: p.base(startPos(t), endOf(path)),
		As:       as,
		Path:     path,
	}
}

func (p *parser) parseStatementList() []ast.Statement {
	var stmts []ast.Statement
	for p.more() {
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *parser) parseStatement() ast.Statement {
	t := p.peekWithRegex()
	switch t.Tok {
	case scanner.INT, scanner.FLOAT, scanner.STRING, scanner.REGEX, scanner.DIV,
		scanner.TIME, scanner.DURATION, scanner.PIPE_RECEIVE, scanner.LPAREN,
		scanner.LBRACK, scanner.LBRACE, scanner.ADD, scanner.SUB, scanner.NOT,
		scanner.IF, scanner.EXISTS, scanner.QUOTE:
		return p.parseExpressionStatement()
	case scanner.IDENT:
		return p.parseIdentStatement()
	case scanner.OPTION:
		return p.parseOptionAssignment()
	case scanner.BUILTIN:
		return p.parseBuiltinStatement()
	case scanner.TEST:
		return p.parseTestStatement()
	case scanner.TESTCASE:
		return p.parseTestCaseStatement()
	case scanner.RETURN:
		return p.parseReturnStatement()
	default:
		t := p.consume()
		return &ast.BadStatement{
			BaseNode: p.baseTokens(t, t),
			Text:     t.Lit,
		}
	}
}

func (p *parser) parseOptionAssignment() ast.Statement {
	t := p.expect(scanner.OPTION)
	id := p.parseIdentifier()

	var assignment ast.Assignment
	switch p.peek().Tok {
	case scanner.ASSIGN:
		init := p.parseAssignStatement()
		assignment = &ast.VariableAssignment{
			BaseNode: p.baseNodes(id, init),
			ID:       id,
			Init:     init,
		}
	case scanner.DOT:
		p.consume()
		prop := p.parseIdentifier()
		member := &ast.MemberExpression{
			BaseNode: p.baseNodes(id, prop),
			Object:   id,
			Property: prop,
		}
		init := p.parseAssignStatement()
		assignment = &ast.MemberAssignment{
			BaseNode: p.baseNodes(id, init),
			Member:   member,
			Init:     init,
		}
	default:
		p.errorf("invalid option assignment suffix")
		return &ast.BadStatement{
			BaseNode: p.base(startPos(t), endOf(id)),
			Text:     t.Lit,
		}
	}
	return &ast.OptionStatement{
		BaseNode:   p.base(startPos(t), endOf(assignment)),
		Assignment: assignment,
	}
}

func (p *parser) parseBuiltinStatement() ast.Statement {
	t := p.expect(scanner.BUILTIN)
	id := p.parseIdentifier()
	p.expect(scanner.COLON)
	ty := p.parseTypeExpression()
	return &ast.BuiltinStatement{
		BaseNode: p.base(startPos(t), endOf(ty)),
		ID:       id,
		Ty:       ty,
	}
}

func (p *parser) parseTestStatement() ast.Statement {
	t := p.expect(scanner.TEST)
	id := p.parseIdentifier()
	init := p.parseAssignStatement()
	assignment := &ast.VariableAssignment{
		BaseNode: p.baseNodes(id, init),
		ID:       id,
		Init:     init,
	}
	return &ast.TestStatement{
		BaseNode:   p.base(startPos(t), endOf(assignment)),
		Assignment: assignment,
	}
}

func (p *parser) parseTestCaseStatement() ast.Statement {
	t := p.expect(scanner.TESTCASE)
	id := p.parseIdentifier()
	var extends *ast.StringLiteral
	if next := p.peek(); next.Tok == scanner.IDENT && next.Lit == "extends" {
		p.consume()
		extends = p.parseStringLiteral()
	}
	block := p.parseBlock()
	return &ast.TestCaseStatement{
		BaseNode: p.base(startPos(t), endOf(block)),
		ID:       id,
		Extends:  extends,
		Block:    block,
	}
}

func (p *parser) parseIdentStatement() ast.Statement {
	id := p.parseIdentifier()
	if p.peek().Tok == scanner.ASSIGN {
		init := p.parseAssignStatement()
		return &ast.VariableAssignment{
			BaseNode: p.baseNodes(id, init),
			ID:       id,
			Init:     init,
		}
	}
	expr := p.parseExpressionSuffix(id)
	return &ast.ExpressionStatement{
		BaseNode:   p.baseNodes(expr, expr),
		Expression: expr,
	}
}

func (p *parser) parseAssignStatement() ast.Expression {
	p.expect(scanner.ASSIGN)
	return p.parseExpression()
}

func (p *parser) parseReturnStatement() ast.Statement {
	t := p.expect(scanner.RETURN)
	expr := p.parseExpression()
	return &ast.ReturnStatement{
		BaseNode: p.base(startPos(t), endOf(expr)),
		Argument: expr,
	}
}

func (p *parser) parseExpressionStatement() ast.Statement {
	expr := p.parseExpression()
	return &ast.ExpressionStatement{
		BaseNode:   p.baseNodes(expr, expr),
		Expression: expr,
	}
}

func (p *parser) parseBlock() *ast.Block {
	start := p.open(scanner.LBRACE, scanner.RBRACE)
	stmts := p.parseStatementList()
	end := p.close(scanner.RBRACE)
	return &ast.Block{
		BaseNode: p.baseTokens(start, end),
		Body:     stmts,
	}
}
