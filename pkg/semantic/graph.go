// Package semantic holds the typed program graph built from a parsed
// package, and the analysis that builds it.
package semantic

import (
	"time"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/hm"
)

// Node is any node of the semantic graph. The set of implementations is
// closed.
type Node interface {
	NodeType() string
	Location() ast.SourceLocation
	node()
}

// Statement is a node that may appear in a file or block body.
type Statement interface {
	Node
	stmt()
}

// Assignment is the target of an option statement.
type Assignment interface {
	Statement
	assignment()
}

// Expression is a node with an inferred type. TypeOf is nil for
// expressions that analysis did not reach because of an earlier error.
type Expression interface {
	Node
	TypeOf() hm.Type
	expr()
}

// BaseNode holds the span of the AST node a graph node came from.
type BaseNode struct {
	Loc ast.SourceLocation `json:"location"`
}

func (b *BaseNode) Location() ast.SourceLocation {
	return b.Loc
}

// Typed holds an expression's inferred type.
type Typed struct {
	Typ hm.Type `json:"typ"`
}

func (t *Typed) TypeOf() hm.Type {
	return t.Typ
}

type Package struct {
	BaseNode
	Package string  `json:"package"`
	Files   []*File `json:"files"`
}

type File struct {
	BaseNode
	Name    string               `json:"name,omitempty"`
	Package *PackageClause       `json:"package"`
	Imports []*ImportDeclaration `json:"imports"`
	Body    []Statement          `json:"body"`
}

type PackageClause struct {
	BaseNode
	Name *Identifier `json:"name"`
}

// ImportDeclaration binds As, or the last element of Path, to the
// imported package.
type ImportDeclaration struct {
	BaseNode
	As   *Identifier    `json:"as"`
	Path *StringLiteral `json:"path"`
}

// Name returns the identifier the import is bound to.
func (d *ImportDeclaration) Name() string {
	if d.As != nil {
		return d.As.Name
	}
	path := d.Path.Value
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// Block is a function body. Its type is the type of its return statement.
type Block struct {
	BaseNode
	Typed
	Body []Statement `json:"body"`
}

// ReturnStatement returns the final return of the block.
func (b *Block) ReturnStatement() *ReturnStatement {
	if len(b.Body) == 0 {
		return nil
	}
	ret, _ := b.Body[len(b.Body)-1].(*ReturnStatement)
	return ret
}

type OptionStatement struct {
	BaseNode
	Assignment Assignment `json:"assignment"`
}

// BuiltinStatement declares a name provided by the host with its type.
type BuiltinStatement struct {
	BaseNode
	ID     *Identifier `json:"id"`
	Scheme *hm.Scheme  `json:"-"`
}

type TestStatement struct {
	BaseNode
	Assignment *NativeVariableAssignment `json:"assignment"`
}

type TestCaseStatement struct {
	BaseNode
	ID      *Identifier    `json:"id"`
	Extends *StringLiteral `json:"extends,omitempty"`
	Block   *Block         `json:"block"`
}

type ExpressionStatement struct {
	BaseNode
	Expression Expression `json:"expression"`
}

type ReturnStatement struct {
	BaseNode
	Argument Expression `json:"argument"`
}

// NativeVariableAssignment binds an identifier. Scheme is the generalized
// type of Init once analysis has reached it.
type NativeVariableAssignment struct {
	BaseNode
	Identifier *Identifier `json:"identifier"`
	Init       Expression  `json:"init"`
	Scheme     *hm.Scheme  `json:"-"`
}

type MemberAssignment struct {
	BaseNode
	Member *MemberExpression `json:"member"`
	Init   Expression        `json:"init"`
}

// Identifier is a name being bound, as opposed to one being referenced.
type Identifier struct {
	BaseNode
	Name string `json:"name"`
}

type StringExpression struct {
	BaseNode
	Typed
	Parts []StringExpressionPart `json:"parts"`
}

// StringExpressionPart is a piece of an interpolated string.
type StringExpressionPart interface {
	Node
	stringPart()
}

type TextPart struct {
	BaseNode
	Value string `json:"value"`
}

type InterpolatedPart struct {
	BaseNode
	Expression Expression `json:"expression"`
}

type ArrayExpression struct {
	BaseNode
	Typed
	Elements []Expression `json:"elements"`
}

type DictExpression struct {
	BaseNode
	Typed
	Elements []*DictItem `json:"elements"`
}

type DictItem struct {
	BaseNode
	Key Expression `json:"key"`
	Val Expression `json:"val"`
}

// FunctionExpression is a function literal. Expression bodies are wrapped
// in a block holding a single return statement.
type FunctionExpression struct {
	BaseNode
	Typed
	Parameters []*FunctionParameter `json:"parameters"`
	Block      *Block               `json:"block"`
}

// FunctionParameter is one parameter of a function literal. A parameter
// with a default is optional; the pipe parameter has no default.
type FunctionParameter struct {
	BaseNode
	Key     *Identifier `json:"key"`
	Default Expression  `json:"default,omitempty"`
	IsPipe  bool        `json:"is_pipe,omitempty"`
}

// CallExpression applies Callee to named arguments, with Pipe holding the
// left-hand side of "|>" when the call is piped into.
type CallExpression struct {
	BaseNode
	Typed
	Callee    Expression  `json:"callee"`
	Arguments []*Property `json:"arguments"`
	Pipe      Expression  `json:"pipe,omitempty"`
}

type Property struct {
	BaseNode
	Key   string     `json:"key"`
	Value Expression `json:"value"`
}

type MemberExpression struct {
	BaseNode
	Typed
	Object   Expression `json:"object"`
	Property string     `json:"property"`
}

type IndexExpression struct {
	BaseNode
	Typed
	Array Expression `json:"array"`
	Index Expression `json:"index"`
}

type ObjectExpression struct {
	BaseNode
	Typed
	With       *IdentifierExpression `json:"with,omitempty"`
	Properties []*Property           `json:"properties"`
}

type BinaryExpression struct {
	BaseNode
	Typed
	Operator ast.OperatorKind `json:"operator"`
	Left     Expression       `json:"left"`
	Right    Expression       `json:"right"`
}

type UnaryExpression struct {
	BaseNode
	Typed
	Operator ast.OperatorKind `json:"operator"`
	Argument Expression       `json:"argument"`
}

type LogicalExpression struct {
	BaseNode
	Typed
	Operator ast.LogicalOperatorKind `json:"operator"`
	Left     Expression              `json:"left"`
	Right    Expression              `json:"right"`
}

type ConditionalExpression struct {
	BaseNode
	Typed
	Test       Expression `json:"test"`
	Consequent Expression `json:"consequent"`
	Alternate  Expression `json:"alternate"`
}

// IdentifierExpression is a reference to a bound name.
type IdentifierExpression struct {
	BaseNode
	Typed
	Name string `json:"name"`
}

type BooleanLiteral struct {
	BaseNode
	Typed
	Value bool `json:"value"`
}

type IntegerLiteral struct {
	BaseNode
	Typed
	Value int64 `json:"value"`
}

type UnsignedIntegerLiteral struct {
	BaseNode
	Typed
	Value uint64 `json:"value"`
}

type FloatLiteral struct {
	BaseNode
	Typed
	Value float64 `json:"value"`
}

type StringLiteral struct {
	BaseNode
	Typed
	Value string `json:"value"`
}

type RegexpLiteral struct {
	BaseNode
	Typed
	Value string `json:"value"`
}

type DurationLiteral struct {
	BaseNode
	Typed
	Values []ast.Duration `json:"values"`
}

type DateTimeLiteral struct {
	BaseNode
	Typed
	Value time.Time `json:"value"`
}

func (*Package) NodeType() string                  { return "Package" }
func (*File) NodeType() string                     { return "File" }
func (*PackageClause) NodeType() string            { return "PackageClause" }
func (*ImportDeclaration) NodeType() string        { return "ImportDeclaration" }
func (*Block) NodeType() string                    { return "Block" }
func (*OptionStatement) NodeType() string          { return "OptionStatement" }
func (*BuiltinStatement) NodeType() string         { return "BuiltinStatement" }
func (*TestStatement) NodeType() string            { return "TestStatement" }
func (*TestCaseStatement) NodeType() string        { return "TestCaseStatement" }
func (*ExpressionStatement) NodeType() string      { return "ExpressionStatement" }
func (*ReturnStatement) NodeType() string          { return "ReturnStatement" }
func (*NativeVariableAssignment) NodeType() string { return "NativeVariableAssignment" }
func (*MemberAssignment) NodeType() string         { return "MemberAssignment" }
func (*Identifier) NodeType() string               { return "Identifier" }
func (*StringExpression) NodeType() string         { return "StringExpression" }
func (*TextPart) NodeType() string                 { return "TextPart" }
func (*InterpolatedPart) NodeType() string         { return "InterpolatedPart" }
func (*ArrayExpression) NodeType() string          { return "ArrayExpression" }
func (*DictExpression) NodeType() string           { return "DictExpression" }
func (*DictItem) NodeType() string                 { return "DictItem" }
func (*FunctionExpression) NodeType() string       { return "FunctionExpression" }
func (*FunctionParameter) NodeType() string        { return "FunctionParameter" }
func (*CallExpression) NodeType() string           { return "CallExpression" }
func (*Property) NodeType() string                 { return "Property" }
func (*MemberExpression) NodeType() string         { return "MemberExpression" }
func (*IndexExpression) NodeType() string          { return "IndexExpression" }
func (*ObjectExpression) NodeType() string         { return "ObjectExpression" }
func (*BinaryExpression) NodeType() string         { return "BinaryExpression" }
func (*UnaryExpression) NodeType() string          { return "UnaryExpression" }
func (*LogicalExpression) NodeType() string        { return "LogicalExpression" }
func (*ConditionalExpression) NodeType() string    { return "ConditionalExpression" }
func (*IdentifierExpression) NodeType() string     { return "IdentifierExpression" }
func (*BooleanLiteral) NodeType() string           { return "BooleanLiteral" }
func (*IntegerLiteral) NodeType() string           { return "IntegerLiteral" }
func (*UnsignedIntegerLiteral) NodeType() string   { return "UnsignedIntegerLiteral" }
func (*FloatLiteral) NodeType() string             { return "FloatLiteral" }
func (*StringLiteral) NodeType() string            { return "StringLiteral" }
func (*RegexpLiteral) NodeType() string            { return "RegexpLiteral" }
func (*DurationLiteral) NodeType() string          { return "DurationLiteral" }
func (*DateTimeLiteral) NodeType() string          { return "DateTimeLiteral" }

func (*Package) node()                  {}
func (*File) node()                     {}
func (*PackageClause) node()            {}
func (*ImportDeclaration) node()        {}
func (*Block) node()                    {}
func (*OptionStatement) node()          {}
func (*BuiltinStatement) node()         {}
func (*TestStatement) node()            {}
func (*TestCaseStatement) node()        {}
func (*ExpressionStatement) node()      {}
func (*ReturnStatement) node()          {}
func (*NativeVariableAssignment) node() {}
func (*MemberAssignment) node()         {}
func (*Identifier) node()               {}
func (*StringExpression) node()         {}
func (*TextPart) node()                 {}
func (*InterpolatedPart) node()         {}
func (*ArrayExpression) node()          {}
func (*DictExpression) node()           {}
func (*DictItem) node()                 {}
func (*FunctionExpression) node()       {}
func (*FunctionParameter) node()        {}
func (*CallExpression) node()           {}
func (*Property) node()                 {}
func (*MemberExpression) node()         {}
func (*IndexExpression) node()          {}
func (*ObjectExpression) node()         {}
func (*BinaryExpression) node()         {}
func (*UnaryExpression) node()          {}
func (*LogicalExpression) node()        {}
func (*ConditionalExpression) node()    {}
func (*IdentifierExpression) node()     {}
func (*BooleanLiteral) node()           {}
func (*IntegerLiteral) node()           {}
func (*UnsignedIntegerLiteral) node()   {}
func (*FloatLiteral) node()             {}
func (*StringLiteral) node()            {}
func (*RegexpLiteral) node()            {}
func (*DurationLiteral) node()          {}
func (*DateTimeLiteral) node()          {}

func (*OptionStatement) stmt()          {}
func (*BuiltinStatement) stmt()         {}
func (*TestStatement) stmt()            {}
func (*TestCaseStatement) stmt()        {}
func (*ExpressionStatement) stmt()      {}
func (*ReturnStatement) stmt()          {}
func (*NativeVariableAssignment) stmt() {}
func (*MemberAssignment) stmt()         {}

func (*NativeVariableAssignment) assignment() {}
func (*MemberAssignment) assignment()         {}

func (*StringExpression) expr()       {}
func (*ArrayExpression) expr()        {}
func (*DictExpression) expr()         {}
func (*FunctionExpression) expr()     {}
func (*CallExpression) expr()         {}
func (*MemberExpression) expr()       {}
func (*IndexExpression) expr()        {}
func (*ObjectExpression) expr()       {}
func (*BinaryExpression) expr()       {}
func (*UnaryExpression) expr()        {}
func (*LogicalExpression) expr()      {}
func (*ConditionalExpression) expr()  {}
func (*IdentifierExpression) expr()   {}
func (*BooleanLiteral) expr()         {}
func (*IntegerLiteral) expr()         {}
func (*UnsignedIntegerLiteral) expr() {}
func (*FloatLiteral) expr()           {}
func (*StringLiteral) expr()          {}
func (*RegexpLiteral) expr()          {}
func (*DurationLiteral) expr()        {}
func (*DateTimeLiteral) expr()        {}

func (*TextPart) stringPart()         {}
func (*InterpolatedPart) stringPart() {}
