// Package ast declares the syntax tree produced by the parser.
package ast

import (
	"fmt"
	"time"
)

// Position is a 1-based line and column in a source file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position was set.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// Less reports whether p comes strictly before o.
func (p Position) Less(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

// SourceLocation is the span of a node within a file.
type SourceLocation struct {
	File   string   `json:"file,omitempty"`
	Start  Position `json:"start"`
	End    Position `json:"end"`
	Source string   `json:"source,omitempty"`
}

func (l SourceLocation) String() string {
	if l.File != "" {
		return fmt.Sprintf("%s|%v-%v", l.File, l.Start, l.End)
	}
	return fmt.Sprintf("%v-%v", l.Start, l.End)
}

// Contains reports whether o lies within l.
func (l SourceLocation) Contains(o SourceLocation) bool {
	return !o.Start.Less(l.Start) && !l.End.Less(o.End)
}

// Error is a syntax error recorded on a node.
type Error struct {
	Msg string `json:"msg"`
}

func (e Error) Error() string {
	return e.Msg
}

// BaseNode holds what every node carries: its span and any errors found
// while building it.
type BaseNode struct {
	Loc    *SourceLocation `json:"location,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

func (b *BaseNode) Base() *BaseNode {
	return b
}

func (b *BaseNode) Location() SourceLocation {
	if b.Loc == nil {
		return SourceLocation{}
	}
	return *b.Loc
}

func (b *BaseNode) Errs() []Error {
	return b.Errors
}

// Node is any node of the tree. The set of implementations is closed.
type Node interface {
	Type() string
	Base() *BaseNode
	Location() SourceLocation
	Errs() []Error
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

// Expression is a node that produces a value.
type Expression interface {
	Node
	expr()
}

// Literal is an expression with a constant value.
type Literal interface {
	Expression
	literal()
}

// PropertyKey names an object property.
type PropertyKey interface {
	Node
	Key() string
}

// StringExpressionPart is a piece of an interpolated string.
type StringExpressionPart interface {
	Node
	stringPart()
}

// MonoType is a type expression inside a builtin declaration.
type MonoType interface {
	Node
	monotype()
}

// Package is a set of files sharing a package name.
type Package struct {
	BaseNode
	Path    string  `json:"path,omitempty"`
	Package string  `json:"package"`
	Files   []*File `json:"files"`
}

// File is a single source file.
type File struct {
	BaseNode
	Name     string               `json:"name,omitempty"`
	Metadata string               `json:"metadata,omitempty"`
	Package  *PackageClause       `json:"package"`
	Imports  []*ImportDeclaration `json:"imports"`
	Body     []Statement          `json:"body"`
}

type PackageClause struct {
	BaseNode
	Name *Identifier `json:"name"`
}

type ImportDeclaration struct {
	BaseNode
	As   *Identifier    `json:"as"`
	Path *StringLiteral `json:"path"`
}

type Block struct {
	BaseNode
	Body []Statement `json:"body"`
}

// BadStatement is a statement that could not be parsed.
type BadStatement struct {
	BaseNode
	Text string `json:"text"`
}

type ExpressionStatement struct {
	BaseNode
	Expression Expression `json:"expression"`
}

type ReturnStatement struct {
	BaseNode
	Argument Expression `json:"argument"`
}

type OptionStatement struct {
	BaseNode
	Assignment Assignment `json:"assignment"`
}

// BuiltinStatement declares the type of a name provided by the host.
type BuiltinStatement struct {
	BaseNode
	ID *Identifier     `json:"id"`
	Ty *TypeExpression `json:"ty"`
}

type TestStatement struct {
	BaseNode
	Assignment *VariableAssignment `json:"assignment"`
}

type TestCaseStatement struct {
	BaseNode
	ID      *Identifier    `json:"id"`
	Extends *StringLiteral `json:"extends,omitempty"`
	Block   *Block         `json:"block"`
}

type VariableAssignment struct {
	BaseNode
	ID   *Identifier `json:"id"`
	Init Expression  `json:"init"`
}

type MemberAssignment struct {
	BaseNode
	Member *MemberExpression `json:"member"`
	Init   Expression        `json:"init"`
}

type StringExpression struct {
	BaseNode
	Parts []StringExpressionPart `json:"parts"`
}

type TextPart struct {
	BaseNode
	Value string `json:"value"`
}

type InterpolatedPart struct {
	BaseNode
	Expression Expression `json:"expression"`
}

type ParenExpression struct {
	BaseNode
	Expression Expression `json:"expression"`
}

// CallExpression holds at most one argument, an object of named
// parameters.
type CallExpression struct {
	BaseNode
	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments,omitempty"`
}

type PipeExpression struct {
	BaseNode
	Argument Expression      `json:"argument"`
	Call     *CallExpression `json:"call"`
}

type MemberExpression struct {
	BaseNode
	Object   Expression  `json:"object"`
	Property PropertyKey `json:"property"`
}

type IndexExpression struct {
	BaseNode
	Array Expression `json:"array"`
	Index Expression `json:"index"`
}

// FunctionExpression's Body is either a *Block or an Expression.
type FunctionExpression struct {
	BaseNode
	Params []*Property `json:"params"`
	Body   Node        `json:"body"`
}

type BinaryExpression struct {
	BaseNode
	Operator OperatorKind `json:"operator"`
	Left     Expression   `json:"left"`
	Right    Expression   `json:"right"`
}

type UnaryExpression struct {
	BaseNode
	Operator OperatorKind `json:"operator"`
	Argument Expression   `json:"argument"`
}

type LogicalExpression struct {
	BaseNode
	Operator LogicalOperatorKind `json:"operator"`
	Left     Expression          `json:"left"`
	Right    Expression          `json:"right"`
}

type ArrayExpression struct {
	BaseNode
	Elements []Expression `json:"elements"`
}

type DictExpression struct {
	BaseNode
	Elements []*DictItem `json:"elements"`
}

type DictItem struct {
	BaseNode
	Key Expression `json:"key"`
	Val Expression `json:"val"`
}

type ObjectExpression struct {
	BaseNode
	With       *Identifier `json:"with,omitempty"`
	Properties []*Property `json:"properties"`
}

type ConditionalExpression struct {
	BaseNode
	Test       Expression `json:"test"`
	Consequent Expression `json:"consequent"`
	Alternate  Expression `json:"alternate"`
}

// Property is a key/value pair of an object or a function parameter. Value
// is nil for shorthand properties and parameters without defaults.
type Property struct {
	BaseNode
	Key   PropertyKey `json:"key"`
	Value Expression  `json:"value"`
}

type Identifier struct {
	BaseNode
	Name string `json:"name"`
}

func (i *Identifier) Key() string {
	return i.Name
}

// PipeLiteral marks the parameter receiving piped input.
type PipeLiteral struct {
	BaseNode
}

type StringLiteral struct {
	BaseNode
	Value string `json:"value"`
}

func (s *StringLiteral) Key() string {
	return s.Value
}

type BooleanLiteral struct {
	BaseNode
	Value bool `json:"value"`
}

type FloatLiteral struct {
	BaseNode
	Value float64 `json:"value"`
}

type IntegerLiteral struct {
	BaseNode
	Value int64 `json:"value"`
}

type UnsignedIntegerLiteral struct {
	BaseNode
	Value uint64 `json:"value"`
}

// RegexpLiteral holds the unescaped pattern, already known to compile.
type RegexpLiteral struct {
	BaseNode
	Value string `json:"value"`
}

// Duration is one magnitude/unit pair of a duration literal.
type Duration struct {
	Magnitude int64  `json:"magnitude"`
	Unit      string `json:"unit"`
}

type DurationLiteral struct {
	BaseNode
	Values []Duration `json:"values"`
}

type DateTimeLiteral struct {
	BaseNode
	Value time.Time `json:"value"`
}

// BadExpression is an expression that could not be parsed.
type BadExpression struct {
	BaseNode
	Text       string     `json:"text"`
	Expression Expression `json:"expression,omitempty"`
}

// TypeExpression is a monotype with kind constraints on its variables.
type TypeExpression struct {
	BaseNode
	Ty          MonoType          `json:"monotype"`
	Constraints []*TypeConstraint `json:"constraints"`
}

type TypeConstraint struct {
	BaseNode
	Tvar  *Identifier   `json:"tvar"`
	Kinds []*Identifier `json:"kinds"`
}

type NamedType struct {
	BaseNode
	ID *Identifier `json:"name"`
}

type TvarType struct {
	BaseNode
	ID *Identifier `json:"name"`
}

type ArrayType struct {
	BaseNode
	ElementType MonoType `json:"element"`
}

type DictType struct {
	BaseNode
	KeyType   MonoType `json:"key"`
	ValueType MonoType `json:"val"`
}

type RecordType struct {
	BaseNode
	Tvar       *Identifier     `json:"tvar,omitempty"`
	Properties []*PropertyType `json:"properties"`
}

type PropertyType struct {
	BaseNode
	Name *Identifier `json:"name"`
	Ty   MonoType    `json:"monotype"`
}

type FunctionType struct {
	BaseNode
	Parameters []*ParameterType `json:"parameters"`
	Return     MonoType         `json:"monotype"`
}

// ParameterKind distinguishes required, optional and pipe parameters.
type ParameterKind string

const (
	Required ParameterKind = "Required"
	Optional ParameterKind = "Optional"
	Pipe     ParameterKind = "Pipe"
)

// ParameterType is a function type parameter. Name is nil for the
// anonymous pipe parameter "<-".
type ParameterType struct {
	BaseNode
	Kind ParameterKind `json:"kind"`
	Name *Identifier   `json:"name,omitempty"`
	Ty   MonoType      `json:"monotype"`
}

func (*Package) Type() string                { return "Package" }
func (*File) Type() string                   { return "File" }
func (*PackageClause) Type() string          { return "PackageClause" }
func (*ImportDeclaration) Type() string      { return "ImportDeclaration" }
func (*Block) Type() string                  { return "Block" }
func (*BadStatement) Type() string           { return "BadStatement" }
func (*ExpressionStatement) Type() string    { return "ExpressionStatement" }
func (*ReturnStatement) Type() string        { return "ReturnStatement" }
func (*OptionStatement) Type() string        { return "OptionStatement" }
func (*BuiltinStatement) Type() string       { return "BuiltinStatement" }
func (*TestStatement) Type() string          { return "TestStatement" }
func (*TestCaseStatement) Type() string      { return "TestCaseStatement" }
func (*VariableAssignment) Type() string     { return "VariableAssignment" }
func (*MemberAssignment) Type() string       { return "MemberAssignment" }
func (*StringExpression) Type() string       { return "StringExpression" }
func (*TextPart) Type() string               { return "TextPart" }
func (*InterpolatedPart) Type() string       { return "InterpolatedPart" }
func (*ParenExpression) Type() string        { return "ParenExpression" }
func (*CallExpression) Type() string         { return "CallExpression" }
func (*PipeExpression) Type() string         { return "PipeExpression" }
func (*MemberExpression) Type() string       { return "MemberExpression" }
func (*IndexExpression) Type() string        { return "IndexExpression" }
func (*FunctionExpression) Type() string     { return "FunctionExpression" }
func (*BinaryExpression) Type() string       { return "BinaryExpression" }
func (*UnaryExpression) Type() string        { return "UnaryExpression" }
func (*LogicalExpression) Type() string      { return "LogicalExpression" }
func (*ArrayExpression) Type() string        { return "ArrayExpression" }
func (*DictExpression) Type() string         { return "DictExpression" }
func (*DictItem) Type() string               { return "DictItem" }
func (*ObjectExpression) Type() string       { return "ObjectExpression" }
func (*ConditionalExpression) Type() string  { return "ConditionalExpression" }
func (*Property) Type() string               { return "Property" }
func (*Identifier) Type() string             { return "Identifier" }
func (*PipeLiteral) Type() string            { return "PipeLiteral" }
func (*StringLiteral) Type() string          { return "StringLiteral" }
func (*BooleanLiteral) Type() string         { return "BooleanLiteral" }
func (*FloatLiteral) Type() string           { return "FloatLiteral" }
func (*IntegerLiteral) Type() string         { return "IntegerLiteral" }
func (*UnsignedIntegerLiteral) Type() string { return "UnsignedIntegerLiteral" }
func (*RegexpLiteral) Type() string          { return "RegexpLiteral" }
func (*DurationLiteral) Type() string        { return "DurationLiteral" }
func (*DateTimeLiteral) Type() string        { return "DateTimeLiteral" }
func (*BadExpression) Type() string          { return "BadExpression" }
func (*TypeExpression) Type() string         { return "TypeExpression" }
func (*TypeConstraint) Type() string         { return "TypeConstraint" }
func (*NamedType) Type() string              { return "NamedType" }
func (*TvarType) Type() string               { return "TvarType" }
func (*ArrayType) Type() string              { return "ArrayType" }
func (*DictType) Type() string               { return "DictType" }
func (*RecordType) Type() string             { return "RecordType" }
func (*PropertyType) Type() string           { return "PropertyType" }
func (*FunctionType) Type() string           { return "FunctionType" }
func (*ParameterType) Type() string          { return "ParameterType" }

func (*Package) node()                {}
func (*File) node()                   {}
func (*PackageClause) node()          {}
func (*ImportDeclaration) node()      {}
func (*Block) node()                  {}
func (*BadStatement) node()           {}
func (*ExpressionStatement) node()    {}
func (*ReturnStatement) node()        {}
func (*OptionStatement) node()        {}
func (*BuiltinStatement) node()       {}
func (*TestStatement) node()          {}
func (*TestCaseStatement) node()      {}
func (*VariableAssignment) node()     {}
func (*MemberAssignment) node()       {}
func (*StringExpression) node()       {}
func (*TextPart) node()               {}
func (*InterpolatedPart) node()       {}
func (*ParenExpression) node()        {}
func (*CallExpression) node()         {}
func (*PipeExpression) node()         {}
func (*MemberExpression) node()       {}
func (*IndexExpression) node()        {}
func (*FunctionExpression) node()     {}
func (*BinaryExpression) node()       {}
func (*UnaryExpression) node()        {}
func (*LogicalExpression) node()      {}
func (*ArrayExpression) node()        {}
func (*DictExpression) node()         {}
func (*DictItem) node()               {}
func (*ObjectExpression) node()       {}
func (*ConditionalExpression) node()  {}
func (*Property) node()               {}
func (*Identifier) node()             {}
func (*PipeLiteral) node()            {}
func (*StringLiteral) node()          {}
func (*BooleanLiteral) node()         {}
func (*FloatLiteral) node()           {}
func (*IntegerLiteral) node()         {}
func (*UnsignedIntegerLiteral) node() {}
func (*RegexpLiteral) node()          {}
func (*DurationLiteral) node()        {}
func (*DateTimeLiteral) node()        {}
func (*BadExpression) node()          {}
func (*TypeExpression) node()         {}
func (*TypeConstraint) node()         {}
func (*NamedType) node()              {}
func (*TvarType) node()               {}
func (*ArrayType) node()              {}
func (*DictType) node()               {}
func (*RecordType) node()             {}
func (*PropertyType) node()           {}
func (*FunctionType) node()           {}
func (*ParameterType) node()          {}

func (*BadStatement) stmt()        {}
func (*ExpressionStatement) stmt() {}
func (*ReturnStatement) stmt()     {}
func (*OptionStatement) stmt()     {}
func (*BuiltinStatement) stmt()    {}
func (*TestStatement) stmt()       {}
func (*TestCaseStatement) stmt()   {}
func (*VariableAssignment) stmt()  {}
func (*MemberAssignment) stmt()    {}

func (*VariableAssignment) assignment() {}
func (*MemberAssignment) assignment()   {}

func (*StringExpression) expr()       {}
func (*ParenExpression) expr()        {}
func (*CallExpression) expr()         {}
func (*PipeExpression) expr()         {}
func (*MemberExpression) expr()       {}
func (*IndexExpression) expr()        {}
func (*FunctionExpression) expr()     {}
func (*BinaryExpression) expr()       {}
func (*UnaryExpression) expr()        {}
func (*LogicalExpression) expr()      {}
func (*ArrayExpression) expr()        {}
func (*DictExpression) expr()         {}
func (*ObjectExpression) expr()       {}
func (*ConditionalExpression) expr()  {}
func (*Identifier) expr()             {}
func (*PipeLiteral) expr()            {}
func (*StringLiteral) expr()          {}
func (*BooleanLiteral) expr()         {}
func (*FloatLiteral) expr()           {}
func (*IntegerLiteral) expr()         {}
func (*UnsignedIntegerLiteral) expr() {}
func (*RegexpLiteral) expr()          {}
func (*DurationLiteral) expr()        {}
func (*DateTimeLiteral) expr()        {}
func (*BadExpression) expr()          {}

func (*PipeLiteral) literal()            {}
func (*StringLiteral) literal()          {}
func (*BooleanLiteral) literal()         {}
func (*FloatLiteral) literal()           {}
func (*IntegerLiteral) literal()         {}
func (*UnsignedIntegerLiteral) literal() {}
func (*RegexpLiteral) literal()          {}
func (*DurationLiteral) literal()        {}
func (*DateTimeLiteral) literal()        {}

func (*TextPart) stringPart()         {}
func (*InterpolatedPart) stringPart() {}

func (*NamedType) monotype()    {}
func (*TvarType) monotype()     {}
func (*ArrayType) monotype()    {}
func (*DictType) monotype()     {}
func (*RecordType) monotype()   {}
func (*FunctionType) monotype() {}
