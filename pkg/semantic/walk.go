package semantic

import "reflect"

// Visitor is called for every node by Walk. If Visit returns nil the
// node's children are skipped; Done is called once they have all been
// visited.
type Visitor interface {
	Visit(node Node) Visitor
	Done(node Node)
}

// Walk traverses the graph rooted at node depth first.
func Walk(v Visitor, node Node) {
	if isNil(node) {
		return
	}
	w := v.Visit(node)
	if w == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(w, child)
	}
	w.Done(node)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

func (f inspector) Done(Node) {}

// Inspect calls f for every node in depth-first order, descending into a
// node's children only when f returns true.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Children returns the direct children of a node in source order.
func Children(node Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, n := range ns {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}

	switch n := node.(type) {
	case *Package:
		for _, f := range n.Files {
			add(f)
		}
	case *File:
		add(n.Package)
		for _, imp := range n.Imports {
			add(imp)
		}
		for _, s := range n.Body {
			add(s)
		}
	case *PackageClause:
		add(n.Name)
	case *ImportDeclaration:
		add(n.As, n.Path)
	case *Block:
		for _, s := range n.Body {
			add(s)
		}
	case *OptionStatement:
		add(n.Assignment)
	case *BuiltinStatement:
		add(n.ID)
	case *TestStatement:
		add(n.Assignment)
	case *TestCaseStatement:
		add(n.ID, n.Extends, n.Block)
	case *ExpressionStatement:
		add(n.Expression)
	case *ReturnStatement:
		add(n.Argument)
	case *NativeVariableAssignment:
		add(n.Identifier, n.Init)
	case *MemberAssignment:
		add(n.Member, n.Init)
	case *StringExpression:
		for _, p := range n.Parts {
			add(p)
		}
	case *InterpolatedPart:
		add(n.Expression)
	case *ArrayExpression:
		for _, e := range n.Elements {
			add(e)
		}
	case *DictExpression:
		for _, item := range n.Elements {
			add(item)
		}
	case *DictItem:
		add(n.Key, n.Val)
	case *FunctionExpression:
		for _, p := range n.Parameters {
			add(p)
		}
		add(n.Block)
	case *FunctionParameter:
		add(n.Key, n.Default)
	case *CallExpression:
		add(n.Callee)
		for _, a := range n.Arguments {
			add(a)
		}
		add(n.Pipe)
	case *Property:
		add(n.Value)
	case *MemberExpression:
		add(n.Object)
	case *IndexExpression:
		add(n.Array, n.Index)
	case *ObjectExpression:
		add(n.With)
		for _, p := range n.Properties {
			add(p)
		}
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *UnaryExpression:
		add(n.Argument)
	case *LogicalExpression:
		add(n.Left, n.Right)
	case *ConditionalExpression:
		add(n.Test, n.Consequent, n.Alternate)
	case *Identifier, *TextPart, *IdentifierExpression,
		*BooleanLiteral, *IntegerLiteral, *UnsignedIntegerLiteral,
		*FloatLiteral, *StringLiteral, *RegexpLiteral,
		*DurationLiteral, *DateTimeLiteral:
	}
	return out
}
