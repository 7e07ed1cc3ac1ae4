package ast

import "reflect"

// Visitor is called for every node by Walk. If Visit returns nil the
// node's children are skipped; Done is called once they have all been
// visited.
type Visitor interface {
	Visit(node Node) Visitor
	Done(node Node)
}

// Walk traverses the tree rooted at node depth first.
func Walk(v Visitor, node Node) {
	if node == nil || isNilNode(node) {
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

// Children returns the direct children of a node in source order.
func Children(node Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, n := range ns {
			if n != nil && !isNilNode(n) {
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
	case *BadStatement:
	case *ExpressionStatement:
		add(n.Expression)
	case *ReturnStatement:
		add(n.Argument)
	case *OptionStatement:
		add(n.Assignment)
	case *BuiltinStatement:
		add(n.ID, n.Ty)
	case *TestStatement:
		add(n.Assignment)
	case *TestCaseStatement:
		add(n.ID, n.Extends, n.Block)
	case *VariableAssignment:
		add(n.ID, n.Init)
	case *MemberAssignment:
		add(n.Member, n.Init)
	case *StringExpression:
		for _, p := range n.Parts {
			add(p)
		}
	case *TextPart:
	case *InterpolatedPart:
		add(n.Expression)
	case *ParenExpression:
		add(n.Expression)
	case *CallExpression:
		add(n.Callee)
		for _, arg := range n.Arguments {
			add(arg)
		}
	case *PipeExpression:
		add(n.Argument, n.Call)
	case *MemberExpression:
		add(n.Object, n.Property)
	case *IndexExpression:
		add(n.Array, n.Index)
	case *FunctionExpression:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *UnaryExpression:
		add(n.Argument)
	case *LogicalExpression:
		add(n.Left, n.Right)
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
	case *ObjectExpression:
		add(n.With)
		for _, p := range n.Properties {
			add(p)
		}
	case *ConditionalExpression:
		add(n.Test, n.Consequent, n.Alternate)
	case *Property:
		add(n.Key, n.Value)
	case *BadExpression:
		add(n.Expression)
	case *TypeExpression:
		add(n.Ty)
		for _, c := range n.Constraints {
			add(c)
		}
	case *TypeConstraint:
		add(n.Tvar)
		for _, k := range n.Kinds {
			add(k)
		}
	case *NamedType:
		add(n.ID)
	case *TvarType:
		add(n.ID)
	case *ArrayType:
		add(n.ElementType)
	case *DictType:
		add(n.KeyType, n.ValueType)
	case *RecordType:
		add(n.Tvar)
		for _, p := range n.Properties {
			add(p)
		}
	case *PropertyType:
		add(n.Name, n.Ty)
	case *FunctionType:
		for _, p := range n.Parameters {
			add(p)
		}
		add(n.Return)
	case *ParameterType:
		add(n.Name, n.Ty)
	case *Identifier, *PipeLiteral, *StringLiteral, *BooleanLiteral, *FloatLiteral,
		*IntegerLiteral, *UnsignedIntegerLiteral, *RegexpLiteral, *DurationLiteral,
		*DateTimeLiteral:
	}
	return out
}

// isNilNode catches typed nil pointers stored in a Node interface.
func isNilNode(n Node) bool {
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
