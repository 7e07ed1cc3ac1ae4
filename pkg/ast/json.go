package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Every node is written as a JSON object whose "type" member names its
// kind, followed by its fields in declaration order. Decoding dispatches
// on "type" to rebuild the exact node kinds.

var nodeConstructors = map[string]func() Node{
	"Package":                func() Node { return new(Package) },
	"File":                   func() Node { return new(File) },
	"PackageClause":          func() Node { return new(PackageClause) },
	"ImportDeclaration":      func() Node { return new(ImportDeclaration) },
	"Block":                  func() Node { return new(Block) },
	"BadStatement":           func() Node { return new(BadStatement) },
	"ExpressionStatement":    func() Node { return new(ExpressionStatement) },
	"ReturnStatement":        func() Node { return new(ReturnStatement) },
	"OptionStatement":        func() Node { return new(OptionStatement) },
	"BuiltinStatement":       func() Node { return new(BuiltinStatement) },
	"TestStatement":          func() Node { return new(TestStatement) },
	"TestCaseStatement":      func() Node { return new(TestCaseStatement) },
	"VariableAssignment":     func() Node { return new(VariableAssignment) },
	"MemberAssignment":       func() Node { return new(MemberAssignment) },
	"StringExpression":       func() Node { return new(StringExpression) },
	"TextPart":               func() Node { return new(TextPart) },
	"InterpolatedPart":       func() Node { return new(InterpolatedPart) },
	"ParenExpression":        func() Node { return new(ParenExpression) },
	"CallExpression":         func() Node { return new(CallExpression) },
	"PipeExpression":         func() Node { return new(PipeExpression) },
	"MemberExpression":       func() Node { return new(MemberExpression) },
	"IndexExpression":        func() Node { return new(IndexExpression) },
	"FunctionExpression":     func() Node { return new(FunctionExpression) },
	"BinaryExpression":       func() Node { return new(BinaryExpression) },
	"UnaryExpression":        func() Node { return new(UnaryExpression) },
	"LogicalExpression":      func() Node { return new(LogicalExpression) },
	"ArrayExpression":        func() Node { return new(ArrayExpression) },
	"DictExpression":         func() Node { return new(DictExpression) },
	"DictItem":               func() Node { return new(DictItem) },
	"ObjectExpression":       func() Node { return new(ObjectExpression) },
	"ConditionalExpression":  func() Node { return new(ConditionalExpression) },
	"Property":               func() Node { return new(Property) },
	"Identifier":             func() Node { return new(Identifier) },
	"PipeLiteral":            func() Node { return new(PipeLiteral) },
	"StringLiteral":          func() Node { return new(StringLiteral) },
	"BooleanLiteral":         func() Node { return new(BooleanLiteral) },
	"FloatLiteral":           func() Node { return new(FloatLiteral) },
	"IntegerLiteral":         func() Node { return new(IntegerLiteral) },
	"UnsignedIntegerLiteral": func() Node { return new(UnsignedIntegerLiteral) },
	"RegexpLiteral":          func() Node { return new(RegexpLiteral) },
	"DurationLiteral":        func() Node { return new(DurationLiteral) },
	"DateTimeLiteral":        func() Node { return new(DateTimeLiteral) },
	"BadExpression":          func() Node { return new(BadExpression) },
	"TypeExpression":         func() Node { return new(TypeExpression) },
	"TypeConstraint":         func() Node { return new(TypeConstraint) },
	"NamedType":              func() Node { return new(NamedType) },
	"TvarType":               func() Node { return new(TvarType) },
	"ArrayType":              func() Node { return new(ArrayType) },
	"DictType":               func() Node { return new(DictType) },
	"RecordType":             func() Node { return new(RecordType) },
	"PropertyType":           func() Node { return new(PropertyType) },
	"FunctionType":           func() Node { return new(FunctionType) },
	"ParameterType":          func() Node { return new(ParameterType) },
}

var nodeInterface = reflect.TypeOf((*Node)(nil)).Elem()

func marshalNode(n Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	typ, err := json.Marshal(n.Type())
	if err != nil {
		return nil, err
	}
	buf.Write(typ)
	if err := writeFields(&buf, reflect.ValueOf(n).Elem()); err != nil {
		return nil, fmt.Errorf("%s: %w", n.Type(), err)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeFields(buf *bytes.Buffer, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous {
			if err := writeFields(buf, fv); err != nil {
				return err
			}
			continue
		}
		name, omitEmpty := jsonName(f)
		if omitEmpty && isEmptyValue(fv) {
			continue
		}
		data, err := json.Marshal(fv.Interface())
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.WriteString(`,"`)
		buf.WriteString(name)
		buf.WriteString(`":`)
		buf.Write(data)
	}
	return nil
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts == "omitempty"
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}

// UnmarshalNode decodes any node written by json.Marshal.
func UnmarshalNode(data []byte) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	var typ string
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &typ); err != nil {
			return nil, fmt.Errorf("node type: %w", err)
		}
	}
	ctor, ok := nodeConstructors[typ]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", typ)
	}
	n := ctor()
	if err := readFields(fields, reflect.ValueOf(n).Elem()); err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}
	return n, nil
}

// UnmarshalPackage decodes a package written by json.Marshal.
func UnmarshalPackage(data []byte) (*Package, error) {
	n, err := UnmarshalNode(data)
	if err != nil {
		return nil, err
	}
	pkg, ok := n.(*Package)
	if !ok {
		return nil, fmt.Errorf("expected Package, got %T", n)
	}
	return pkg, nil
}

func readFields(fields map[string]json.RawMessage, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous {
			if err := readFields(fields, fv); err != nil {
				return err
			}
			continue
		}
		name, _ := jsonName(f)
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if err := readField(raw, fv); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}

func readField(raw json.RawMessage, fv reflect.Value) error {
	ft := fv.Type()
	switch {
	case ft.Implements(nodeInterface):
		return setNode(raw, fv)
	case ft.Kind() == reflect.Slice && ft.Elem().Implements(nodeInterface):
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return err
		}
		if elems == nil {
			return nil
		}
		slice := reflect.MakeSlice(ft, len(elems), len(elems))
		for i, elem := range elems {
			if err := setNode(elem, slice.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		fv.Set(slice)
		return nil
	default:
		return json.Unmarshal(raw, fv.Addr().Interface())
	}
}

func setNode(raw json.RawMessage, fv reflect.Value) error {
	n, err := UnmarshalNode(raw)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}
	nv := reflect.ValueOf(n)
	if !nv.Type().AssignableTo(fv.Type()) {
		return fmt.Errorf("cannot use %s as %s", n.Type(), fv.Type())
	}
	fv.Set(nv)
	return nil
}

func (n *Package) MarshalJSON() ([]byte, error)                { return marshalNode(n) }
func (n *File) MarshalJSON() ([]byte, error)                   { return marshalNode(n) }
func (n *PackageClause) MarshalJSON() ([]byte, error)          { return marshalNode(n) }
func (n *ImportDeclaration) MarshalJSON() ([]byte, error)      { return marshalNode(n) }
func (n *Block) MarshalJSON() ([]byte, error)                  { return marshalNode(n) }
func (n *BadStatement) MarshalJSON() ([]byte, error)           { return marshalNode(n) }
func (n *ExpressionStatement) MarshalJSON() ([]byte, error)    { return marshalNode(n) }
func (n *ReturnStatement) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *OptionStatement) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *BuiltinStatement) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *TestStatement) MarshalJSON() ([]byte, error)          { return marshalNode(n) }
func (n *TestCaseStatement) MarshalJSON() ([]byte, error)      { return marshalNode(n) }
func (n *VariableAssignment) MarshalJSON() ([]byte, error)     { return marshalNode(n) }
func (n *MemberAssignment) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *StringExpression) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *TextPart) MarshalJSON() ([]byte, error)               { return marshalNode(n) }
func (n *InterpolatedPart) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *ParenExpression) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *CallExpression) MarshalJSON() ([]byte, error)         { return marshalNode(n) }
func (n *PipeExpression) MarshalJSON() ([]byte, error)         { return marshalNode(n) }
func (n *MemberExpression) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *IndexExpression) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *FunctionExpression) MarshalJSON() ([]byte, error)     { return marshalNode(n) }
func (n *BinaryExpression) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *UnaryExpression) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *LogicalExpression) MarshalJSON() ([]byte, error)      { return marshalNode(n) }
func (n *ArrayExpression) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *DictExpression) MarshalJSON() ([]byte, error)         { return marshalNode(n) }
func (n *DictItem) MarshalJSON() ([]byte, error)               { return marshalNode(n) }
func (n *ObjectExpression) MarshalJSON() ([]byte, error)       { return marshalNode(n) }
func (n *ConditionalExpression) MarshalJSON() ([]byte, error)  { return marshalNode(n) }
func (n *Property) MarshalJSON() ([]byte, error)               { return marshalNode(n) }
func (n *Identifier) MarshalJSON() ([]byte, error)             { return marshalNode(n) }
func (n *PipeLiteral) MarshalJSON() ([]byte, error)            { return marshalNode(n) }
func (n *StringLiteral) MarshalJSON() ([]byte, error)          { return marshalNode(n) }
func (n *BooleanLiteral) MarshalJSON() ([]byte, error)         { return marshalNode(n) }
func (n *FloatLiteral) MarshalJSON() ([]byte, error)           { return marshalNode(n) }
func (n *IntegerLiteral) MarshalJSON() ([]byte, error)         { return marshalNode(n) }
func (n *UnsignedIntegerLiteral) MarshalJSON() ([]byte, error) { return marshalNode(n) }
func (n *RegexpLiteral) MarshalJSON() ([]byte, error)          { return marshalNode(n) }
func (n *DurationLiteral) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *DateTimeLiteral) MarshalJSON() ([]byte, error)        { return marshalNode(n) }
func (n *BadExpression) MarshalJSON() ([]byte, error)          { return marshalNode(n) }
func (n *TypeExpression) MarshalJSON() ([]byte, error)         { return marshalNode(n) }
func (n *TypeConstraint) MarshalJSON() ([]byte, error)         { return marshalNode(n) }
func (n *NamedType) MarshalJSON() ([]byte, error)              { return marshalNode(n) }
func (n *TvarType) MarshalJSON() ([]byte, error)               { return marshalNode(n) }
func (n *ArrayType) MarshalJSON() ([]byte, error)              { return marshalNode(n) }
func (n *DictType) MarshalJSON() ([]byte, error)               { return marshalNode(n) }
func (n *RecordType) MarshalJSON() ([]byte, error)             { return marshalNode(n) }
func (n *PropertyType) MarshalJSON() ([]byte, error)           { return marshalNode(n) }
func (n *FunctionType) MarshalJSON() ([]byte, error)           { return marshalNode(n) }
func (n *ParameterType) MarshalJSON() ([]byte, error)          { return marshalNode(n) }
