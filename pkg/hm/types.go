package hm

import (
	"fmt"
	"sort"
	"strings"
)

// Type represents all monotypes
type Type interface {
	Substitutable
	Name() string
	Eq(Type) bool
	fmt.Stringer
}

// Substitutable is any type that can have substitutions applied and knows its free type variables
type Substitutable interface {
	Apply(Subs) Substitutable
	FreeTypeVar() TypeVarSet
}

// TypeVariable represents a type variable. Variables are numbered by a
// Fresher and never reused within one analysis.
type TypeVariable int

func (tv TypeVariable) Name() string {
	return tv.String()
}

func (tv TypeVariable) Apply(subs Subs) Substitutable {
	if t, exists := subs[tv]; exists {
		return t.Apply(subs)
	}
	return tv
}

func (tv TypeVariable) FreeTypeVar() TypeVarSet {
	return NewTypeVarSet(tv)
}

func (tv TypeVariable) Eq(other Type) bool {
	if ot, ok := other.(TypeVariable); ok {
		return tv == ot
	}
	return false
}

// String renders the first ten variables as A through J, the rest as t{n}.
func (tv TypeVariable) String() string {
	if tv >= 0 && tv < 10 {
		return string(rune('A' + tv))
	}
	return fmt.Sprintf("t%d", int(tv))
}

// Basic is a primitive type.
type Basic string

const (
	Bool     Basic = "bool"
	Int      Basic = "int"
	Uint     Basic = "uint"
	Float    Basic = "float"
	String   Basic = "string"
	Duration Basic = "duration"
	Time     Basic = "time"
	Regexp   Basic = "regexp"
	Bytes    Basic = "bytes"
)

// BasicTypes lists every primitive type by name.
var BasicTypes = map[string]Basic{
	"bool":     Bool,
	"int":      Int,
	"uint":     Uint,
	"float":    Float,
	"string":   String,
	"duration": Duration,
	"time":     Time,
	"regexp":   Regexp,
	"bytes":    Bytes,
}

func (b Basic) Name() string { return string(b) }
func (b Basic) Apply(Subs) Substitutable { return b }
func (b Basic) FreeTypeVar() TypeVarSet { return nil }
func (b Basic) String() string { return string(b) }
func (b Basic) Eq(other Type) bool { o, ok := other.(Basic); return ok && o == b }

// Array is a homogeneous list.
type Array struct {
	Elem Type
}

func NewArray(elem Type) *Array {
	return &Array{Elem: elem}
}

func (a *Array) Name() string { return a.String() }

func (a *Array) Apply(subs Subs) Substitutable {
	return &Array{Elem: subs.Apply(a.Elem)}
}

func (a *Array) FreeTypeVar() TypeVarSet {
	return a.Elem.FreeTypeVar()
}

func (a *Array) Eq(other Type) bool {
	o, ok := other.(*Array)
	return ok && a.Elem.Eq(o.Elem)
}

func (a *Array) String() string {
	return "[" + a.Elem.String() + "]"
}

// Dict maps keys of one type to values of another.
type Dict struct {
	Key Type
	Val Type
}

func NewDict(key, val Type) *Dict {
	return &Dict{Key: key, Val: val}
}

func (d *Dict) Name() string { return d.String() }

func (d *Dict) Apply(subs Subs) Substitutable {
	return &Dict{Key: subs.Apply(d.Key), Val: subs.Apply(d.Val)}
}

func (d *Dict) FreeTypeVar() TypeVarSet {
	return d.Key.FreeTypeVar().Union(d.Val.FreeTypeVar())
}

func (d *Dict) Eq(other Type) bool {
	o, ok := other.(*Dict)
	return ok && d.Key.Eq(o.Key) && d.Val.Eq(o.Val)
}

func (d *Dict) String() string {
	return fmt.Sprintf("[%s:%s]", d.Key, d.Val)
}

// EmptyRecord is the record with no properties. It closes a row.
type EmptyRecord struct{}

func (EmptyRecord) Name() string { return "{}" }
func (EmptyRecord) Apply(Subs) Substitutable { return EmptyRecord{} }
func (EmptyRecord) FreeTypeVar() TypeVarSet { return nil }
func (EmptyRecord) String() string { return "{}" }
func (EmptyRecord) Eq(other Type) bool { _, ok := other.(EmptyRecord); return ok }

// Extension adds one property to a record. Its tail is another record or,
// for records of unknown shape, a type variable.
type Extension struct {
	Label string
	Value Type
	Tail  Type
}

// Property is a labelled record field.
type Property struct {
	Label string
	Type  Type
}

// NewRecord builds a record from its properties in order. A nil tail
// makes a closed record.
func NewRecord(props []Property, tail Type) Type {
	if tail == nil {
		tail = EmptyRecord{}
	}
	rec := tail
	for i := len(props) - 1; i >= 0; i-- {
		rec = &Extension{Label: props[i].Label, Value: props[i].Type, Tail: rec}
	}
	return rec
}

func (e *Extension) Name() string { return e.String() }

func (e *Extension) Apply(subs Subs) Substitutable {
	return &Extension{
		Label: e.Label,
		Value: subs.Apply(e.Value),
		Tail:  subs.Apply(e.Tail),
	}
}

func (e *Extension) FreeTypeVar() TypeVarSet {
	return e.Value.FreeTypeVar().Union(e.Tail.FreeTypeVar())
}

func (e *Extension) Eq(other Type) bool {
	o, ok := other.(*Extension)
	return ok && e.Label == o.Label && e.Value.Eq(o.Value) && e.Tail.Eq(o.Tail)
}

// Fields flattens the record into its properties and final tail.
func (e *Extension) Fields() ([]Property, Type) {
	var props []Property
	var t Type = e
	for {
		ext, ok := t.(*Extension)
		if !ok {
			return props, t
		}
		props = append(props, Property{Label: ext.Label, Type: ext.Value})
		t = ext.Tail
	}
}

func (e *Extension) String() string {
	props, tail := e.Fields()
	fields := make([]string, len(props))
	for i, p := range props {
		fields[i] = p.Label + ": " + p.Type.String()
	}
	body := strings.Join(fields, ", ")
	if _, closed := tail.(EmptyRecord); !closed {
		body = tail.String() + " with " + body
	}
	return "{" + body + "}"
}

// IsRecord reports whether t is a record row.
func IsRecord(t Type) bool {
	switch t.(type) {
	case EmptyRecord, *Extension:
		return true
	}
	return false
}

// PipeArgument is the parameter fed by "|>". An anonymous one is named
// "<-".
type PipeArgument struct {
	Name string
	Type Type
}

// AnonymousPipe is the name of a pipe parameter declared without a name.
const AnonymousPipe = "<-"

// Function represents a function type with named parameters
type Function struct {
	Req  map[string]Type
	Opt  map[string]Type
	Pipe *PipeArgument
	Ret  Type
}

func NewFnType(req, opt map[string]Type, pipe *PipeArgument, ret Type) *Function {
	if req == nil {
		req = map[string]Type{}
	}
	if opt == nil {
		opt = map[string]Type{}
	}
	return &Function{Req: req, Opt: opt, Pipe: pipe, Ret: ret}
}

func (ft *Function) Name() string {
	return ft.String()
}

func (ft *Function) Apply(subs Subs) Substitutable {
	result := &Function{
		Req: applyMap(subs, ft.Req),
		Opt: applyMap(subs, ft.Opt),
		Ret: subs.Apply(ft.Ret),
	}
	if ft.Pipe != nil {
		result.Pipe = &PipeArgument{Name: ft.Pipe.Name, Type: subs.Apply(ft.Pipe.Type)}
	}
	return result
}

func applyMap(subs Subs, m map[string]Type) map[string]Type {
	out := make(map[string]Type, len(m))
	for k, t := range m {
		out[k] = subs.Apply(t)
	}
	return out
}

func (ft *Function) FreeTypeVar() TypeVarSet {
	result := ft.Ret.FreeTypeVar()
	for _, t := range ft.Req {
		result = result.Union(t.FreeTypeVar())
	}
	for _, t := range ft.Opt {
		result = result.Union(t.FreeTypeVar())
	}
	if ft.Pipe != nil {
		result = result.Union(ft.Pipe.Type.FreeTypeVar())
	}
	return result
}

func (ft *Function) Eq(other Type) bool {
	ot, ok := other.(*Function)
	if !ok {
		return false
	}
	if (ft.Pipe == nil) != (ot.Pipe == nil) {
		return false
	}
	if ft.Pipe != nil && (ft.Pipe.Name != ot.Pipe.Name || !ft.Pipe.Type.Eq(ot.Pipe.Type)) {
		return false
	}
	return mapsEq(ft.Req, ot.Req) && mapsEq(ft.Opt, ot.Opt) && ft.Ret.Eq(ot.Ret)
}

func mapsEq(a, b map[string]Type) bool {
	if len(a) != len(b) {
		return false
	}
	for k, t := range a {
		o, ok := b[k]
		if !ok || !t.Eq(o) {
			return false
		}
	}
	return true
}

// String renders the pipe parameter first, then required and optional
// parameters in name order.
func (ft *Function) String() string {
	var params []string
	if ft.Pipe != nil {
		name := ft.Pipe.Name
		if name == AnonymousPipe {
			name = ""
		}
		params = append(params, fmt.Sprintf("<-%s: %s", name, ft.Pipe.Type))
	}
	for _, k := range sortedKeys(ft.Req) {
		params = append(params, fmt.Sprintf("%s: %s", k, ft.Req[k]))
	}
	for _, k := range sortedKeys(ft.Opt) {
		params = append(params, fmt.Sprintf("?%s: %s", k, ft.Opt[k]))
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), ft.Ret)
}

func sortedKeys(m map[string]Type) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Types represents a slice of types
type Types []Type
