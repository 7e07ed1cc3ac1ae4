package semantic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/vito/fluxc/pkg/ast"
)

// A graph is written the same way as a syntax tree: each node is an
// object whose "type" member names its kind, followed by its fields.
// Types are written in their structured form.

var nodeInterface = reflect.TypeOf((*Node)(nil)).Elem()

func (p *Package) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalNode writes any node of the graph as JSON.
func MarshalNode(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n Node) error {
	buf.WriteString(`{"type":"`)
	buf.WriteString(n.NodeType())
	buf.WriteByte('"')
	if err := writeFields(buf, reflect.ValueOf(n).Elem()); err != nil {
		return fmt.Errorf("%s: %w", n.NodeType(), err)
	}
	buf.WriteByte('}')
	return nil
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
		if name == "-" || (omitEmpty && isEmpty(fv)) {
			continue
		}
		buf.WriteString(`,"`)
		buf.WriteString(name)
		buf.WriteString(`":`)
		if err := writeValue(buf, fv); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}

func writeValue(buf *bytes.Buffer, v reflect.Value) error {
	if v.Type().Implements(nodeInterface) {
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, v.Interface().(Node))
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Implements(nodeInterface) {
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, v.Index(i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return err
	}
	buf.Write(data)
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

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}

const semanticMagic = "FLXS"

// MarshalBinary encodes an analyzed package in the same checksummed frame
// used for syntax trees.
func MarshalBinary(pkg *Package) ([]byte, error) {
	payload, err := pkg.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "encoding semantic graph")
	}
	return ast.EncodeFrame(semanticMagic, payload), nil
}

// UnmarshalBinaryJSON returns the JSON payload of a frame written by
// MarshalBinary.
func UnmarshalBinaryJSON(data []byte) ([]byte, error) {
	return ast.DecodeFrame(semanticMagic, data)
}
