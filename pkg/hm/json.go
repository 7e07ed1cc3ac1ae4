package hm

import (
	"encoding/json"
	"sort"
)

// Types are written as objects tagged by "kind". Record fields and
// function parameters keep a stable order so equal types encode equally.

type jsonField struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

func (tv TypeVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		ID   int    `json:"id"`
	}{"Var", int(tv)})
}

func (b Basic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}{"Basic", string(b)})
}

func (a *Array) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Elem Type   `json:"elem"`
	}{"Array", a.Elem})
}

func (d *Dict) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Key  Type   `json:"key"`
		Val  Type   `json:"val"`
	}{"Dict", d.Key, d.Val})
}

type jsonRecord struct {
	Kind   string      `json:"kind"`
	Fields []jsonField `json:"fields"`
	Tail   Type        `json:"tail,omitempty"`
}

func (EmptyRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRecord{Kind: "Record", Fields: []jsonField{}})
}

func (e *Extension) MarshalJSON() ([]byte, error) {
	props, tail := e.Fields()
	rec := jsonRecord{Kind: "Record", Fields: make([]jsonField, len(props))}
	for i, p := range props {
		rec.Fields[i] = jsonField{Name: p.Label, Type: p.Type}
	}
	if _, closed := tail.(EmptyRecord); !closed {
		rec.Tail = tail
	}
	return json.Marshal(rec)
}

func (ft *Function) MarshalJSON() ([]byte, error) {
	fn := struct {
		Kind     string      `json:"kind"`
		Pipe     *jsonField  `json:"pipe,omitempty"`
		Required []jsonField `json:"required"`
		Optional []jsonField `json:"optional"`
		Return   Type        `json:"return"`
	}{
		Kind:     "Function",
		Required: fieldList(ft.Req),
		Optional: fieldList(ft.Opt),
		Return:   ft.Ret,
	}
	if ft.Pipe != nil {
		fn.Pipe = &jsonField{Name: ft.Pipe.Name, Type: ft.Pipe.Type}
	}
	return json.Marshal(fn)
}

func fieldList(m map[string]Type) []jsonField {
	fields := make([]jsonField, 0, len(m))
	for name, t := range m {
		fields = append(fields, jsonField{Name: name, Type: t})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}
