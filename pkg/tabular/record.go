package tabular

import (
	"fmt"
	"reflect"
	"sort"
)

// Record is implemented by values that expose named fields at runtime.
// Types that do not implement Record are read with reflection: structs
// (and pointers to structs) by exported field name, maps by string key.
type Record interface {
	// FieldNames returns the names of the fields the record carries.
	FieldNames() []string

	// Field returns the value of the named field and whether it exists.
	Field(name string) (any, bool)
}

// Map is a Record backed by a map.
type Map map[string]any

// FieldNames returns the keys of m in sorted order.
func (m Map) FieldNames() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Field returns m[name].
func (m Map) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Objects converts a typed slice to the []any accepted by EncodeObjects.
func Objects[T any](items []T) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

// fieldValue is one extracted value; present is false when the record has
// no field with the mapped name.
type fieldValue struct {
	value   any
	present bool
}

type shapeKind int

const (
	shapeStruct shapeKind = iota
	shapeMap
	shapeRecord
)

// shape is the field layout discovered from the first record of a call.
type shape struct {
	kind    shapeKind
	typ     reflect.Type
	sources []string

	// indices holds, per mapped column, the struct field index path or nil
	// when the struct has no such field.
	indices [][]int
}

// discoverShape inspects the first record once per call.
func discoverShape(first any, m *Mapping) (*shape, error) {
	if first == nil {
		return nil, ErrNilRecord
	}

	s := &shape{
		typ:     reflect.TypeOf(first),
		sources: m.Sources(),
	}

	if _, ok := first.(Record); ok {
		s.kind = shapeRecord
		return s, nil
	}

	t := s.typ
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch {
	case t.Kind() == reflect.Struct:
		s.kind = shapeStruct
		fields := structFields(t)
		s.indices = make([][]int, len(s.sources))
		for i, name := range s.sources {
			s.indices[i] = fields[name]
		}
	case s.typ.Kind() == reflect.Map && s.typ.Key().Kind() == reflect.String:
		s.kind = shapeMap
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedRecord, first)
	}

	return s, nil
}

// missing returns the mapped names the first record does not carry.
func (s *shape) missing(first any) []string {
	var names map[string]bool
	switch s.kind {
	case shapeStruct:
		var out []string
		for i, idx := range s.indices {
			if idx == nil {
				out = append(out, s.sources[i])
			}
		}
		return out
	case shapeRecord:
		names = make(map[string]bool)
		for _, n := range first.(Record).FieldNames() {
			names[n] = true
		}
	case shapeMap:
		names = make(map[string]bool)
		for _, k := range reflect.ValueOf(first).MapKeys() {
			names[k.String()] = true
		}
	}

	var out []string
	for _, src := range s.sources {
		if !names[src] {
			out = append(out, src)
		}
	}
	return out
}

// extract reads the mapped fields of rec in mapping order.
func (s *shape) extract(rec any) ([]fieldValue, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if t := reflect.TypeOf(rec); t != s.typ {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrHeterogeneousRecords, t, s.typ)
	}

	out := make([]fieldValue, len(s.sources))

	switch s.kind {
	case shapeRecord:
		r := rec.(Record)
		for i, name := range s.sources {
			v, ok := r.Field(name)
			out[i] = fieldValue{value: v, present: ok}
		}

	case shapeMap:
		if mm, ok := rec.(map[string]any); ok {
			for i, name := range s.sources {
				v, ok := mm[name]
				out[i] = fieldValue{value: v, present: ok}
			}
			return out, nil
		}
		rv := reflect.ValueOf(rec)
		for i, name := range s.sources {
			mv := rv.MapIndex(reflect.ValueOf(name).Convert(s.typ.Key()))
			if !mv.IsValid() {
				continue
			}
			out[i] = fieldValue{value: mv.Interface(), present: true}
		}

	case shapeStruct:
		rv := reflect.ValueOf(rec)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, ErrNilRecord
			}
			rv = rv.Elem()
		}
		for i, idx := range s.indices {
			if idx == nil {
				continue
			}
			fv, err := rv.FieldByIndexErr(idx)
			if err != nil {
				// nil embedded pointer: the field exists but has no value
				out[i] = fieldValue{present: true}
				continue
			}
			out[i] = fieldValue{value: fv.Interface(), present: true}
		}
	}

	return out, nil
}

// structFields returns the exported, visible fields of t by record name.
// The name is the `tabular` tag when set, the Go field name otherwise;
// a tag of "-" hides the field.
func structFields(t reflect.Type) map[string][]int {
	fields := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || (f.Anonymous && isStructType(f.Type)) {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("tabular"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if _, dup := fields[name]; dup {
			continue
		}
		fields[name] = f.Index
	}
	return fields
}

func isStructType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
