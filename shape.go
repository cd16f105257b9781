package recordstore

import (
	"reflect"
	"sort"
	"strings"
)

// tagName is the struct tag that renames or excludes a field.
const tagName = "store"

// shape is the fixed field layout of a record type.
type shape struct {
	typ   reflect.Type
	isMap bool
	names []string
	types []reflect.Type
	index map[string]int

	// fieldIndex holds the struct field index for each position (structs only).
	fieldIndex []int
	// keys holds the map key for each position (maps only).
	keys []reflect.Value
}

// shapeOf derives the shape of a record value.
func shapeOf(v reflect.Value) (*shape, error) {
	if !v.IsValid() {
		return nil, ErrNotRecord
	}

	switch t := v.Type(); t.Kind() {
	case reflect.Struct:
		return structShape(t)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, ErrNotRecord
		}
		return mapShape(v), nil
	default:
		return nil, ErrNotRecord
	}
}

// FieldName returns the store field name of a struct field: the name in
// its `store` tag, or goName when the tag is absent or names nothing.
// It reports false for `store:"-"`.
func FieldName(goName string, tag reflect.StructTag) (string, bool) {
	value, ok := tag.Lookup(tagName)
	if !ok {
		return goName, true
	}
	value, _, _ = strings.Cut(value, ",")
	value = strings.TrimSpace(value)
	switch value {
	case "-":
		return "", false
	case "":
		return goName, true
	}
	return value, true
}

func structShape(t reflect.Type) (*shape, error) {
	sh := &shape{typ: t, index: make(map[string]int, t.NumField())}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name, ok := FieldName(sf.Name, sf.Tag)
		if !ok {
			continue
		}

		if _, exists := sh.index[name]; exists {
			return nil, &FieldError{Op: "new", Field: name, Err: ErrDuplicateField}
		}
		sh.index[name] = len(sh.names)
		sh.names = append(sh.names, name)
		sh.types = append(sh.types, sf.Type)
		sh.fieldIndex = append(sh.fieldIndex, i)
	}

	return sh, nil
}

func mapShape(v reflect.Value) *shape {
	t := v.Type()
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	sh := &shape{
		typ:   t,
		isMap: true,
		names: make([]string, len(keys)),
		types: make([]reflect.Type, len(keys)),
		index: make(map[string]int, len(keys)),
		keys:  keys,
	}
	for i, k := range keys {
		sh.names[i] = k.String()
		sh.types[i] = t.Elem()
		sh.index[k.String()] = i
	}
	return sh
}

// values extracts the current field values of a record in shape order.
func (sh *shape) values(v reflect.Value) []reflect.Value {
	out := make([]reflect.Value, len(sh.names))
	for i := range sh.names {
		var fv reflect.Value
		if sh.isMap {
			fv = v.MapIndex(sh.keys[i])
		} else {
			fv = v.Field(sh.fieldIndex[i])
		}
		// detach from the caller's value
		cp := reflect.New(sh.types[i]).Elem()
		cp.Set(fv)
		out[i] = cp
	}
	return out
}

// build assembles a fresh record from base and the current values.
func (sh *shape) build(base reflect.Value, values []reflect.Value) reflect.Value {
	if sh.isMap {
		m := reflect.MakeMapWithSize(sh.typ, len(values))
		for i, v := range values {
			m.SetMapIndex(sh.keys[i], v)
		}
		return m
	}

	out := reflect.New(sh.typ).Elem()
	out.Set(base)
	for i, v := range values {
		out.Field(sh.fieldIndex[i]).Set(v)
	}
	return out
}

// coerce converts value into a reflect.Value of type t.
// nil is accepted for nillable kinds and becomes the zero value.
func coerce(value any, t reflect.Type) (reflect.Value, bool) {
	if value == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), true
		default:
			return reflect.Value{}, false
		}
	}

	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	cp := reflect.New(t).Elem()
	cp.Set(v)
	return cp, true
}
