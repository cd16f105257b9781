package recordstore

import "reflect"

// Field is a typed handle on one field of a store's shape.
//
// Field carries no state beyond the name; its type parameter lets the
// compiler check values and callbacks. Generated accessors (see the
// recordstore gen command) declare one Field per record field:
//
//	var PersonAge = recordstore.NewField[int]("age")
//
//	s.Set(PersonAge.Change(24))
//	s.AddListeners(PersonAge.On(func(age int) { ... }))
//	age, err := recordstore.Read(s, PersonAge)
type Field[V any] struct {
	name string
}

// NewField returns a handle for the field called name.
func NewField[V any](name string) Field[V] {
	return Field[V]{name: name}
}

// Name returns the field name.
func (f Field[V]) Name() string {
	return f.name
}

// Change returns a [Change] assigning v to the field.
func (f Field[V]) Change(v V) Change {
	return Change{Field: f.name, Value: v}
}

// On returns a typed [Listener] for the field.
//
// [Store.AddListeners] rejects it with [ErrTypeMismatch] unless the
// field's declared type is assignable to V. A nil fn yields a listener
// that AddListeners rejects with [ErrNilCallback].
func (f Field[V]) On(fn func(V)) Listener {
	l := Listener{Field: f.name, valueType: reflect.TypeFor[V]()}
	if fn != nil {
		l.Callback = func(v any) {
			typed, _ := v.(V)
			fn(typed)
		}
	}
	return l
}

// Read returns the current value of f in s.
//
// Returns a [*FieldError] wrapping [ErrUnknownField] if the field is not
// part of the shape, or [ErrTypeMismatch] if the field's type is not
// assignable to V.
func Read[V, T any](s *Store[T], f Field[V]) (V, error) {
	var zero V

	i, err := s.lookup("read", f.name)
	if err != nil {
		return zero, err
	}

	want := reflect.TypeFor[V]()
	if got := s.shape.types[i]; !got.AssignableTo(want) {
		return zero, mismatch("read", f.name, got, want)
	}

	typed, _ := s.values[i].Interface().(V)
	return typed, nil
}
