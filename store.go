package recordstore

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
)

// Store holds a fixed-shape record and notifies per-field listeners when
// field values change.
//
// The shape (the set of field names) is taken from the initial record
// passed to [New] and never changes. Values change through [Store.Set].
// Listeners registered with [Store.AddListeners] are called once right
// away with the current value, then after every Set that touches their
// field.
//
// Store is NOT safe for concurrent use. All calls must happen on one
// goroutine; use a [Loop] to funnel work from other goroutines:
//
//	go func() {
//	    result := fetch()
//	    loop.Dispatch(func() {
//	        s.Set(recordstore.Change{Field: "status", Value: result})
//	    })
//	}()
//
// A listener may call Set on the same store. Its writes apply at once, but
// its notifications are queued and delivered after the current
// notification pass completes, in the order the nested calls were made.
type Store[T any] struct {
	shape  *shape
	base   reflect.Value
	values []reflect.Value

	// listeners has one set per field position for the store's lifetime.
	listeners []*listenerSet
	// active maps every live subscription id to its field position.
	active map[SubscriptionID]int

	nextID IDGenerator
	logger *slog.Logger

	pending    []notification
	delivering bool
}

// New creates a [Store] whose record equals initial.
//
// T must be a struct type or a map type with string keys:
//
//   - struct: every exported field is part of the shape, named by its
//     `store:"name"` tag or its Go name; `store:"-"` excludes a field
//   - map: every key present in initial is a field, in sorted order
//
// Returns [ErrNotRecord] for other types, a [*FieldError] wrapping
// [ErrDuplicateField] when two struct fields share a name, or the error of
// the first invalid option.
//
// Example:
//
//	type Person struct {
//	    Name string `store:"name"`
//	    Age  int    `store:"age"`
//	}
//
//	s, err := recordstore.New(Person{Name: "John", Age: 23})
func New[T any](initial T, opts ...Option) (*Store[T], error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	ids := cfg.ids
	if ids == nil {
		ids = SequentialIDs()
	}

	if k := reflect.TypeFor[T]().Kind(); k != reflect.Struct && k != reflect.Map {
		return nil, ErrNotRecord
	}
	v := reflect.ValueOf(&initial).Elem()

	sh, err := shapeOf(v)
	if err != nil {
		return nil, err
	}

	base := reflect.New(sh.typ).Elem()
	if !sh.isMap {
		base.Set(v)
	}

	listeners := make([]*listenerSet, len(sh.names))
	for i := range listeners {
		listeners[i] = newListenerSet()
	}

	return &Store[T]{
		shape:     sh,
		base:      base,
		values:    sh.values(v),
		listeners: listeners,
		active:    make(map[SubscriptionID]int),
		nextID:    ids,
		logger:    logger,
	}, nil
}

// MustNew is like [New] but panics on error.
// Intended for package-level stores built from literal records.
func MustNew[T any](initial T, opts ...Option) *Store[T] {
	s, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("recordstore: %v", err))
	}
	return s
}

// Fields returns the field names of the store's shape in order.
//
// The returned slice is a copy; modifying it does not affect the store.
func (s *Store[T]) Fields() []string {
	return slices.Clone(s.shape.names)
}

// Get returns the current value of field.
//
// Returns a [*FieldError] wrapping [ErrUnknownField] if field is not part
// of the shape. See [Read] for a typed variant.
func (s *Store[T]) Get(field string) (any, error) {
	i, err := s.lookup("get", field)
	if err != nil {
		return nil, err
	}
	return s.values[i].Interface(), nil
}

// Record returns a copy of the current record.
//
// The copy reflects every Set that has returned, as well as writes made
// by a Set that is still notifying. Field values are copied shallowly:
// slices, maps and pointers are shared with the store.
func (s *Store[T]) Record() T {
	out := s.shape.build(s.base, s.values)
	return out.Interface().(T)
}

// Set writes each change, then notifies the listeners of every changed
// field, in argument order, with the value written.
//
// All writes complete before the first listener runs, so a listener on
// one field reads the new value of any other field in the same call.
//
// Set validates every change before writing anything. It returns a
// [*FieldError] wrapping [ErrUnknownField] for a field outside the shape,
// [ErrTypeMismatch] for a value not assignable to the field's type, or
// [ErrDuplicateField] if a field appears twice. nil is accepted for
// pointer, interface, map, slice, channel and func fields.
//
// Example:
//
//	err := s.Set(
//	    recordstore.Change{Field: "name", Value: "Tim"},
//	    recordstore.Change{Field: "age", Value: 42},
//	)
func (s *Store[T]) Set(changes ...Change) error {
	if len(changes) == 0 {
		return nil
	}

	writes := make([]notification, 0, len(changes))
	seen := make(map[int]struct{}, len(changes))
	for _, c := range changes {
		i, err := s.lookup("set", c.Field)
		if err != nil {
			return err
		}
		if _, dup := seen[i]; dup {
			return &FieldError{Op: "set", Field: c.Field, Err: ErrDuplicateField}
		}
		seen[i] = struct{}{}

		v, ok := coerce(c.Value, s.shape.types[i])
		if !ok {
			return mismatch("set", c.Field, reflect.TypeOf(c.Value), s.shape.types[i])
		}
		writes = append(writes, notification{field: i, value: v})
	}

	for _, w := range writes {
		s.values[w.field] = w.value
	}

	s.pending = append(s.pending, writes...)
	s.flush()
	return nil
}

// AddListeners registers every listener of the bundle and returns the
// subscription id minted for each field.
//
// Each callback is called once, before AddListeners returns, with the
// field's current value. The returned [Subscriptions] holds exactly the
// fields named in listeners.
//
// AddListeners validates the whole bundle before registering anything.
// It returns a [*FieldError] wrapping [ErrUnknownField], [ErrNilCallback],
// [ErrDuplicateField] (a field named twice) or [ErrTypeMismatch] (a typed
// listener whose type cannot hold the field's values).
//
// Caller must pass the result to [Store.RemoveListeners] when done
// observing; the store never drops listeners on its own.
func (s *Store[T]) AddListeners(listeners ...Listener) (Subscriptions, error) {
	positions := make([]int, len(listeners))
	seen := make(map[int]struct{}, len(listeners))
	for k, l := range listeners {
		i, err := s.lookup("add listener", l.Field)
		if err != nil {
			return nil, err
		}
		if l.Callback == nil {
			return nil, &FieldError{Op: "add listener", Field: l.Field, Err: ErrNilCallback}
		}
		if _, dup := seen[i]; dup {
			return nil, &FieldError{Op: "add listener", Field: l.Field, Err: ErrDuplicateField}
		}
		seen[i] = struct{}{}
		if l.valueType != nil && !s.shape.types[i].AssignableTo(l.valueType) {
			return nil, mismatch("add listener", l.Field, s.shape.types[i], l.valueType)
		}
		positions[k] = i
	}

	subs := make(Subscriptions, len(listeners))
	for k, l := range listeners {
		i := positions[k]

		set := s.listeners[i]
		if set == nil {
			panic(fmt.Sprintf("recordstore: no listener set for field %q", l.Field))
		}

		id := s.nextID()
		if _, taken := s.active[id]; taken {
			panic(fmt.Sprintf("recordstore: duplicate subscription id %q", id))
		}
		s.active[id] = i
		set.add(id, l.Callback)
		subs[l.Field] = id

		s.logger.Debug("listener added", "field", l.Field, "subscription_id", id.String())

		// catch-up call with the present value
		s.invoke(i, id, l.Callback, s.values[i].Interface())
	}

	return subs, nil
}

// RemoveListeners unregisters the listeners named in subs.
//
// An id that is not registered on its field (never issued, already
// removed, or issued for another field) is ignored. RemoveListeners is
// therefore safe to call twice with the same [Subscriptions].
//
// Returns a [*FieldError] wrapping [ErrUnknownField] if subs names a field
// outside the shape; nothing is removed in that case.
func (s *Store[T]) RemoveListeners(subs Subscriptions) error {
	fields := slices.Sorted(maps.Keys(subs))

	positions := make([]int, len(fields))
	for k, field := range fields {
		i, err := s.lookup("remove listener", field)
		if err != nil {
			return err
		}
		positions[k] = i
	}

	for k, field := range fields {
		i := positions[k]
		id := subs[field]

		if owner, ok := s.active[id]; !ok || owner != i {
			continue
		}
		delete(s.active, id)
		s.listeners[i].remove(id)

		s.logger.Debug("listener removed", "field", field, "subscription_id", id.String())
	}

	return nil
}

// ListenerCount returns the number of listeners registered on field.
// Returns 0 for a field outside the shape.
func (s *Store[T]) ListenerCount(field string) int {
	i, ok := s.shape.index[field]
	if !ok {
		return 0
	}
	return s.listeners[i].len()
}

// lookup resolves a field name to its position in the shape.
func (s *Store[T]) lookup(op, field string) (int, error) {
	i, ok := s.shape.index[field]
	if !ok {
		return 0, &FieldError{Op: op, Field: field, Err: ErrUnknownField}
	}
	return i, nil
}
