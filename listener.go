package recordstore

import (
	"reflect"
	"slices"
)

// Listener pairs a field name with the callback to run when it changes.
//
// A slice of listeners passed to [Store.AddListeners] forms one callback
// bundle. Build untyped listeners with a struct literal, or typed ones
// with [Field.On]:
//
//	subs, err := s.AddListeners(
//	    recordstore.Listener{Field: "name", Callback: func(v any) { ... }},
//	    ageField.On(func(age int) { ... }),
//	)
type Listener struct {
	// Field is the name of the observed field.
	Field string

	// Callback receives the field's value: once immediately when the
	// listener is added, then after every Set that includes the field.
	Callback func(any)

	// valueType is the type a typed listener expects, nil for untyped.
	valueType reflect.Type
}

// Subscriptions maps field names to the ids returned by
// [Store.AddListeners]. Pass it back to [Store.RemoveListeners] as is.
type Subscriptions map[string]SubscriptionID

// Change is one entry of a batched update passed to [Store.Set].
type Change struct {
	Field string
	Value any
}

// listenerEntry is one registration. Its address identifies it, so a
// reused id never matches an earlier registration.
type listenerEntry struct {
	id       SubscriptionID
	callback func(any)
}

// listenerSet is the registry entry of one field, kept in insertion order.
type listenerSet struct {
	order []*listenerEntry
	byID  map[SubscriptionID]*listenerEntry
}

func newListenerSet() *listenerSet {
	return &listenerSet{byID: make(map[SubscriptionID]*listenerEntry)}
}

func (l *listenerSet) add(id SubscriptionID, cb func(any)) {
	e := &listenerEntry{id: id, callback: cb}
	l.order = append(l.order, e)
	l.byID[id] = e
}

func (l *listenerSet) remove(id SubscriptionID) bool {
	e, ok := l.byID[id]
	if !ok {
		return false
	}
	delete(l.byID, id)
	l.order = slices.DeleteFunc(l.order, func(x *listenerEntry) bool { return x == e })
	return true
}

// registered reports whether e is still the live registration for its id.
func (l *listenerSet) registered(e *listenerEntry) bool {
	return l.byID[e.id] == e
}

// snapshot returns the current entries. The copy is required because
// remove compacts order in place.
func (l *listenerSet) snapshot() []*listenerEntry {
	return slices.Clone(l.order)
}

func (l *listenerSet) len() int {
	return len(l.byID)
}
