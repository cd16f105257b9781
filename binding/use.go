package binding

import (
	"errors"

	"github.com/jpalmerr/recordstore"
)

// Subscriber is the part of [recordstore.Store] a binding needs.
type Subscriber interface {
	AddListeners(listeners ...recordstore.Listener) (recordstore.Subscriptions, error)
	RemoveListeners(subs recordstore.Subscriptions) error
}

// Use subscribes listeners to store and removes them when scope is disposed.
//
// The listeners receive their catch-up call before Use returns. On error
// nothing is subscribed.
//
// Returns an error if scope is already disposed, or the error of
// AddListeners.
func Use(scope *Scope, store Subscriber, listeners ...recordstore.Listener) error {
	if scope.IsDisposed() {
		return errors.New("scope already disposed")
	}

	subs, err := store.AddListeners(listeners...)
	if err != nil {
		return err
	}

	return scope.OnDispose(func() error {
		return store.RemoveListeners(subs)
	})
}

// Cell holds the latest value of one observed field.
type Cell[V any] struct {
	value   V
	updates int
}

// Value returns the most recent value delivered to the cell.
func (c *Cell[V]) Value() V {
	return c.value
}

// Updates returns how many values the cell has received, including the
// initial catch-up value.
func (c *Cell[V]) Updates() int {
	return c.updates
}

// UseField mirrors field into a [Cell] for as long as scope lives.
//
// The cell holds the field's current value when UseField returns. After
// every later change the cell is updated and rebuild, if not nil, is
// called. rebuild is not called for the initial value.
//
// Example:
//
//	age, err := binding.UseField(&scope, store, PersonAge, view.markDirty)
//	...
//	fmt.Sprintf("%d", age.Value())
func UseField[V any](scope *Scope, store Subscriber, field recordstore.Field[V], rebuild func()) (*Cell[V], error) {
	cell := &Cell[V]{}

	listener := field.On(func(v V) {
		cell.value = v
		cell.updates++
		if cell.updates > 1 && rebuild != nil && !scope.IsDisposed() {
			rebuild()
		}
	})

	if err := Use(scope, store, listener); err != nil {
		return nil, err
	}
	return cell, nil
}
