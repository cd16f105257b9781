package recordstore

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// notification is one pending field change, carrying the written value.
type notification struct {
	field int
	value reflect.Value
}

// flush delivers pending notifications in FIFO order.
//
// Only the outermost call drains the queue. A Set made by a listener
// appends to pending and returns, so its notifications run after the
// current pass.
func (s *Store[T]) flush() {
	if s.delivering {
		return
	}
	s.delivering = true
	defer func() {
		s.delivering = false
	}()

	for len(s.pending) > 0 {
		n := s.pending[0]
		s.pending[0] = notification{}
		s.pending = s.pending[1:]
		s.deliver(n)
	}
	s.pending = nil
}

// deliver calls every listener registered on the field when the fan-out
// starts. Listeners removed mid-way are skipped; listeners added mid-way
// are not called, even when they receive the id of a removed one.
func (s *Store[T]) deliver(n notification) {
	set := s.listeners[n.field]
	value := n.value.Interface()

	for _, e := range set.snapshot() {
		if !set.registered(e) {
			continue
		}
		s.invoke(n.field, e.id, e.callback, value)
	}
}

// invoke calls a listener with panic recovery.
// Panics are logged but do not propagate.
func (s *Store[T]) invoke(field int, id SubscriptionID, cb func(any), value any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("listener panicked",
				"field", s.shape.names[field],
				"subscription_id", id.String(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(value)
}
