// Package recordstore provides a minimal reactive state container: a
// fixed-shape record whose fields can be observed one at a time.
//
// A [Store] owns a record (a struct or a string-keyed map) and, per field,
// a set of listeners. Consumers subscribe to the narrow slice of state they
// render and are called only when that slice changes, instead of
// re-checking on every global update.
//
// # Quick Start
//
//	type Person struct {
//	    Name string `store:"name"`
//	    Age  int    `store:"age"`
//	}
//
//	s, _ := recordstore.New(Person{Name: "John", Age: 23})
//
//	subs, _ := s.AddListeners(recordstore.Listener{
//	    Field:    "age",
//	    Callback: func(v any) { fmt.Println("age is", v) },
//	}) // prints "age is 23" right away
//
//	s.Set(recordstore.Change{Field: "name", Value: "Joe"}) // no output
//	s.Set(recordstore.Change{Field: "age", Value: 24})     // prints "age is 24"
//
//	s.RemoveListeners(subs)
//
// # Operations
//
//   - [New]: construct a store; the initial record fixes the shape
//   - [Store.Get], [Read]: read one field, untyped or typed
//   - [Store.Record]: copy of the whole current record
//   - [Store.Set]: batched update; all writes land before any listener runs
//   - [Store.AddListeners]: subscribe a bundle; each callback gets a
//     catch-up call with the current value
//   - [Store.RemoveListeners]: unsubscribe; unknown ids are ignored
//
// # Typed Access
//
// [Field] handles give compile-time typed changes, listeners and reads.
// The recordstore CLI generates a typed wrapper per record struct:
//
//	recordstore gen -f person.go -t Person
//
// # Threading
//
// A Store is meant for one logical thread of control, typically a UI event
// loop. It does no locking. Use [Loop] to run store calls on a single
// goroutine when updates originate elsewhere.
//
// Listeners may call Set re-entrantly. Writes apply immediately; the
// resulting notifications are delivered after the current pass, in order.
//
// # Related Packages
//
//   - binding: ties subscriptions to a consumer's lifetime
//   - config: YAML scenario files for the recordstore CLI
package recordstore
