// Package binding ties store subscriptions to the lifetime of a consumer.
//
// A rendering layer observes a [recordstore.Store] for as long as some view
// is alive. This package provides the glue for that pattern:
//
//   - [Scope]: collects cleanup functions and runs them once on dispose
//   - [Use]: subscribes a bundle of listeners and unsubscribes on dispose
//   - [UseField]: mirrors one field into a local [Cell] and asks the view
//     to rebuild whenever it changes
//
// Typical use in a view's init and teardown:
//
//	func (v *personView) Init() error {
//	    var err error
//	    v.age, err = binding.UseField(&v.scope, store, PersonAge, v.markDirty)
//	    return err
//	}
//
//	func (v *personView) Close() error {
//	    return v.scope.Dispose()
//	}
//
// Like the store itself, nothing here is safe for concurrent use.
package binding
