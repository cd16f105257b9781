package recordstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRecord is returned by [New] when the record type is neither a
	// struct nor a map with string keys.
	ErrNotRecord = errors.New("record must be a struct or a map with string keys")

	// ErrUnknownField indicates a field name outside the store's shape.
	ErrUnknownField = errors.New("unknown field")

	// ErrTypeMismatch indicates a value or typed handle that does not fit
	// the field's declared type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrDuplicateField indicates the same field named twice in one call,
	// or two struct fields resolving to the same name.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrNilCallback is returned by [Store.AddListeners] for a listener
	// without a callback.
	ErrNilCallback = errors.New("nil callback")

	// ErrLoopStopped is returned when dispatching to a [Loop] that has stopped.
	ErrLoopStopped = errors.New("loop stopped")
)

// FieldError describes a failed operation on a single field.
//
// Use [errors.Is] with the package sentinels to classify it:
//
//	if errors.Is(err, recordstore.ErrUnknownField) { ... }
type FieldError struct {
	// Op is the store operation that failed ("get", "set", ...).
	Op string
	// Field is the field name the caller supplied.
	Field string
	// Err is the underlying error, usually one of the package sentinels.
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func mismatch(op, field string, got, want any) error {
	return &FieldError{
		Op:    op,
		Field: field,
		Err:   fmt.Errorf("%w: %v is not %v", ErrTypeMismatch, got, want),
	}
}
