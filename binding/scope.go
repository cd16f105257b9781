package binding

import "errors"

// Scope collects cleanup functions for a consumer's lifetime.
//
// The zero value is ready to use. Embed it in a view or hold it by value.
type Scope struct {
	disposers []func() error
	disposed  bool
}

// OnDispose registers a cleanup function to run when the scope is disposed.
//
// If the scope is already disposed, cleanup runs immediately and its
// error is returned. Otherwise OnDispose returns nil. Nil cleanups are
// ignored.
func (s *Scope) OnDispose(cleanup func() error) error {
	if cleanup == nil {
		return nil
	}
	if s.disposed {
		return cleanup()
	}
	s.disposers = append(s.disposers, cleanup)
	return nil
}

// Dispose runs every registered cleanup in reverse registration order.
//
// All cleanups run even if some fail; their errors are joined. Calling
// Dispose again is a no-op returning nil.
func (s *Scope) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true

	var errs []error
	for i := len(s.disposers) - 1; i >= 0; i-- {
		if err := s.disposers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.disposers = nil

	return errors.Join(errs...)
}

// IsDisposed reports whether [Scope.Dispose] has been called.
func (s *Scope) IsDisposed() bool {
	return s.disposed
}
