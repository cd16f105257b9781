package recordstore

import (
	"errors"
	"log/slog"
)

// storeConfig holds mutable state during Store construction.
type storeConfig struct {
	logger *slog.Logger
	ids    IDGenerator
}

// Option is a function that configures a [Store] during construction.
//
// Option implements the functional options pattern. Options return an
// error if validation fails, which [New] passes back to the caller.
//
// Built-in options: [WithLogger], [WithIDGenerator].
type Option func(*storeConfig) error

// WithLogger sets a custom [slog.Logger] for the store.
//
// The store logs listener registration at debug level and recovered
// listener panics at error level. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	s, err := recordstore.New(person, recordstore.WithLogger(logger))
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *storeConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithIDGenerator replaces the default [SequentialIDs] generator.
//
// Example:
//
//	s, err := recordstore.New(person, recordstore.WithIDGenerator(recordstore.UUIDs()))
//
// Returns an error if the generator is nil.
func WithIDGenerator(gen IDGenerator) Option {
	return func(cfg *storeConfig) error {
		if gen == nil {
			return errors.New("id generator cannot be nil")
		}
		cfg.ids = gen
		return nil
	}
}

const defaultQueueSize = 64

// loopConfig holds mutable state during Loop construction.
type loopConfig struct {
	logger    *slog.Logger
	queueSize int
}

// LoopOption configures a [Loop] during construction.
//
// Built-in options: [WithLoopLogger], [WithQueueSize].
type LoopOption func(*loopConfig) error

// WithLoopLogger sets the logger used to report panicking tasks.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(cfg *loopConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithQueueSize sets how many dispatched tasks may wait before
// [Loop.Dispatch] blocks. Defaults to 64.
//
// Returns an error if the size is zero or negative.
func WithQueueSize(n int) LoopOption {
	return func(cfg *loopConfig) error {
		if n <= 0 {
			return errors.New("queue size must be positive")
		}
		cfg.queueSize = n
		return nil
	}
}
