package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Loop runs dispatched tasks one at a time on a single goroutine.
//
// A [Store] must only be used from one goroutine. Loop provides that
// goroutine: start [Loop.Run] once, then hand work to it from anywhere
// with [Loop.Dispatch] or [Loop.Call].
//
//	loop, _ := recordstore.NewLoop()
//	go loop.Run(ctx)
//
//	// from any goroutine
//	loop.Dispatch(func() {
//	    s.Set(recordstore.Change{Field: "age", Value: 24})
//	})
//
// Tasks run in dispatch order. A panicking task is recovered and logged;
// the loop keeps running.
type Loop struct {
	tasks  chan func()
	logger *slog.Logger

	// mu guards stopped; Dispatch holds it shared while enqueueing.
	mu      sync.RWMutex
	stopped bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool
}

// NewLoop creates a [Loop] with the given options.
//
// Defaults: [slog.Default] logger, queue size 64.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	cfg := &loopConfig{queueSize: defaultQueueSize}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loop{
		tasks:  make(chan func(), cfg.queueSize),
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Run executes dispatched tasks on the calling goroutine.
//
// Run blocks until ctx is cancelled or [Loop.Stop] is called. Tasks
// already queued at that point still run before Run returns.
//
// Returns nil on graceful stop, or an error if Run was already called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("loop already running")
	}
	defer close(l.done)

	for {
		select {
		case fn := <-l.tasks:
			l.run(fn)
		case <-l.stop:
			l.drain()
			return nil
		case <-ctx.Done():
			l.Stop()
			l.drain()
			return nil
		}
	}
}

// Dispatch queues fn to run on the loop goroutine and returns without
// waiting. It blocks while the queue is full.
//
// Dispatch may be called from inside a task, but only while the queue has
// room: with a full queue the loop would wait on itself. Size the queue
// with [WithQueueSize] accordingly.
//
// Returns [ErrLoopStopped] once the loop has been stopped.
// Nil tasks are silently ignored.
func (l *Loop) Dispatch(fn func()) error {
	if fn == nil {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.stopped {
		return ErrLoopStopped
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.stop:
		return ErrLoopStopped
	}
}

// Call dispatches fn and waits until it has run or ctx is done.
//
// Call must not be used from inside a task: the loop would wait on itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	if fn == nil {
		return nil
	}

	finished := make(chan struct{})
	if err := l.Dispatch(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop asks the loop to finish. Safe to call multiple times.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// Done returns a channel closed when [Loop.Run] has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// drain marks the loop stopped and runs whatever is still queued.
func (l *Loop) drain() {
	// waits for in-flight Dispatch calls, which return once stop is closed
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	for {
		select {
		case fn := <-l.tasks:
			l.run(fn)
		default:
			return
		}
	}
}

// run calls a task with panic recovery.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked",
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
