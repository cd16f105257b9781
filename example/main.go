package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/recordstore"
	"github.com/jpalmerr/recordstore/binding"
)

// badge renders one person as "name - age", marked when they are a boss.
type badge struct {
	title string
	scope binding.Scope
	name  *binding.Cell[string]
	age   *binding.Cell[int]
	boss  *binding.Cell[*bool]
}

func mountBadge(title string, store *PersonStore) (*badge, error) {
	b := &badge{title: title}
	render := func() { fmt.Println(b.Render()) }

	var err error
	if b.name, err = binding.UseField(&b.scope, store, PersonName, render); err != nil {
		return nil, err
	}
	if b.age, err = binding.UseField(&b.scope, store, PersonAge, render); err != nil {
		_ = b.scope.Dispose()
		return nil, err
	}
	if b.boss, err = binding.UseField(&b.scope, store, PersonBoss, render); err != nil {
		_ = b.scope.Dispose()
		return nil, err
	}
	return b, nil
}

func (b *badge) Render() string {
	s := fmt.Sprintf("[%s] %s - %d", b.title, b.name.Value(), b.age.Value())
	if boss := b.boss.Value(); boss != nil && *boss {
		s += " (boss)"
	}
	return s
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := NewPersonStore(Person{Name: "John", Age: 23}, recordstore.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create store", "error", err)
		os.Exit(1)
	}

	loop, err := recordstore.NewLoop(recordstore.WithLoopLogger(logger))
	if err != nil {
		logger.Error("failed to create loop", "error", err)
		os.Exit(1)
	}

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := loop.Run(ctx); err != nil {
			logger.Error("loop error", "error", err)
		}
	}()

	// mount two views on the loop goroutine
	var header, sidebar *badge
	var mountErr error
	err = loop.Call(ctx, func() {
		if header, mountErr = mountBadge("header", store); mountErr != nil {
			return
		}
		sidebar, mountErr = mountBadge("sidebar", store)
	})
	if err == nil {
		err = mountErr
	}
	if err != nil {
		logger.Error("failed to mount views", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  recordstore demo: two views share one Person record.")
	fmt.Println("  A birthday arrives every second; the sidebar unmounts after 5s.")
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()
	fmt.Println(header.Render())
	fmt.Println(sidebar.Render())

	go StartBirthdays(ctx, loop, store, time.Second, logger)

	// rename from outside the loop, then retire the sidebar
	time.AfterFunc(2500*time.Millisecond, func() {
		_ = loop.Dispatch(func() {
			_ = store.SetName("Joe")
		})
	})
	time.AfterFunc(5*time.Second, func() {
		_ = loop.Dispatch(func() {
			if err := sidebar.scope.Dispose(); err != nil {
				logger.Error("failed to unmount sidebar", "error", err)
			}
			logger.Info("sidebar unmounted", "age_listeners", store.ListenerCount("age"))
		})
	})

	<-loop.Done()
	logger.Info("demo stopped")
}
