package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jpalmerr/recordstore"
)

// StartBirthdays simulates an outside source of updates: every interval
// the person ages by a year, and now and then gets promoted.
//
// Updates are produced on their own goroutine and handed to loop, so the
// store is only ever touched from the loop goroutine. Returns when ctx is
// done or the loop stops.
func StartBirthdays(ctx context.Context, loop *recordstore.Loop, store *PersonStore, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// roughly one birthday in three comes with a promotion
		promoted := rand.Intn(3) == 0

		err := loop.Dispatch(func() {
			if err := store.SetAge(store.Age() + 1); err != nil {
				logger.Error("failed to set age", "error", err)
				return
			}
			if promoted {
				boss := true
				if err := store.SetBoss(&boss); err != nil {
					logger.Error("failed to set boss", "error", err)
				}
			}
		})
		if err != nil {
			// loop stopped
			return
		}
	}
}
