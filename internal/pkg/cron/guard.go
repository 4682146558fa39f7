package cron

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Guard lets at most one attendance mutation run execute at a time. A run
// that finds the guard held is skipped, not queued.
type Guard struct {
	sem *semaphore.Weighted
}

func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// Do runs fn if no other guarded run is in flight and reports whether it ran.
func (g *Guard) Do(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error) {
	if !g.sem.TryAcquire(1) {
		slog.Warn("Cron: skipped, another attendance run is in progress", "job", name)
		return false, nil
	}
	defer g.sem.Release(1)
	return true, fn(ctx)
}
