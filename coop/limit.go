package coop

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds concurrently running tasks within a group.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

type semLimiter struct {
	sem *semaphore.Weighted
}

func newSemaphoreLimiter(n int) Limiter {
	if n <= 0 {
		return nil
	}
	return &semLimiter{sem: semaphore.NewWeighted(int64(n))}
}

func (l *semLimiter) Acquire(ctx context.Context) error { return l.sem.Acquire(ctx, 1) }

func (l *semLimiter) Release() { l.sem.Release(1) }
