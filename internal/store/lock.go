package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"memoriesbot/internal/models"
)

// writerLock admits one mutation at a time. Waiting longer than timeout
// reports ErrWriteConflict instead of queueing forever.
type writerLock struct {
	name    string
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newWriterLock(name string, timeout time.Duration) *writerLock {
	return &writerLock{
		name:    name,
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// acquire returns the release func. Cancellation of ctx is returned as is,
// only the lock's own deadline turns into ErrWriteConflict.
func (l *writerLock) acquire(ctx context.Context) (func(), error) {
	release := func() { l.sem.Release(1) }

	if l.sem.TryAcquire(1) {
		return release, nil
	}
	if l.timeout <= 0 {
		return nil, fmt.Errorf("%s store: %w", l.name, models.ErrWriteConflict)
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s store: writer busy for %s: %w", l.name, l.timeout, models.ErrWriteConflict)
	}
	return release, nil
}
