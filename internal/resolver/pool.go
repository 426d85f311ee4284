package resolver

import (
	"context"
	"sync"

	"media-browser/internal/metrics"

	"golang.org/x/sync/semaphore"
)

// Pool runs background tasks on their own goroutines. With a positive limit
// at most limit tasks run at once and the rest wait their turn; Go itself
// never blocks.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool creates a pool. limit <= 0 means unbounded.
func NewPool(limit int) *Pool {
	p := &Pool{}
	if limit > 0 {
		p.sem = semaphore.NewWeighted(int64(limit))
	}
	return p
}

// Go runs task in the background.
func (p *Pool) Go(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			// Background context: Acquire cannot fail
			_ = p.sem.Acquire(context.Background(), 1)
			defer p.sem.Release(1)
		}

		metrics.BackgroundTasksInFlight.Inc()
		defer metrics.BackgroundTasksInFlight.Dec()

		task()
	}()
}

// Wait blocks until every task started so far has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
