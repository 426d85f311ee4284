package resolver

import (
	"sync"

	"media-browser/internal/logging"
)

// Dispatcher runs completion callbacks on the context that owns presentation
// state.
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs callbacks on the calling goroutine. It suits callers that have
// no UI context of their own, such as the CLI and tests.
type Inline struct{}

// Dispatch implements Dispatcher.
func (Inline) Dispatch(fn func()) { fn() }

// Loop is a single goroutine draining a FIFO of callbacks. Callbacks never
// run concurrently with each other and run in the order they were
// dispatched. Dispatch never blocks.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewLoop starts a loop.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Dispatch queues fn. Callbacks dispatched after Close are dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		logging.Warn("Completion loop closed, dropping callback")
		return
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
}

// Close stops accepting callbacks, runs those already queued and waits for
// the loop goroutine to exit.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.cond.Signal()
	}
	l.mu.Unlock()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.call(fn)
		}
	}
}

// call runs one callback; a panicking callback must not kill the loop.
func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Completion callback panicked: %v", r)
		}
	}()
	fn()
}
