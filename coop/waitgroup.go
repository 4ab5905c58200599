package coop

import (
	"sync"
	"time"
)

// WaitGroup waits for a collection of tasks to finish. The coordinator calls
// Add to set the number of tasks to wait for, each task calls Done when
// finished, and Wait blocks until all of them have.
//
// Unlike sync.WaitGroup, misuse is reported as an error rather than a panic.
//
// The zero value is a WaitGroup with a zero counter. A WaitGroup must not be
// copied after first use.
type WaitGroup struct {
	mu      sync.Mutex
	counter int
	idle    gate // open exactly when counter == 0

	opts Options
}

func NewWaitGroup(optFns ...Option) *WaitGroup {
	return &WaitGroup{opts: buildOptions(optFns)}
}

// Add adds delta, which may be negative, to the counter. When the counter
// becomes zero every goroutine blocked in Wait is released. If the counter
// would go negative Add leaves it unchanged and returns a *CounterError.
//
// Calls with a positive delta that start while the counter is zero must
// happen before Wait; typically Add is called before starting the task
// being waited for.
func (wg *WaitGroup) Add(delta int) error {
	wg.mu.Lock()
	next := wg.counter + delta
	if next < 0 {
		wg.mu.Unlock()
		return &CounterError{Counter: next}
	}
	wg.counter = next
	if next == 0 {
		wg.idle.Open()
	} else {
		wg.idle.Close()
	}
	// Reported under the lock so observers see counter values in order.
	wg.opts.observer().CounterChanged(wg.opts.Name, next)
	wg.mu.Unlock()
	return nil
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() error { return wg.Add(-1) }

// Wait blocks until the counter is zero.
func (wg *WaitGroup) Wait() {
	start := time.Now()
	wg.idle.Wait()
	wg.opts.observer().GroupJoined(wg.opts.Name, time.Since(start))
}

// Count returns the current counter value.
func (wg *WaitGroup) Count() int {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	return wg.counter
}

// Hold adds one to the counter and returns the matching release, which is
// safe to call more than once:
//
//	defer wg.Hold()()
func (wg *WaitGroup) Hold() (release func()) {
	_ = wg.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { _ = wg.Done() })
	}
}

// Do runs fn while holding one count on wg. The count is released on every
// exit path, including a panic in fn.
func (wg *WaitGroup) Do(fn func() error) error {
	defer wg.Hold()()
	return fn()
}
