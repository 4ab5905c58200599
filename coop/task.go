package coop

import (
	"context"
	"sync"
	"time"
)

// Task is a handle to a function running in its own goroutine. It can be
// cancelled, waited on, and notifies registered callbacks exactly once when
// the function returns for any reason.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	start     time.Time
	end       time.Time
	err       error
	panicked  bool
	cancelled bool
	callbacks []func(*Task)
}

// Start runs fn in a new goroutine with a child of ctx that is cancelled by
// Task.Cancel. A panic in fn is recovered and reported as a *PanicError.
func Start(ctx context.Context, fn func(ctx context.Context) error) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	tctx, cancel := context.WithCancel(ctx)
	t := &Task{ctx: tctx, cancel: cancel, done: make(chan struct{}), start: time.Now()}
	go t.run(fn)
	return t
}

func (t *Task) run(fn func(ctx context.Context) error) {
	var (
		err      error
		panicked bool
	)
	defer func() {
		t.finish(err, panicked)
	}()
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
			panicked = true
		}
	}()
	err = fn(t.ctx)
}

func (t *Task) finish(err error, panicked bool) {
	t.mu.Lock()
	t.end = time.Now()
	t.err = err
	t.panicked = panicked
	cbs := t.callbacks
	t.callbacks = nil
	close(t.done)
	t.mu.Unlock()

	t.cancel()
	for _, cb := range cbs {
		cb(t)
	}
}

// OnDone registers cb to run once t has finished. If t has already finished,
// cb runs immediately on the calling goroutine.
func (t *Task) OnDone(cb func(*Task)) {
	t.mu.Lock()
	select {
	case <-t.done:
		t.mu.Unlock()
		cb(t)
		return
	default:
	}
	t.callbacks = append(t.callbacks, cb)
	t.mu.Unlock()
}

// Cancel signals the task's context. It does not wait for the task to return.
func (t *Task) Cancel() {
	t.mu.Lock()
	select {
	case <-t.done:
	default:
		t.cancelled = true
	}
	t.mu.Unlock()
	t.cancel()
}

// Context returns the context passed to the task's function.
func (t *Task) Context() context.Context { return t.ctx }

// Done returns a channel that is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task has finished and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.Err()
}

// Err returns the task's error, or nil while it is still running.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) Panicked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.panicked
}

// Cancelled reports whether Cancel was called before the task finished.
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Duration returns how long the task ran, or has been running so far.
func (t *Task) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.end.IsZero() {
		return time.Since(t.start)
	}
	return t.end.Sub(t.start)
}
