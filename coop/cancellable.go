package coop

import (
	"context"
	"fmt"
	"sync"
)

// CancellableWaitGroup is a WaitGroup that owns the tasks it waits for.
// Schedule adds a task and arranges for Done to be called when the task
// finishes, and CancelAll cancels every task still being tracked.
type CancellableWaitGroup struct {
	WaitGroup

	ctx   context.Context
	mu    sync.Mutex
	tasks map[*Task]struct{}
	lim   Limiter
}

// NewCancellableWaitGroup returns a group whose functions run with children
// of parent.
func NewCancellableWaitGroup(parent context.Context, optFns ...Option) *CancellableWaitGroup {
	if parent == nil {
		parent = context.Background()
	}
	g := &CancellableWaitGroup{
		WaitGroup: WaitGroup{opts: buildOptions(optFns)},
		ctx:       parent,
		tasks:     make(map[*Task]struct{}),
	}
	g.lim = newSemaphoreLimiter(g.opts.MaxConcurrency)
	return g
}

// Schedule adds work to the group and returns its Task. work is either a
// *Task that is already running, or a function to start, one of:
//
//	func(context.Context) error
//	func(context.Context)
//	func() error
//	func()
//
// Scheduling a Task the group already tracks returns a *DuplicateTaskError.
// Any other kind of value returns ErrInvalidArgument.
func (g *CancellableWaitGroup) Schedule(work any) (*Task, error) {
	var t *Task
	switch w := work.(type) {
	case *Task:
		if w == nil {
			return nil, fmt.Errorf("%w: nil task", ErrInvalidArgument)
		}
		t = w
	case func(context.Context) error:
		if w == nil {
			return nil, fmt.Errorf("%w: nil function", ErrInvalidArgument)
		}
		return g.Go(w), nil
	case func(context.Context):
		if w == nil {
			return nil, fmt.Errorf("%w: nil function", ErrInvalidArgument)
		}
		return g.Go(func(ctx context.Context) error { w(ctx); return nil }), nil
	case func() error:
		if w == nil {
			return nil, fmt.Errorf("%w: nil function", ErrInvalidArgument)
		}
		return g.Go(func(context.Context) error { return w() }), nil
	case func():
		if w == nil {
			return nil, fmt.Errorf("%w: nil function", ErrInvalidArgument)
		}
		return g.Go(func(context.Context) error { w(); return nil }), nil
	default:
		return nil, fmt.Errorf("%w: cannot schedule %T", ErrInvalidArgument, work)
	}

	if err := g.track(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Go starts fn in the group and returns its Task. When the group has a
// concurrency limit fn waits for a free slot first, and a task cancelled
// while waiting returns the context's error without running fn.
func (g *CancellableWaitGroup) Go(fn func(ctx context.Context) error) *Task {
	if g.lim != nil {
		lim := g.lim
		inner := fn
		fn = func(ctx context.Context) error {
			if err := lim.Acquire(ctx); err != nil {
				return err
			}
			defer lim.Release()
			return inner(ctx)
		}
	}
	g.mu.Lock()
	_ = g.Add(1)
	t := Start(g.ctx, fn)
	g.tasks[t] = struct{}{}
	g.mu.Unlock()

	g.watch(t)
	return t
}

// track adopts a task started elsewhere.
func (g *CancellableWaitGroup) track(t *Task) error {
	g.mu.Lock()
	if _, ok := g.tasks[t]; ok {
		g.mu.Unlock()
		return &DuplicateTaskError{Task: t}
	}
	_ = g.Add(1)
	g.tasks[t] = struct{}{}
	g.mu.Unlock()

	g.watch(t)
	return nil
}

func (g *CancellableWaitGroup) watch(t *Task) {
	g.opts.observer().TaskScheduled(t.Context(), g.opts.Name)
	t.OnDone(g.finished)
}

// finished is the completion callback registered on every tracked task.
// The task leaves the set before the counter drops so that a returning Wait
// always observes an empty set.
func (g *CancellableWaitGroup) finished(t *Task) {
	g.mu.Lock()
	delete(g.tasks, t)
	g.mu.Unlock()

	g.opts.observer().TaskFinished(t.Context(), g.opts.Name, t.Duration(), t.Err(), t.Panicked())
	_ = g.Done()
}

// CancelAll cancels every task currently tracked by the group. It does not
// wait for them; each leaves the group as it finishes. Tasks scheduled after
// CancelAll returns are not affected.
func (g *CancellableWaitGroup) CancelAll() {
	g.mu.Lock()
	tasks := make([]*Task, 0, len(g.tasks))
	for t := range g.tasks {
		tasks = append(tasks, t)
	}
	g.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	g.opts.observer().TasksCancelled(g.opts.Name, len(tasks))
}

// Len returns the number of tasks the group is tracking.
func (g *CancellableWaitGroup) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}
