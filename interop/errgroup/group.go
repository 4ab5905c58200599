// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics on top of coop.CancellableWaitGroup. It enables incremental
// migration while keeping the group's tasks observable and cancellable.
package errgroup

import (
	"context"
	"sync"

	"github.com/NetPo4ki/go-coop/coop"
)

// Group is an errgroup-like wrapper over coop.CancellableWaitGroup. The first
// function to fail cancels the group's context and every tracked task.
type Group struct {
	wg     *coop.CancellableWaitGroup
	cancel context.CancelCauseFunc

	once sync.Once
	err  error
}

// WithContext creates a Group bound to ctx. Returned context is canceled when
// any function passed to Go returns a non-nil error or when Wait returns.
// opts configure the underlying group, e.g. coop.WithMaxConcurrency.
func WithContext(ctx context.Context, opts ...coop.Option) (*Group, context.Context) {
	ctx, cancel := context.WithCancelCause(ctx)
	g := &Group{wg: coop.NewCancellableWaitGroup(ctx, opts...), cancel: cancel}
	return g, ctx
}

// Go starts a function. It should return a non-nil error to signal failure.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	g.wg.Go(func(context.Context) error {
		err := f()
		if err != nil {
			g.fail(err)
		}
		return err
	})
}

func (g *Group) fail(err error) {
	g.once.Do(func() {
		g.err = err
		g.cancel(err)
		g.wg.CancelAll()
	})
}

// Wait blocks until all functions have returned. It returns the first non-nil
// error or nil on success.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.cancel(g.err)
	return g.err
}
