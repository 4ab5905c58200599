package coop

import (
	"context"
	"time"
)

// Observer receives lifecycle events from the primitives. Implementations
// must be safe for concurrent use, must not block, and must not call back
// into the primitive reporting the event.
type Observer interface {
	LockAcquired(name string, p Permission, wait time.Duration)
	LockReleased(name string, p Permission)
	CounterChanged(name string, counter int)
	GroupJoined(name string, wait time.Duration)
	TaskScheduled(ctx context.Context, name string)
	TaskFinished(ctx context.Context, name string, dur time.Duration, err error, panicked bool)
	TasksCancelled(name string, n int)
}

// Observers fans every event out to each of obs in order. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	m := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type multiObserver []Observer

func (m multiObserver) LockAcquired(name string, p Permission, wait time.Duration) {
	for _, o := range m {
		o.LockAcquired(name, p, wait)
	}
}

func (m multiObserver) LockReleased(name string, p Permission) {
	for _, o := range m {
		o.LockReleased(name, p)
	}
}

func (m multiObserver) CounterChanged(name string, counter int) {
	for _, o := range m {
		o.CounterChanged(name, counter)
	}
}

func (m multiObserver) GroupJoined(name string, wait time.Duration) {
	for _, o := range m {
		o.GroupJoined(name, wait)
	}
}

func (m multiObserver) TaskScheduled(ctx context.Context, name string) {
	for _, o := range m {
		o.TaskScheduled(ctx, name)
	}
}

func (m multiObserver) TaskFinished(ctx context.Context, name string, dur time.Duration, err error, panicked bool) {
	for _, o := range m {
		o.TaskFinished(ctx, name, dur, err, panicked)
	}
}

func (m multiObserver) TasksCancelled(name string, n int) {
	for _, o := range m {
		o.TasksCancelled(name, n)
	}
}

type nopObserver struct{}

func (nopObserver) LockAcquired(string, Permission, time.Duration)                   {}
func (nopObserver) LockReleased(string, Permission)                                  {}
func (nopObserver) CounterChanged(string, int)                                       {}
func (nopObserver) GroupJoined(string, time.Duration)                                {}
func (nopObserver) TaskScheduled(context.Context, string)                            {}
func (nopObserver) TaskFinished(context.Context, string, time.Duration, error, bool) {}
func (nopObserver) TasksCancelled(string, int)                                       {}
