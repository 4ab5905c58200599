package coop

import (
	"fmt"
	"sync"
)

// Permission selects how a Guard acquires an RWLock.
type Permission int

const (
	// None guards nothing: entering and releasing are no-ops.
	None Permission = iota
	Read
	Write
)

func (p Permission) String() string {
	switch p {
	case None:
		return "none"
	case Read:
		return "read"
	case Write:
		return "write"
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

// Guard is a scoped acquisition of an RWLock with a fixed Permission.
// Permissions other than Read and Write behave like None.
type Guard struct {
	l *RWLock
	p Permission

	mu   sync.Mutex
	held bool
}

// Context returns an unentered guard for p.
func (l *RWLock) Context(p Permission) *Guard { return &Guard{l: l, p: p} }

func (l *RWLock) ReadContext() *Guard { return l.Context(Read) }

func (l *RWLock) WriteContext() *Guard { return l.Context(Write) }

// Acquire enters a new guard for p. The caller must Release it.
//
//	g, err := l.Acquire(coop.Write)
//	if err != nil {
//		return err
//	}
//	defer g.Release()
func (l *RWLock) Acquire(p Permission) (*Guard, error) {
	g := l.Context(p)
	if err := g.Enter(); err != nil {
		return nil, err
	}
	return g, nil
}

// Do runs fn while holding l with permission p. The lock is released on
// every exit path, including a panic in fn.
func (l *RWLock) Do(p Permission, fn func() error) (err error) {
	g, err := l.Acquire(p)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := g.Release(); err == nil {
			err = rerr
		}
	}()
	return fn()
}

// Permission returns the guard's permission.
func (g *Guard) Permission() Permission { return g.p }

// Enter acquires the lock. Entering a guard that is already held fails with
// ErrIllegalState.
func (g *Guard) Enter() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return fmt.Errorf("%w: %s guard already entered", ErrIllegalState, g.p)
	}
	switch g.p {
	case Read:
		g.l.RLock()
	case Write:
		if err := g.l.Lock(); err != nil {
			return err
		}
	}
	g.held = true
	return nil
}

// Release gives the lock back. Releasing a guard that is not held is a no-op,
// so Release may be deferred right after a successful Enter.
func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.held {
		return nil
	}
	g.held = false
	switch g.p {
	case Read:
		return g.l.RUnlock()
	case Write:
		g.l.Unlock()
	}
	return nil
}
