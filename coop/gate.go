package coop

import "sync"

// openCh is returned to waiters of an open gate.
var openCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// gate is a binary broadcast signal. The zero value is open.
type gate struct {
	mu     sync.Mutex
	closed bool
	ch     chan struct{} // closed when the gate next opens
}

// C returns a channel that is closed once the gate is open.
func (g *gate) C() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		return openCh
	}
	return g.ch
}

// Wait blocks until the gate is open.
func (g *gate) Wait() { <-g.C() }

func (g *gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed
}

// Open releases every current waiter. Opening an open gate is a no-op.
func (g *gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		return
	}
	g.closed = false
	close(g.ch)
	g.ch = nil
}

func (g *gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.ch = make(chan struct{})
}
