package coop

import (
	"sync"
	"time"
)

// RWLock is a multiple-reader, single-writer lock built from two gates.
//
// Readers pass through the writer gate, so once a writer has requested the
// lock no new reader can start, while readers that already hold it are left
// to finish. The writer then waits on the readers-idle gate.
//
// Only one writer may be acquiring or holding the lock at a time. A
// concurrent Lock fails with ErrWriteLocked instead of queueing.
//
// The zero value is an unlocked RWLock. An RWLock must not be copied after
// first use.
type RWLock struct {
	mu          sync.Mutex
	writer      gate // closed while a writer holds or waits for the lock
	readersIdle gate // open exactly when readers == 0
	readers     int

	opts Options
}

func NewRWLock(optFns ...Option) *RWLock {
	return &RWLock{opts: buildOptions(optFns)}
}

// RLock locks l for reading. It blocks while a writer holds or waits for the lock.
func (l *RWLock) RLock() {
	start := time.Now()
	for {
		l.mu.Lock()
		if l.writer.IsOpen() {
			l.readers++
			if l.readers == 1 {
				l.readersIdle.Close()
			}
			l.mu.Unlock()
			l.opts.observer().LockAcquired(l.opts.Name, Read, time.Since(start))
			return
		}
		c := l.writer.C()
		l.mu.Unlock()
		<-c
	}
}

// RUnlock undoes a single RLock call. It returns ErrNoReaders when no reader
// holds the lock.
func (l *RWLock) RUnlock() error {
	l.mu.Lock()
	if l.readers == 0 {
		l.mu.Unlock()
		return ErrNoReaders
	}
	l.readers--
	if l.readers == 0 {
		l.readersIdle.Open()
	}
	l.mu.Unlock()
	l.opts.observer().LockReleased(l.opts.Name, Read)
	return nil
}

// Lock locks l for writing. New readers are excluded immediately; Lock then
// blocks until the current readers have released. It returns ErrWriteLocked,
// without blocking, if a write lock is already held or pending.
func (l *RWLock) Lock() error {
	start := time.Now()
	l.mu.Lock()
	if !l.writer.IsOpen() {
		l.mu.Unlock()
		return ErrWriteLocked
	}
	l.writer.Close()
	idle := l.readersIdle.C()
	l.mu.Unlock()

	<-idle
	l.opts.observer().LockAcquired(l.opts.Name, Write, time.Since(start))
	return nil
}

// Unlock releases the write lock and wakes every blocked reader. Calling
// Unlock without a successful Lock breaks the lock's invariants.
func (l *RWLock) Unlock() {
	l.mu.Lock()
	wasLocked := !l.writer.IsOpen()
	l.writer.Open()
	l.mu.Unlock()
	if wasLocked {
		l.opts.observer().LockReleased(l.opts.Name, Write)
	}
}

// Readers returns the number of readers currently holding the lock.
func (l *RWLock) Readers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readers
}

// WriteLocked reports whether a writer holds or waits for the lock.
func (l *RWLock) WriteLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.writer.IsOpen()
}
