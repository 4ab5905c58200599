package coop

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState is matched by every error reporting an operation that
	// violates a primitive's state, e.g. an unmatched release.
	ErrIllegalState = errors.New("coop: illegal state")

	// ErrInvalidArgument is returned by Schedule for values that are neither a
	// Task nor schedulable work.
	ErrInvalidArgument = errors.New("coop: invalid argument")

	// ErrWriteLocked is returned by Lock while another write lock is held or pending.
	ErrWriteLocked = fmt.Errorf("%w: lock has already been write locked", ErrIllegalState)

	// ErrNoReaders is returned by RUnlock when no reader holds the lock.
	ErrNoReaders = fmt.Errorf("%w: can't read unlock a lock with zero readers", ErrIllegalState)
)

// CounterError reports a WaitGroup.Add that would drive the counter negative.
// Counter holds the rejected value.
type CounterError struct {
	Counter int
}

func (e *CounterError) Error() string {
	return fmt.Sprintf("coop: waitgroup counter can't be negative (%d)", e.Counter)
}

func (e *CounterError) Unwrap() error { return ErrIllegalState }

// DuplicateTaskError reports a Task scheduled on a group that already tracks it.
type DuplicateTaskError struct {
	Task *Task
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("coop: task %p has already been added to this waitgroup", e.Task)
}

func (e *DuplicateTaskError) Unwrap() error { return ErrIllegalState }

// PanicError is the result of a Task whose function panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }
