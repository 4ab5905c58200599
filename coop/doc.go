// Package coop provides cooperative synchronization primitives for Go.
//
// RWLock admits many concurrent readers but serializes a single writer
// against readers and against other writers. A second writer is never
// queued: Lock reports ErrWriteLocked while a write lock is held or pending.
//
// WaitGroup blocks a coordinator until a dynamic set of tasks is done, and
// CancellableWaitGroup additionally owns the Task handles it tracks so that
// they can be cancelled in bulk.
//
// Both are built from the same primitive, a broadcast gate: waiters block
// while it is closed and are all released together when it opens.
package coop
