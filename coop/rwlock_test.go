package coop

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestBalancedReadersThenWrite(t *testing.T) {
	t.Parallel()
	l := NewRWLock()
	l.RLock()
	l.RLock()
	if got := l.Readers(); got != 2 {
		t.Fatalf("expected 2 readers, got %d", got)
	}
	for i := 0; i < 2; i++ {
		if err := l.RUnlock(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	done := async(func() {
		if err := l.Lock(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	mustUnblock(t, done, "Lock after balanced readers")
	l.Unlock()
}

func TestRUnlockWithoutReaders(t *testing.T) {
	t.Parallel()
	var l RWLock
	err := l.RUnlock()
	if !errors.Is(err, ErrNoReaders) || !errors.Is(err, ErrIllegalState) {
		t.Fatalf("expected ErrNoReaders, got %v", err)
	}
}

func TestSecondWriterFails(t *testing.T) {
	t.Parallel()
	var l RWLock
	if err := l.Lock(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Lock(); !errors.Is(err, ErrWriteLocked) || !errors.Is(err, ErrIllegalState) {
		t.Fatalf("expected ErrWriteLocked, got %v", err)
	}
	l.Unlock()
	if l.WriteLocked() {
		t.Fatal("lock should be free after Unlock")
	}
	if err := l.Lock(); err != nil {
		t.Fatalf("Lock after Unlock: %v", err)
	}
	l.Unlock()
}

func TestPendingWriterRejectsSecondWriter(t *testing.T) {
	t.Parallel()
	var l RWLock
	l.RLock()
	writer := async(func() {
		if err := l.Lock(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	for !l.WriteLocked() {
		runtime.Gosched()
	}
	mustBlock(t, writer, "writer behind a reader")
	if err := l.Lock(); !errors.Is(err, ErrWriteLocked) {
		t.Fatalf("expected ErrWriteLocked while a writer is pending, got %v", err)
	}
	if err := l.RUnlock(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustUnblock(t, writer, "writer after last reader")
	l.Unlock()
}

func TestWriterBlocksReaders(t *testing.T) {
	t.Parallel()
	var l RWLock
	if err := l.Lock(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r1 := async(l.RLock)
	r2 := async(l.RLock)
	mustBlock(t, r1, "reader under write lock")
	mustBlock(t, r2, "reader under write lock")
	l.Unlock()
	mustUnblock(t, r1, "reader after Unlock")
	mustUnblock(t, r2, "reader after Unlock")
	if got := l.Readers(); got != 2 {
		t.Fatalf("expected 2 readers, got %d", got)
	}
	_ = l.RUnlock()
	_ = l.RUnlock()
}

func TestLateReaderQueuesBehindWriter(t *testing.T) {
	t.Parallel()
	var l RWLock
	l.RLock()
	writer := async(func() { _ = l.Lock() })
	for !l.WriteLocked() {
		runtime.Gosched()
	}
	late := async(l.RLock)
	mustBlock(t, writer, "writer behind an early reader")
	mustBlock(t, late, "reader arriving after the writer")

	// The early reader is never interrupted; releasing it admits the writer only.
	_ = l.RUnlock()
	mustUnblock(t, writer, "writer")
	mustBlock(t, late, "late reader while writer holds the lock")

	l.Unlock()
	mustUnblock(t, late, "late reader after Unlock")
	_ = l.RUnlock()
}

func TestGuardPermissions(t *testing.T) {
	t.Parallel()
	l := NewRWLock(WithName("guards"))

	err := l.Do(Read, func() error {
		if l.Readers() != 1 {
			t.Errorf("expected one reader inside read guard, got %d", l.Readers())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = l.Do(Write, func() error {
		if !l.WriteLocked() {
			t.Error("expected write lock inside write guard")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = l.Do(None, func() error {
		if l.Readers() != 0 || l.WriteLocked() {
			t.Error("none guard should not touch the lock")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if l.Readers() != 0 || l.WriteLocked() {
		t.Fatalf("lock not released: readers=%d write=%v", l.Readers(), l.WriteLocked())
	}
}

func TestGuardReleasedOnErrorAndPanic(t *testing.T) {
	t.Parallel()
	var l RWLock
	boom := errors.New("boom")
	if err := l.Do(Write, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected body error, got %v", err)
	}
	if l.WriteLocked() {
		t.Fatal("write lock leaked after failing body")
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = l.Do(Read, func() error { panic("read body") })
	}()
	if l.Readers() != 0 {
		t.Fatalf("read lock leaked after panic: %d readers", l.Readers())
	}
}

func TestGuardEnterAndRelease(t *testing.T) {
	t.Parallel()
	var l RWLock
	g := l.WriteContext()
	if g.Permission() != Write {
		t.Fatalf("expected write permission, got %s", g.Permission())
	}
	if err := g.Enter(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Enter(); !errors.Is(err, ErrIllegalState) {
		t.Fatalf("expected ErrIllegalState on re-enter, got %v", err)
	}
	if _, err := l.Acquire(Write); !errors.Is(err, ErrWriteLocked) {
		t.Fatalf("expected ErrWriteLocked, got %v", err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("second release should be a no-op, got %v", err)
	}

	r := l.ReadContext()
	if err := r.Enter(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Readers() != 0 || l.WriteLocked() {
		t.Fatal("lock should be free")
	}
}

func TestPermissionString(t *testing.T) {
	t.Parallel()
	for p, want := range map[Permission]string{None: "none", Read: "read", Write: "write", Permission(7): "Permission(7)"} {
		if got := p.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestRWLockExclusion(t *testing.T) {
	t.Parallel()
	var (
		l       RWLock
		readers atomic.Int64
		writers atomic.Int64
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = l.Do(Read, func() error {
					readers.Add(1)
					if writers.Load() != 0 {
						t.Error("reader overlapped a writer")
					}
					readers.Add(-1)
					return nil
				})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				for {
					err := l.Do(Write, func() error {
						if writers.Add(1) != 1 || readers.Load() != 0 {
							t.Error("writer is not exclusive")
						}
						writers.Add(-1)
						return nil
					})
					if errors.Is(err, ErrWriteLocked) {
						runtime.Gosched()
						continue
					}
					break
				}
			}
		}()
	}
	wg.Wait()
	if l.Readers() != 0 || l.WriteLocked() {
		t.Fatalf("lock not released: readers=%d write=%v", l.Readers(), l.WriteLocked())
	}
}
