// Package lock provides in-process keyed locks used to serialize work on
// the same session or user within one bot process.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// entry is a one-slot semaphore shared by holders and waiters of a key.
type entry struct {
	sem  chan struct{}
	refs int
}

// KeyLock provides per-key mutual exclusion. Entries are dropped once no
// goroutine holds or waits on the key.
type KeyLock[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// New creates an empty KeyLock.
func New[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{entries: make(map[K]*entry)}
}

func (l *KeyLock[K]) ref(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyLock[K]) unref(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Lock blocks until key is acquired.
func (l *KeyLock[K]) Lock(key K) {
	e := l.ref(key)
	e.sem <- struct{}{}
}

// Unlock releases key. Unlocking a key that is not held is a no-op.
func (l *KeyLock[K]) Unlock(key K) {
	l.mu.Lock()
	e, ok := l.entries[key]
	l.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-e.sem:
		l.unref(key, e)
	default:
	}
}

// TryLock acquires key without blocking and reports success.
func (l *KeyLock[K]) TryLock(key K) bool {
	e := l.ref(key)
	select {
	case e.sem <- struct{}{}:
		return true
	default:
		l.unref(key, e)
		return false
	}
}

// LockContext waits up to timeout for key. It returns ErrLockTimeout when the
// timeout elapses and ctx.Err() when ctx ends first.
func (l *KeyLock[K]) LockContext(ctx context.Context, key K, timeout time.Duration) error {
	e := l.ref(key)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		l.unref(key, e)
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
}

// WithLock runs fn while holding key.
func (l *KeyLock[K]) WithLock(key K, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}

// WithLockContext runs fn while holding key, waiting at most timeout for it.
func (l *KeyLock[K]) WithLockContext(ctx context.Context, key K, timeout time.Duration, fn func() error) error {
	if err := l.LockContext(ctx, key, timeout); err != nil {
		return err
	}
	defer l.Unlock(key)
	return fn()
}

// IsLocked is a point-in-time check and may change immediately after.
func (l *KeyLock[K]) IsLocked(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	return ok && len(e.sem) == 1
}

// Len returns the number of keys currently held or waited on.
func (l *KeyLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// IsTimeout reports whether err came from a lock wait timing out.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
