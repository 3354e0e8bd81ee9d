// Package lock serialises work on a shared key, such as regenerating one
// cohort table, across requests and (with Redis) across processes.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("resource is locked by another operation")

// Locker acquires exclusive, non-blocking locks.
type Locker interface {
	// TryLock acquires key for at most ttl.
	// POST: returns an unlock func on success, ErrLocked if already held
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// MemoryLocker holds locks in process memory.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewMemoryLocker creates an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), clock: time.Now}
}

// TryLock acquires key unless a live holder exists. Expired holders are evicted.
func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, ErrLocked
	}
	until := now.Add(ttl)
	l.held[key] = until

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[key].Equal(until) {
				delete(l.held, key)
			}
		})
	}, nil
}
