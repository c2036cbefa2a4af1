// Package concurrency serializes same-user writes inside one process before
// they reach the database row locks.
package concurrency

import (
	"sync"
)

type refLock struct {
	mu   sync.Mutex
	refs int
}

// LockManager hands out per-key mutexes. Entries are dropped once no caller
// holds or waits on them, so the map stays bounded by concurrent users.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*refLock)}
}

// Lock blocks until the key is free and returns its unlock function
func (lm *LockManager) Lock(key string) (unlock func()) {
	lm.mu.Lock()
	l, ok := lm.locks[key]
	if !ok {
		l = &refLock{}
		lm.locks[key] = l
	}
	l.refs++
	lm.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			lm.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(lm.locks, key)
			}
			lm.mu.Unlock()
		})
	}
}

// Len reports how many keys are currently held or awaited
func (lm *LockManager) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}
