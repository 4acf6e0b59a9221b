package services

import (
	"path/filepath"
	"sync"
)

type rootLock struct {
	sync.Mutex
	refs int
}

// rootLocks serialises installs per target root. Entries are dropped once nobody holds them.
type rootLocks struct {
	mu    sync.Mutex
	locks map[string]*rootLock
}

func newRootLocks() *rootLocks {
	return &rootLocks{locks: make(map[string]*rootLock)}
}

// lock blocks until root is free and returns the matching unlock.
func (r *rootLocks) lock(root string) func() {
	key := filepath.Clean(root)

	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &rootLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
