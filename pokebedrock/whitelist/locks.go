package whitelist

import "sync"

// keyedMutex serializes work per identity while letting different identities
// proceed in parallel. Unused locks are released so the map does not grow.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[Identity]*refLock
}

// refLock ...
type refLock struct {
	sync.Mutex
	refs int
}

// lock acquires the lock for id and returns the function that releases it.
func (k *keyedMutex) lock(id Identity) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[Identity]*refLock)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &refLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
