package workflow

import "sync"

// lockRegistry hands out one mutex per pitch id. Entries are never removed;
// the set of active pitches is small relative to the cost of refcounting.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for id and returns the unlock function.
func (r *lockRegistry) acquire(id string) func() {
	r.mu.Lock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
