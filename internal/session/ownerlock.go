package session

import "sync"

// ownerLocks serializes admission checks per owner. The count-then-insert in
// Open is not atomic against concurrent opens by the same owner; holding the
// owner's lock across it keeps the cap exact under race.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the owner's mutex and returns the release function.
func (l *ownerLocks) acquire(ownerID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[ownerID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
