package autotrade

import "sync"

// userLocks serializes executions per user. The daily-quota read and the
// audit write are two separate database operations, so two concurrent
// signals for the same user could both see a count below the limit; holding
// the user's lock from the quota read through the audit write makes the
// quota check atomic. Different users never contend.
//
// Serialization is process-local. Every component that places orders (the
// execute API route and the dispatcher) must run in one process; a second
// order-placing process would reopen the quota race.
type userLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uint]*sync.Mutex)}
}

// lock acquires the mutex for userID and returns its release func.
func (l *userLocks) lock(userID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
