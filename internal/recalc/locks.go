package recalc

import (
	"sync"

	"github.com/google/uuid"
)

// UserLock serializes chain recomputation per user. Entries are reference
// counted and dropped once no goroutine holds or waits for them.
type UserLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*userLockEntry
}

type userLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewUserLock() *UserLock {
	return &UserLock{locks: make(map[uuid.UUID]*userLockEntry)}
}

// Lock blocks until the caller owns userID's chain and returns the release func.
func (l *UserLock) Lock(userID uuid.UUID) func() {
	l.mu.Lock()
	e, ok := l.locks[userID]
	if !ok {
		e = &userLockEntry{}
		l.locks[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

// held returns how many users currently have an entry, for tests.
func (l *UserLock) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
