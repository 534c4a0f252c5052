package attendance

import "sync"

// keyedMutex serializes operations per user without a global lock, so
// concurrent requests for different users never contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex for the given user and returns its release func.
func (k *keyedMutex) lock(userID int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*userLock)
	}
	l, ok := k.locks[userID]
	if !ok {
		l = &userLock{}
		k.locks[userID] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, userID)
		}
		k.mu.Unlock()
	}
}
