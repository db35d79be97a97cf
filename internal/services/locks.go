package services

import "sync"

// userLocks serializes wizard work per user. Each key gets its own mutex so
// one user's slow backend call never holds up another user; entries are
// dropped once nobody holds or waits for them. The zero value is ready to use.
type userLocks struct {
	mu      sync.Mutex
	entries map[string]*userLock
}

type userLock struct {
	mu      sync.Mutex
	holders int
}

func (locks *userLocks) lock(key string) func() {
	locks.mu.Lock()
	if locks.entries == nil {
		locks.entries = make(map[string]*userLock)
	}
	entry, ok := locks.entries[key]
	if !ok {
		entry = &userLock{}
		locks.entries[key] = entry
	}
	entry.holders++
	locks.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		locks.mu.Lock()
		entry.holders--
		if entry.holders == 0 {
			delete(locks.entries, key)
		}
		locks.mu.Unlock()
	}
}

func (locks *userLocks) size() int {
	locks.mu.Lock()
	defer locks.mu.Unlock()
	return len(locks.entries)
}
