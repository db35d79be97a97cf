package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryDraftCache keeps wizard state in process memory. Entries are lost on restart.
type MemoryDraftCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryDraftCache(ttl time.Duration) *MemoryDraftCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryDraftCache{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (cache *MemoryDraftCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	entry, ok := cache.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !cache.now().Before(entry.expiresAt) {
		delete(cache.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (cache *MemoryDraftCache) Set(_ context.Context, key string, payload []byte) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries[key] = memoryEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: cache.now().Add(cache.ttl),
	}
	return nil
}

func (cache *MemoryDraftCache) Delete(_ context.Context, key string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.entries, key)
	return nil
}
