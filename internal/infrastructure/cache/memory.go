package cache

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory key-value store with per-entry expiration.
// It backs read-mostly lookups against external services, like tracker
// board metadata, so repeated requests do not hammer the remote API.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]*memoryItem
	stopCh chan struct{}
	once   sync.Once
}

type memoryItem struct {
	value      interface{}
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store and starts its janitor
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items:  make(map[string]*memoryItem),
		stopCh: make(chan struct{}),
	}

	go store.cleanupExpired()

	return store
}

// Set stores a value with an expiration window
func (ms *MemoryStore) Set(key string, value interface{}, expiration time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = &memoryItem{
		value:      value,
		expireTime: time.Now().Add(expiration),
	}
}

// Get retrieves a value by key; the second return is false when the key is
// absent or expired
func (ms *MemoryStore) Get(key string) (interface{}, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(item.expireTime) {
		return nil, false
	}

	return item.value, true
}

// Delete removes a key
func (ms *MemoryStore) Delete(key string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (ms *MemoryStore) Stop() {
	ms.once.Do(func() {
		close(ms.stopCh)
	})
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stopCh:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := time.Now()
			for key, item := range ms.items {
				if now.After(item.expireTime) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}
