package cache

import "sync"

// Memo is an unbounded in-memory cache without expiry. Entries live as long
// as the Memo itself. It is safe for concurrent use; concurrent writers to
// the same key are last-writer-wins.
type Memo[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

var _ Cache[string, int] = (*Memo[string, int])(nil)

// NewMemo creates an empty Memo
func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{items: make(map[K]V)}
}

// Get retrieves a value from the cache
func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

// Set stores a value in the cache
func (m *Memo[K, V]) Set(key K, data V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
}

// Delete removes a key from the cache
func (m *Memo[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// Size returns the current number of items in the cache
func (m *Memo[K, V]) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Keys returns a snapshot of the cached keys in no particular order.
func (m *Memo[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys
}
