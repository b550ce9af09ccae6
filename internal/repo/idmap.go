package repo

import "sync"

// IDMap caches the id → native key table of a store whose native keys are
// strings. The store allocates ids from a persisted counter and never reuses
// them, so an entry can go stale only by pointing at a deleted record.
type IDMap struct {
	mu    sync.RWMutex
	byID  map[int64]string
	byKey map[string]int64
}

func NewIDMap() *IDMap {
	return &IDMap{
		byID:  make(map[int64]string),
		byKey: make(map[string]int64),
	}
}

// Resolve returns the native key for id.
func (m *IDMap) Resolve(id int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.byID[id]
	return key, ok
}

// Lookup returns the id recorded for key.
func (m *IDMap) Lookup(key string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byKey[key]
	return id, ok
}

// Put records id ↔ key, replacing any entry either side already had.
func (m *IDMap) Put(id int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(id, key)
}

// Remove drops the entry for id. Removing an unknown id is a no-op.
func (m *IDMap) Remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key, ok := m.byID[id]; ok {
		delete(m.byID, id)
		delete(m.byKey, key)
	}
}

// Replace swaps the whole cache for entries, as read from a full scan.
func (m *IDMap) Replace(entries map[int64]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = make(map[int64]string, len(entries))
	m.byKey = make(map[string]int64, len(entries))
	for id, key := range entries {
		m.putLocked(id, key)
	}
}

// Len reports the number of cached entries.
func (m *IDMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *IDMap) putLocked(id int64, key string) {
	if old, ok := m.byID[id]; ok {
		delete(m.byKey, old)
	}
	if old, ok := m.byKey[key]; ok {
		delete(m.byID, old)
	}
	m.byID[id] = key
	m.byKey[key] = id
}
