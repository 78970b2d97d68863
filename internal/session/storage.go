package session

import (
	"sync"
	"time"
)

// Storage is the durable per-browser key/value backend.
// Get returns nil, nil for a missing key. The method set matches fiber.Storage.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// Batch is implemented by backends that can write several keys atomically
type Batch interface {
	SetMany(values map[string][]byte, exp time.Duration) error
	DeleteMany(keys ...string) error
}

// MemoryStorage keeps values in process memory. It survives nothing but
// the process and is meant for development and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	val       []byte
	expiresAt time.Time
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get returns the value for key
func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !item.expiresAt.IsZero() && m.now().After(item.expiresAt) {
		return nil, nil
	}
	out := make([]byte, len(item.val))
	copy(out, item.val)
	return out, nil
}

// Set stores a value; exp of zero means no expiry
func (m *MemoryStorage) Set(key string, val []byte, exp time.Duration) error {
	m.mu.Lock()
	m.items[key] = m.item(val, exp)
	m.mu.Unlock()
	return nil
}

// Delete removes a key
func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// SetMany stores all values under one lock
func (m *MemoryStorage) SetMany(values map[string][]byte, exp time.Duration) error {
	m.mu.Lock()
	for key, val := range values {
		m.items[key] = m.item(val, exp)
	}
	m.mu.Unlock()
	return nil
}

// DeleteMany removes all keys under one lock
func (m *MemoryStorage) DeleteMany(keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.items, key)
	}
	m.mu.Unlock()
	return nil
}

// Reset removes everything
func (m *MemoryStorage) Reset() error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

// Close is a no-op
func (m *MemoryStorage) Close() error {
	return nil
}

// Len returns the number of stored keys, expired ones included
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryStorage) item(val []byte, exp time.Duration) memoryItem {
	stored := make([]byte, len(val))
	copy(stored, val)
	item := memoryItem{val: stored}
	if exp > 0 {
		item.expiresAt = m.now().Add(exp)
	}
	return item
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Batch   = (*MemoryStorage)(nil)
)
