package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store implementation for testing.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Put writes a blob, replacing any previous value.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[name] = copied
	return nil
}

// Get reads a whole blob.
func (m *MemoryStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blob names matching the prefix, sorted.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}
