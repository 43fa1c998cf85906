package store

import (
	"context"
	"sync"
)

// MemoryStorage keeps the collection in memory. The zero value holds nothing
// and reads return ErrNotFound until the first write.
type MemoryStorage struct {
	mu     sync.Mutex
	data   Collection
	stored bool
	writes int

	// WriteErr, when set, fails writes after the first FailAfter successful ones.
	WriteErr  error
	FailAfter int
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns a storage pre-populated with c.
func NewMemoryStorage(c Collection) *MemoryStorage {
	return &MemoryStorage{data: clone(c), stored: true}
}

func (m *MemoryStorage) Read(_ context.Context) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stored {
		return nil, ErrNotFound
	}
	return clone(m.data), nil
}

func (m *MemoryStorage) Write(_ context.Context, c Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil && m.writes >= m.FailAfter {
		return &StorageWriteError{Path: "memory", Err: m.WriteErr}
	}
	m.data = clone(c)
	m.stored = true
	m.writes++
	return nil
}

// Writes returns the number of successful writes.
func (m *MemoryStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func clone(c Collection) Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}
