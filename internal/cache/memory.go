package cache

import (
	"fmt"
	"sync"

	"si-go/internal/si"
)

// MemoryStore is an in-memory implementation of the CacheStore interface.
// It keeps the encoded document, so callers never share state with it and a
// corrupt document can be simulated with SetRaw. State lives only as long as
// the process. This implementation is safe for concurrent use.
type MemoryStore struct {
	data []byte
	mu   sync.RWMutex
}

// NewMemoryStore creates a new, uninitialized in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// IsInitialized reports whether a document has been saved.
func (m *MemoryStore) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data) > 0
}

// Load decodes the stored document.
func (m *MemoryStore) Load() (*si.CacheDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.data) == 0 {
		return nil, fmt.Errorf("%w: memory store is empty", si.ErrCacheNotFound)
	}
	return si.DecodeDocument(m.data)
}

// Save encodes and stores doc.
func (m *MemoryStore) Save(doc *si.CacheDocument) error {
	data, err := si.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", si.ErrCacheWrite, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

// Raw returns a copy of the stored bytes.
func (m *MemoryStore) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}

// SetRaw replaces the stored bytes without validation.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}

// Compile-time check that MemoryStore implements si.CacheStore interface
var _ si.CacheStore = (*MemoryStore)(nil)
