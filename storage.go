package datatables

import (
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Storage is the key-value store behind PersistentStore. Values are the JSON
// encoding of a single state axis.
//
// GetItem reports ok=false, with a nil error, when the key does not exist.
type Storage interface {
	GetItem(key string) (value []byte, ok bool, err error)
	SetItem(key string, value []byte) error
}

// MemoryStorage is a process-local Storage bounded by an LRU policy. It is
// handy for tests and for hosts that only want persistence across table
// instances, not across restarts.
type MemoryStorage struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStorage returns a MemoryStorage holding at most capacity keys.
// A capacity <= 0 selects the default capacity.
func NewMemoryStorage(capacity int) (*MemoryStorage, error) {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	cache, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory storage: %w", err)
	}
	return &MemoryStorage{cache: cache}, nil
}

func (m *MemoryStorage) GetItem(key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (m *MemoryStorage) SetItem(key string, value []byte) error {
	m.cache.Add(key, slices.Clone(value))
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	return m.cache.Len()
}
