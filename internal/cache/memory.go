package cache

import (
	"context"
	"sync"
)

// memory keeps the encoded set in process memory.
type memory struct {
	mu   sync.RWMutex
	blob []byte
}

// NewMemory returns an in-memory Cache.
func NewMemory() Cache { return &memory{} }

func (m *memory) Load(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decodeSet(m.blob)
}

func (m *memory) Save(ctx context.Context, words []string) error {
	b, err := encodeSet(words)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = b
	return nil
}

func (m *memory) Close() error { return nil }
