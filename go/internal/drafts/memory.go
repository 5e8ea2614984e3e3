package drafts

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend keeps drafts in process memory. It is used in tests and when
// no durable storage is configured.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

func (m *MemoryBackend) Load(ctx context.Context, key string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return Record{}, false, nil
	}
	return rec.clone(), true, nil
}

func (m *MemoryBackend) Update(ctx context.Context, key string, fn UpdateFunc) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.records[key]
	if exists {
		current = current.clone()
	}
	next, err := fn(current, exists)
	if err != nil {
		return Record{}, err
	}
	next.Key = key
	m.records[key] = next.clone()
	return next, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *MemoryBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.records {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) Close() error { return nil }
