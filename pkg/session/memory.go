package session

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps dialogues in process memory. Stored values are copied
// on the way in and out.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.items[id]
	if !ok {
		return nil, notFound(id)
	}
	return decode(data)
}

func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	if err := touch(s); err != nil {
		return err
	}
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = data
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.items))
	for _, data := range m.items {
		s, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, s.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return notFound(id)
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

// sortSummaries orders by UpdatedAt descending, then ID.
func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
