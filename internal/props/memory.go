package props

import "context"

// MemoryStore is an in-memory Store with the same quota semantics as the
// SQLite adapter. Used in tests and one-off dry runs.
type MemoryStore struct {
	quota int
	data  map[string]string
}

func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{
		quota: quota,
		data:  make(map[string]string),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if _, ok := m.data[key]; !ok && len(m.data) >= m.quota {
		return ErrQuotaExceeded
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	return len(m.data), nil
}
