package cache

import (
	"context"
	"sync"
	"time"
)

type memItem struct {
	body    []byte
	gen     uint64
	expires time.Time
}

// Memory is an in-process Store guarded by a single RWMutex.
type Memory struct {
	mu    sync.RWMutex
	ttl   time.Duration
	gens  map[string]uint64
	items map[string]map[string]memItem // path -> variant -> item

	now func() time.Time
}

// NewMemory returns an empty in-memory store. A ttl <= 0 keeps entries until
// the next Revalidate.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		gens:  make(map[string]uint64),
		items: make(map[string]map[string]memItem),
		now:   time.Now,
	}
}

// Generation implements Store.
func (m *Memory) Generation(_ context.Context, path string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[path], nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, path string, gen uint64, variant string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[path][variant]
	if !ok || it.gen != gen {
		return nil, false, nil
	}
	if !it.expires.IsZero() && !m.now().Before(it.expires) {
		return nil, false, nil
	}
	return it.body, true, nil
}

// Set implements Store. Bodies computed against a stale generation are
// dropped so they cannot outlive the Revalidate that raced them.
func (m *Memory) Set(_ context.Context, path string, gen uint64, variant string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gens[path] {
		return nil
	}
	byVariant := m.items[path]
	if byVariant == nil {
		byVariant = make(map[string]memItem)
		m.items[path] = byVariant
	}
	it := memItem{body: append([]byte(nil), body...), gen: gen}
	if m.ttl > 0 {
		it.expires = m.now().Add(m.ttl)
	}
	byVariant[variant] = it
	return nil
}

// Revalidate implements Store.
func (m *Memory) Revalidate(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[path]++
	delete(m.items, path)
	return nil
}
