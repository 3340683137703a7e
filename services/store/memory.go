package store

import (
	"context"
	"sync"

	"milos55/reklamiworker/internal/ad"
)

// MemoryStore keeps ads in process memory. Used for dry runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	policy ConflictPolicy
	ads    map[string]ad.Ad
	order  []string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore(policy ConflictPolicy) *MemoryStore {
	return &MemoryStore{policy: policy, ads: make(map[string]ad.Ad)}
}

// SaveBatch implements Store
func (m *MemoryStore) SaveBatch(ctx context.Context, ads []*ad.Ad) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result BatchResult
	for _, a := range ads {
		if _, exists := m.ads[a.Link]; exists {
			if m.policy == Update {
				m.ads[a.Link] = *a
				result.Updated++
			} else {
				result.Unchanged++
			}
			continue
		}
		m.ads[a.Link] = *a
		m.order = append(m.order, a.Link)
		result.Inserted = append(result.Inserted, a)
	}
	return result, nil
}

// Links implements Store
func (m *MemoryStore) Links(ctx context.Context, offset, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if offset >= len(m.order) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.order) {
		end = len(m.order)
	}
	return append([]string(nil), m.order[offset:end]...), nil
}

// DeleteLinks implements Store
func (m *MemoryStore) DeleteLinks(ctx context.Context, links []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]struct{}, len(links))
	for _, l := range links {
		if _, ok := m.ads[l]; ok {
			drop[l] = struct{}{}
			delete(m.ads, l)
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}
	kept := m.order[:0]
	for _, l := range m.order {
		if _, gone := drop[l]; !gone {
			kept = append(kept, l)
		}
	}
	m.order = kept
	return len(drop), nil
}

// Get returns the stored ad for link
func (m *MemoryStore) Get(link string) (ad.Ad, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.ads[link]
	return a, ok
}

// Len returns the number of stored ads
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ads)
}

// Close implements Store
func (m *MemoryStore) Close() {}
