package crawler

import (
	"context"
	"sync"
	"time"

	"milos55/reklamiworker/internal/fetch"
	"milos55/reklamiworker/pkg/errors"
	"milos55/reklamiworker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// MockFetcher serves canned pages; unknown URLs fail like an exhausted fetch
type MockFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func NewMockFetcher(pages map[string]string) *MockFetcher {
	return &MockFetcher{pages: pages}
}

func (m *MockFetcher) Fetch(ctx context.Context, url string, opts ...fetch.Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, url)
	if body, ok := m.pages[url]; ok {
		return body, nil
	}
	return "", errors.NewExhausted(url, 3, errors.NewNetwork("mock", "timeout", nil))
}

func (m *MockFetcher) FetchAll(ctx context.Context, urls []string, opts ...fetch.Option) []fetch.Result {
	results := make([]fetch.Result, len(urls))
	for i, u := range urls {
		body, err := m.Fetch(ctx, u, opts...)
		results[i] = fetch.Result{URL: u, Body: body, Err: err}
	}
	return results
}

func (m *MockFetcher) Gone(ctx context.Context, url string, opts ...fetch.Option) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pages[url]
	return !ok, nil
}

func (m *MockFetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}
