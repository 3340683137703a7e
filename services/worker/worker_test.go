package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/internal/crawler"
	"milos55/reklamiworker/internal/fetch"
	"milos55/reklamiworker/internal/normalize"
	"milos55/reklamiworker/pkg/errors"
	"milos55/reklamiworker/services/publisher"
	"milos55/reklamiworker/services/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testListURL = "http://listing.test/?page={page}"

// MockProcessor yields two ads per non-empty page body
type MockProcessor struct {
	source crawler.SourceConfig
	mu     sync.Mutex
	seen   []string
}

var _ PageProcessor = (*MockProcessor)(nil)

func NewMockProcessor(stopOnEmpty bool) *MockProcessor {
	return &MockProcessor{source: crawler.SourceConfig{
		Name:        "test",
		ListURL:     testListURL,
		StopOnEmpty: stopOnEmpty,
	}}
}

func (m *MockProcessor) Source() crawler.SourceConfig { return m.source }

func (m *MockProcessor) Process(ctx context.Context, html string) (crawler.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return crawler.PageResult{}, err
	}
	if html == "" {
		return crawler.PageResult{}, nil
	}
	var r crawler.PageResult
	for _, suffix := range []string{"a", "b"} {
		r.Ads = append(r.Ads, &ad.Ad{
			Title: html + " " + suffix,
			Link:  "http://listing.test/" + html + "/" + suffix,
			Price: normalize.Price{Amount: 100, Currency: "МКД"},
			Store: m.source.Name,
		})
		r.Found++
	}
	return r, nil
}

func (m *MockProcessor) MarkSeen(ads []*ad.Ad) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range ads {
		m.seen = append(m.seen, a.Link)
	}
}

// MockFetcher serves page bodies by URL; missing URLs fail
type MockFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	batches [][]string
}

var _ fetch.Fetcher = (*MockFetcher)(nil)

func NewMockFetcher(pages map[int]string) *MockFetcher {
	m := &MockFetcher{pages: make(map[string]string)}
	for n, body := range pages {
		m.pages[strings.ReplaceAll(testListURL, crawler.PagePlaceholder, fmt.Sprint(n))] = body
	}
	return m
}

func (m *MockFetcher) Fetch(ctx context.Context, url string, opts ...fetch.Option) (string, error) {
	if body, ok := m.pages[url]; ok {
		return body, nil
	}
	return "", errors.NewExhausted(url, 3, fmt.Errorf("timeout"))
}

func (m *MockFetcher) FetchAll(ctx context.Context, urls []string, opts ...fetch.Option) []fetch.Result {
	m.mu.Lock()
	m.batches = append(m.batches, urls)
	m.mu.Unlock()

	results := make([]fetch.Result, len(urls))
	for i, u := range urls {
		body, err := m.Fetch(ctx, u)
		results[i] = fetch.Result{URL: u, Body: body, Err: err}
	}
	return results
}

func (m *MockFetcher) Gone(ctx context.Context, url string, opts ...fetch.Option) (bool, error) {
	return false, nil
}

func (m *MockFetcher) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// MockStore wraps a MemoryStore and records batch sizes
type MockStore struct {
	*store.MemoryStore
	mu      sync.Mutex
	sizes   []int
	failErr error
}

func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: store.NewMemoryStore(store.DoNothing)}
}

func (m *MockStore) SaveBatch(ctx context.Context, ads []*ad.Ad) (store.BatchResult, error) {
	m.mu.Lock()
	m.sizes = append(m.sizes, len(ads))
	m.mu.Unlock()
	if m.failErr != nil {
		return store.BatchResult{}, m.failErr
	}
	return m.MemoryStore.SaveBatch(ctx, ads)
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages []map[string]interface{}
	trimmed  int
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, shardKey string, values map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, values)
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error { return nil }

func pagesUpTo(n int) map[int]string {
	pages := make(map[int]string)
	for i := 1; i <= n; i++ {
		pages[i] = fmt.Sprintf("page%d", i)
	}
	return pages
}

func TestRunPersistsAfterEachBatch(t *testing.T) {
	proc := NewMockProcessor(false)
	fetcher := NewMockFetcher(pagesUpTo(5))
	sink := NewMockStore()
	pub := &MockPublisher{}

	w := NewWorker([]PageProcessor{proc}, fetcher, sink, pub, RunConfig{StartPage: 1, EndPage: 5, BatchSize: 2}, 0)

	var states []State
	w.OnState(func(source string, s State) { states = append(states, s) })

	sum, err := w.Run(context.Background(), proc)
	require.NoError(t, err)

	assert.Equal(t, []int{4, 4, 2}, sink.sizes)
	assert.Len(t, fetcher.Batches(), 3)
	assert.Len(t, fetcher.Batches()[2], 1)
	assert.Equal(t, 3, sum.Batches)
	assert.Equal(t, 5, sum.Pages)
	assert.Equal(t, 10, sum.Scraped())
	assert.Equal(t, 10, sum.Persisted())
	assert.Equal(t, 10, sum.Published)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 10, sink.Len())
	assert.Len(t, proc.seen, 10)

	assert.Equal(t, Idle, states[0])
	assert.Equal(t, []State{FetchingBatch, ProcessingBatch, Persisting}, states[1:4])
	assert.Equal(t, Done, states[len(states)-1])
}

func TestRunSkipsUnavailablePages(t *testing.T) {
	pages := pagesUpTo(3)
	delete(pages, 2)
	proc := NewMockProcessor(false)
	sink := NewMockStore()

	w := NewWorker([]PageProcessor{proc}, NewMockFetcher(pages), sink, nil, RunConfig{StartPage: 1, EndPage: 3, BatchSize: 3}, 0)

	sum, err := w.Run(context.Background(), proc)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.PagesFailed)
	assert.Equal(t, 4, sum.Persisted())
	_, ok := sink.Get("http://listing.test/page3/a")
	assert.True(t, ok)
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	pages := pagesUpTo(5)
	pages[2] = ""
	proc := NewMockProcessor(true)
	fetcher := NewMockFetcher(pages)
	sink := NewMockStore()

	w := NewWorker([]PageProcessor{proc}, fetcher, sink, nil, RunConfig{StartPage: 1, EndPage: 5, BatchSize: 1}, 0)

	sum, err := w.Run(context.Background(), proc)
	require.NoError(t, err)
	assert.Len(t, fetcher.Batches(), 2)
	assert.Equal(t, 2, sum.Persisted())
	assert.Equal(t, []int{2, 0}, sink.sizes)
}

func TestRunStopsWhenStoreUnavailable(t *testing.T) {
	proc := NewMockProcessor(false)
	fetcher := NewMockFetcher(pagesUpTo(4))
	sink := NewMockStore()
	sink.failErr = errors.NewPersistence("postgres", "acquire connection", fmt.Errorf("connection refused"))

	w := NewWorker([]PageProcessor{proc}, fetcher, sink, nil, RunConfig{StartPage: 1, EndPage: 4, BatchSize: 2}, 0)

	sum, err := w.Run(context.Background(), proc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypePersistence))
	assert.Len(t, fetcher.Batches(), 1)
	assert.Equal(t, 0, sum.Persisted())
	assert.Empty(t, proc.seen)
}

func TestRunIsIdempotent(t *testing.T) {
	proc := NewMockProcessor(false)
	fetcher := NewMockFetcher(pagesUpTo(3))
	sink := NewMockStore()
	pub := &MockPublisher{}
	w := NewWorker([]PageProcessor{proc}, fetcher, sink, pub, RunConfig{StartPage: 1, EndPage: 3, BatchSize: 2}, 0)

	first, err := w.Run(context.Background(), proc)
	require.NoError(t, err)
	second, err := w.Run(context.Background(), proc)
	require.NoError(t, err)

	assert.Equal(t, 6, first.Persisted())
	assert.Equal(t, 0, second.Persisted())
	assert.Equal(t, 6, second.Unchanged)
	assert.Equal(t, 6, sink.Len())
	assert.Len(t, pub.messages, 6)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunPacesBatches(t *testing.T) {
	proc := NewMockProcessor(false)
	pacing := 30 * time.Millisecond
	w := NewWorker([]PageProcessor{proc}, NewMockFetcher(pagesUpTo(3)), NewMockStore(), nil,
		RunConfig{StartPage: 1, EndPage: 3, BatchSize: 1, Pacing: pacing}, 0)

	start := time.Now()
	_, err := w.Run(context.Background(), proc)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 2*pacing)
}

func TestRunCancelledDuringPacing(t *testing.T) {
	proc := NewMockProcessor(false)
	sink := NewMockStore()
	w := NewWorker([]PageProcessor{proc}, NewMockFetcher(pagesUpTo(3)), sink, nil,
		RunConfig{StartPage: 1, EndPage: 3, BatchSize: 1, Pacing: time.Minute}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	sum, err := w.Run(ctx, proc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 2, sum.Persisted())
}

func TestRunAllTrimsStreams(t *testing.T) {
	a := NewMockProcessor(false)
	b := NewMockProcessor(false)
	b.source.Name = "other"
	pub := &MockPublisher{}
	w := NewWorker([]PageProcessor{a, b}, NewMockFetcher(pagesUpTo(1)), NewMockStore(), pub,
		RunConfig{StartPage: 1, EndPage: 1, BatchSize: 1}, 0)

	summaries, err := w.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "test", summaries[0].Source)
	assert.Equal(t, "other", summaries[1].Source)
	assert.Equal(t, 1, pub.trimmed)
}

func TestStartRunsOnceWithoutInterval(t *testing.T) {
	proc := NewMockProcessor(false)
	sink := NewMockStore()
	w := NewWorker([]PageProcessor{proc}, NewMockFetcher(pagesUpTo(1)), sink, nil,
		RunConfig{StartPage: 1, EndPage: 1, BatchSize: 1}, 0)

	require.NoError(t, w.Start(context.Background()))
	assert.Equal(t, 2, sink.Len())
}

func (m *MockPublisher) Trimmed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trimmed
}

func TestStartRepeatsEveryInterval(t *testing.T) {
	proc := NewMockProcessor(false)
	pub := &MockPublisher{}
	w := NewWorker([]PageProcessor{proc}, NewMockFetcher(pagesUpTo(1)), NewMockStore(), pub,
		RunConfig{StartPage: 1, EndPage: 1, BatchSize: 1}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool { return pub.Trimmed() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestStartReturnsWhenCancelledBetweenCycles(t *testing.T) {
	proc := NewMockProcessor(false)
	pub := &MockPublisher{}
	w := NewWorker([]PageProcessor{proc}, NewMockFetcher(pagesUpTo(1)), NewMockStore(), pub,
		RunConfig{StartPage: 1, EndPage: 1, BatchSize: 1}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// the first cycle ends with a trim, after which Start waits an hour
	require.Eventually(t, func() bool { return pub.Trimmed() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept waiting after cancellation")
	}
	assert.Equal(t, 1, pub.Trimmed())
}
