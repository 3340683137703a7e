package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"milos55/reklamiworker/helpers"
	"milos55/reklamiworker/logger"
	"milos55/reklamiworker/metrics"
	"milos55/reklamiworker/pkg/errors"
	"milos55/reklamiworker/services/cache"
)

// rateLimitStatuses are answered by blocking the host instead of retrying
var rateLimitStatuses = []int{http.StatusTooManyRequests, 430}

// Options configures an Engine
type Options struct {
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
	// BlockTime is how long a host is left alone after it rate limits us
	BlockTime time.Duration
	Profile   Profile
}

// DefaultOptions returns 3 attempts, a flat 2s delay and a 10s timeout
func DefaultOptions() Options {
	return Options{
		Retries:    3,
		RetryDelay: 2 * time.Second,
		Timeout:    10 * time.Second,
		BlockTime:  500 * time.Second,
		Profile:    CrawlerProfile,
	}
}

// Option overrides engine options for a single call
type Option func(*Options)

// WithRetries overrides the attempt count
func WithRetries(n int) Option {
	return func(o *Options) { o.Retries = n }
}

// WithTimeout overrides the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithBlockTime overrides how long a rate limiting host is left alone
func WithBlockTime(d time.Duration) Option {
	return func(o *Options) { o.BlockTime = d }
}

// WithProfile overrides the header profile
func WithProfile(p Profile) Option {
	return func(o *Options) { o.Profile = p }
}

// Fetcher is the page-fetching contract used by the crawler and the pruner
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts ...Option) (string, error)
	FetchAll(ctx context.Context, urls []string, opts ...Option) []Result
	Gone(ctx context.Context, url string, opts ...Option) (bool, error)
}

// Result is the outcome of one URL of a FetchAll call
type Result struct {
	URL  string
	Body string
	Err  error
}

// Engine fetches pages with bounded flat-delay retries over one shared client.
// It does not limit concurrency; callers bound it through their batch size.
type Engine struct {
	client *http.Client
	opts   Options
	cache  cache.CacheService
	log    *logger.Logger
}

// NewEngine creates an Engine. cacheSvc may be nil, which disables host blocking.
func NewEngine(opts Options, cacheSvc cache.CacheService) *Engine {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Profile.UserAgent == "" {
		opts.Profile = CrawlerProfile
	}
	return &Engine{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:  opts,
		cache: cacheSvc,
		log:   logger.ForFetch(),
	}
}

// Close releases idle connections of the shared client
func (e *Engine) Close() {
	e.client.CloseIdleConnections()
}

func (e *Engine) options(overrides []Option) Options {
	o := e.opts
	for _, apply := range overrides {
		apply(&o)
	}
	if o.Retries < 1 {
		o.Retries = 1
	}
	return o
}

// Fetch returns the UTF-8 body of url. A non-200 status or a network error is
// retried after a flat delay; once every attempt has failed an exhausted error
// is returned. 429/430 answers block the host and are not retried.
func (e *Engine) Fetch(ctx context.Context, url string, opts ...Option) (string, error) {
	o := e.options(opts)
	host := helpers.Host(url)

	if e.blocked(host) {
		metrics.FetchRequestsTotal.WithLabelValues(host, http.MethodGet, "blocked").Inc()
		return "", errors.NewRateLimit(host, o.BlockTime)
	}

	var lastErr error
	attempts := 0
	for attempts < o.Retries {
		attempts++
		body, err := e.get(ctx, url, o)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if errors.Is(err, errors.ErrorTypeRateLimit) {
			e.block(host, o.BlockTime)
			return "", err
		}
		if !retryable(err) || ctx.Err() != nil {
			break
		}

		e.log.Debug().Str("url", url).Int("attempt", attempts).Err(err).Msg("fetch attempt failed")
		if attempts < o.Retries {
			if err := sleep(ctx, o.RetryDelay); err != nil {
				break
			}
		}
	}

	metrics.FetchAbandonedTotal.WithLabelValues(host).Inc()
	e.log.Warn().Str("url", url).Int("attempts", attempts).Err(lastErr).Msg("abandoning URL")
	return "", errors.NewExhausted(url, attempts, lastErr)
}

func (e *Engine) get(ctx context.Context, url string, o Options) (string, error) {
	resp, err := e.do(ctx, http.MethodGet, url, o)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	host := helpers.Host(url)
	if slices.Contains(rateLimitStatuses, resp.StatusCode) {
		return "", errors.NewRateLimit(host, o.BlockTime)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewNetwork(host, fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewNetwork(host, "failed to read response body", err)
	}
	text, err := decodeBody(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.NewParsing(host, "charset decoding failed", err)
	}
	return text, nil
}

// do sends one request bounded by the per-attempt timeout. The body is
// buffered by the caller before the timeout context is cancelled.
func (e *Engine) do(ctx context.Context, method, url string, o Options) (*http.Response, error) {
	host := helpers.Host(url)
	attemptCtx, cancel := context.WithTimeout(ctx, o.Timeout)

	req, err := http.NewRequestWithContext(attemptCtx, method, url, nil)
	if err != nil {
		cancel()
		return nil, errors.NewValidation("fetch", "invalid URL "+url)
	}
	o.Profile.apply(req)

	start := time.Now()
	resp, err := e.client.Do(req)
	metrics.FetchDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	if err != nil {
		cancel()
		metrics.FetchRequestsTotal.WithLabelValues(host, method, "error").Inc()
		return nil, errors.NewNetwork(host, method+" "+url, err)
	}
	metrics.FetchRequestsTotal.WithLabelValues(host, method, strconv.Itoa(resp.StatusCode)).Inc()
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// FetchAll fetches every URL concurrently and returns the results in input order
func (e *Engine) FetchAll(ctx context.Context, urls []string, opts ...Option) []Result {
	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			body, err := e.Fetch(ctx, u, opts...)
			results[i] = Result{URL: u, Body: body, Err: err}
		}(i, u)
	}
	wg.Wait()
	return results
}

// Gone reports whether url answers 404 or 410 to a HEAD request.
// Other non-success statuses and network errors are retried like Fetch.
func (e *Engine) Gone(ctx context.Context, url string, opts ...Option) (bool, error) {
	o := e.options(opts)

	var lastErr error
	attempts := 0
	for attempts < o.Retries {
		attempts++
		resp, err := e.do(ctx, http.MethodHead, url, o)
		if err == nil {
			resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
				return true, nil
			case resp.StatusCode < 400:
				return false, nil
			}
			err = errors.NewNetwork(helpers.Host(url), fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
		if attempts < o.Retries {
			if err := sleep(ctx, o.RetryDelay); err != nil {
				break
			}
		}
	}
	return false, errors.NewExhausted(url, attempts, lastErr)
}

func (e *Engine) blocked(host string) bool {
	if e.cache == nil || host == "" {
		return false
	}
	_, err := e.cache.Get(cache.Key("block", host))
	if err == nil {
		return true
	}
	if err != cache.ErrMiss {
		e.log.Warn().Err(err).Str("host", host).Msg("block lookup failed")
	}
	return false
}

func (e *Engine) block(host string, d time.Duration) {
	if e.cache == nil || host == "" || d <= 0 {
		return
	}
	e.log.Warn().Str("host", host).Dur("for", d).Msg("host rate limited us, blocking")
	seconds := strconv.Itoa(int(d / time.Second))
	if err := e.cache.Set(cache.Key("block", host), []byte(seconds), d); err != nil {
		e.log.Warn().Err(err).Str("host", host).Msg("failed to store host block")
	}
}

func retryable(err error) bool {
	return errors.IsRetryable(err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
