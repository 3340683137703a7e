package worker

import (
	"context"
	"sync"
	"time"

	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/internal/crawler"
	"milos55/reklamiworker/internal/fetch"
	"milos55/reklamiworker/logger"
	"milos55/reklamiworker/metrics"
	"milos55/reklamiworker/services/publisher"
	"milos55/reklamiworker/services/store"

	"github.com/google/uuid"
)

// State is the phase a source run is in
type State string

const (
	Idle            State = "idle"
	FetchingBatch   State = "fetching_batch"
	ProcessingBatch State = "processing_batch"
	Persisting      State = "persisting"
	Done            State = "done"
)

// PageProcessor turns listing pages of one source into ads
type PageProcessor interface {
	Source() crawler.SourceConfig
	Process(ctx context.Context, html string) (crawler.PageResult, error)
	MarkSeen(ads []*ad.Ad)
}

// RunConfig bounds a batch run
type RunConfig struct {
	StartPage int
	EndPage   int
	// BatchSize is the number of pages fetched together and persisted together
	BatchSize int
	// Pacing is the pause between batches
	Pacing time.Duration
}

// Summary reports one source run
type Summary struct {
	RunID       string
	Source      string
	Batches     int
	Pages       int
	PagesFailed int
	crawler.PageResult
	Inserted  int
	Updated   int
	Unchanged int
	Failed    int
	Published int
	Duration  time.Duration
}

// Scraped is the number of ads that passed validation
func (s Summary) Scraped() int {
	return len(s.Ads)
}

// Persisted is the number of ads written to the store
func (s Summary) Persisted() int {
	return s.Inserted + s.Updated
}

// Worker drives batch runs over the configured sources
type Worker struct {
	processors    []PageProcessor
	fetcher       fetch.Fetcher
	store         store.Store
	publisher     publisher.Publisher
	run           RunConfig
	crawlInterval time.Duration
	log           *logger.Logger
	onState       func(source string, s State)
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(
	processors []PageProcessor,
	fetcher fetch.Fetcher,
	sink store.Store,
	pub publisher.Publisher,
	run RunConfig,
	crawlInterval time.Duration,
) *Worker {
	return &Worker{
		processors:    processors,
		fetcher:       fetcher,
		store:         sink,
		publisher:     pub,
		run:           run,
		crawlInterval: crawlInterval,
		log:           logger.ForWorker(),
	}
}

// OnState registers a hook called on every state transition
func (w *Worker) OnState(fn func(source string, s State)) {
	w.onState = fn
}

func (w *Worker) setState(log *logger.Logger, source string, s State) {
	log.Debug().Str("state", string(s)).Msg("state transition")
	if w.onState != nil {
		w.onState(source, s)
	}
}

// Start runs all sources, then repeats every crawl interval until ctx is
// cancelled. A zero interval runs once.
func (w *Worker) Start(ctx context.Context) error {
	for {
		start := time.Now()
		if _, err := w.RunAll(ctx); err != nil {
			return err
		}
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("crawl cycle finished")

		if w.crawlInterval <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunAll runs every source in parallel and then trims the streams.
// The first hard stop error is returned along with every summary.
func (w *Worker) RunAll(ctx context.Context) ([]Summary, error) {
	summaries := make([]Summary, len(w.processors))
	errs := make([]error, len(w.processors))

	var wg sync.WaitGroup
	for i, p := range w.processors {
		wg.Add(1)
		go func(i int, p PageProcessor) {
			defer wg.Done()
			summaries[i], errs[i] = w.Run(ctx, p)
		}(i, p)
	}
	wg.Wait()

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(ctx); err != nil {
			w.log.Error().Err(err).Msg("stream trimming failed")
		}
	}

	for i, err := range errs {
		if err != nil && ctx.Err() == nil {
			logger.LogError("worker", err, "run of %s stopped", summaries[i].Source)
			return summaries, err
		}
	}
	return summaries, ctx.Err()
}

// Run crawls pages StartPage..EndPage of one source in batches, persisting
// after each batch. It returns early on cancellation or when the store is
// unavailable.
func (w *Worker) Run(ctx context.Context, p PageProcessor) (Summary, error) {
	src := p.Source()
	sum := Summary{RunID: uuid.NewString(), Source: src.Name}
	log := w.log.WithFields(logger.Fields{"source": src.Name, "run_id": sum.RunID})
	started := time.Now()
	w.setState(log, src.Name, Idle)

	batch := w.run.BatchSize
	if batch < 1 {
		batch = 1
	}

	log.Info().
		Int("start_page", w.run.StartPage).
		Int("end_page", w.run.EndPage).
		Int("batch_size", batch).
		Msg("run started")

	for first := w.run.StartPage; first <= w.run.EndPage; first += batch {
		if first > w.run.StartPage {
			if err := pause(ctx, w.run.Pacing); err != nil {
				return w.finish(log, src.Name, sum, started), err
			}
		}
		last := first + batch - 1
		if last > w.run.EndPage {
			last = w.run.EndPage
		}

		stop, err := w.runBatch(ctx, log, p, first, last, &sum)
		if err != nil {
			return w.finish(log, src.Name, sum, started), err
		}
		if stop {
			break
		}
	}
	return w.finish(log, src.Name, sum, started), ctx.Err()
}

// runBatch fetches, processes and persists pages first..last. It reports
// whether the source ran out of results.
func (w *Worker) runBatch(ctx context.Context, log *logger.Logger, p PageProcessor, first, last int, sum *Summary) (bool, error) {
	src := p.Source()
	start := time.Now()
	sum.Batches++

	w.setState(log, src.Name, FetchingBatch)
	urls := make([]string, 0, last-first+1)
	for page := first; page <= last; page++ {
		urls = append(urls, src.PageURL(page))
	}
	results := w.fetcher.FetchAll(ctx, urls, fetch.WithProfile(src.Profile))

	w.setState(log, src.Name, ProcessingBatch)
	var found crawler.PageResult
	var procErr error
	stop := false
	for i, r := range results {
		page := first + i
		sum.Pages++
		if r.Err != nil {
			sum.PagesFailed++
			log.Warn().Err(r.Err).Int("page", page).Msg("listing page unavailable")
			continue
		}
		res, err := p.Process(ctx, r.Body)
		found.Add(res)
		if err != nil {
			if ctx.Err() != nil {
				procErr = ctx.Err()
				break
			}
			sum.PagesFailed++
			log.Warn().Err(err).Int("page", page).Msg("listing page not processed")
			continue
		}
		if res.Found == 0 && src.StopOnEmpty {
			log.Info().Int("page", page).Msg("no ads on page, end of results")
			stop = true
			break
		}
	}
	sum.PageResult.Add(found)

	w.setState(log, src.Name, Persisting)
	saved, err := w.store.SaveBatch(ctx, found.Ads)
	if err != nil {
		log.Error().Err(err).Int("ads", len(found.Ads)).Msg("store unavailable, stopping run")
		return true, err
	}
	sum.Inserted += len(saved.Inserted)
	sum.Updated += saved.Updated
	sum.Unchanged += saved.Unchanged
	sum.Failed += len(saved.Failed)
	metrics.AdsPersistedTotal.WithLabelValues(src.Name, "inserted").Add(float64(len(saved.Inserted)))
	metrics.AdsPersistedTotal.WithLabelValues(src.Name, "updated").Add(float64(saved.Updated))
	metrics.AdsPersistedTotal.WithLabelValues(src.Name, "unchanged").Add(float64(saved.Unchanged))

	p.MarkSeen(saved.Stored(found.Ads))

	if w.publisher != nil && len(saved.Inserted) > 0 {
		n, err := publisher.PublishAds(ctx, w.publisher, sum.RunID, saved.Inserted)
		sum.Published += n
		if err != nil {
			log.Warn().Err(err).Int("published", n).Msg("some ads were not published")
		}
	}

	elapsed := time.Since(start)
	metrics.BatchDuration.WithLabelValues(src.Name).Observe(elapsed.Seconds())
	log.Info().
		Int("first_page", first).
		Int("last_page", last).
		Int("found", found.Found).
		Int("scraped", len(found.Ads)).
		Int("persisted", saved.Persisted()).
		Dur("duration", elapsed).
		Msg("batch finished")

	return stop, procErr
}

func (w *Worker) finish(log *logger.Logger, source string, sum Summary, started time.Time) Summary {
	sum.Duration = time.Since(started)
	w.setState(log, source, Done)
	log.Info().
		Int("batches", sum.Batches).
		Int("pages", sum.Pages).
		Int("pages_failed", sum.PagesFailed).
		Int("found", sum.Found).
		Int("scraped", sum.Scraped()).
		Int("persisted", sum.Persisted()).
		Int("unchanged", sum.Unchanged).
		Int("failed", sum.Failed).
		Int("incomplete", sum.Incomplete).
		Int("published", sum.Published).
		Dur("total_time", sum.Duration).
		Msg("run finished")
	return sum
}

func pause(ctx context.Context, d time.Duration) error {
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
