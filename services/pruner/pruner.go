package pruner

import (
	"context"
	"sync"
	"time"

	"milos55/reklamiworker/internal/fetch"
	"milos55/reklamiworker/logger"
	"milos55/reklamiworker/metrics"
	"milos55/reklamiworker/services/store"
)

// DefaultBatchSize is the number of links checked per page of the store
const DefaultBatchSize = 100

// Report summarizes a prune pass
type Report struct {
	Checked int
	Deleted int
	// Errors counts links whose status could not be determined; they are kept
	Errors   int
	Duration time.Duration
}

// Pruner deletes stored ads whose pages no longer exist
type Pruner struct {
	store     store.Store
	fetcher   fetch.Fetcher
	batchSize int
	log       *logger.Logger
}

// NewPruner creates a Pruner
func NewPruner(sink store.Store, fetcher fetch.Fetcher, batchSize int) *Pruner {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Pruner{
		store:     sink,
		fetcher:   fetcher,
		batchSize: batchSize,
		log:       logger.ForPruner(),
	}
}

// Run walks every stored link once. Deleted rows shift later rows down, so
// the offset only advances past the rows that survived.
func (p *Pruner) Run(ctx context.Context) (Report, error) {
	var report Report
	start := time.Now()
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		links, err := p.store.Links(ctx, offset, p.batchSize)
		if err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		if len(links) == 0 {
			break
		}

		gone, failed := p.check(ctx, links)
		report.Checked += len(links)
		report.Errors += failed

		deleted := 0
		if len(gone) > 0 {
			deleted, err = p.store.DeleteLinks(ctx, gone)
			if err != nil {
				report.Duration = time.Since(start)
				return report, err
			}
			metrics.AdsPrunedTotal.Add(float64(deleted))
		}
		report.Deleted += deleted
		offset += len(links) - deleted

		p.log.Info().
			Int("offset", offset).
			Int("checked", len(links)).
			Int("deleted", deleted).
			Int("unknown", failed).
			Msg("prune batch finished")
	}

	report.Duration = time.Since(start)
	p.log.Info().
		Int("checked", report.Checked).
		Int("deleted", report.Deleted).
		Int("unknown", report.Errors).
		Dur("total_time", report.Duration).
		Msg("prune finished")
	return report, nil
}

// check issues the status requests concurrently and returns the gone links
// in input order
func (p *Pruner) check(ctx context.Context, links []string) ([]string, int) {
	gone := make([]bool, len(links))
	errs := make([]error, len(links))

	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			gone[i], errs[i] = p.fetcher.Gone(ctx, link)
		}(i, link)
	}
	wg.Wait()

	var out []string
	failed := 0
	for i, link := range links {
		if errs[i] != nil {
			failed++
			p.log.Warn().Err(errs[i]).Str("link", link).Msg("could not check link, keeping it")
			continue
		}
		if gone[i] {
			p.log.Debug().Str("link", link).Msg("ad no longer exists")
			out = append(out, link)
		}
	}
	return out, failed
}
