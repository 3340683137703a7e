package crawler

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"milos55/reklamiworker/helpers"
	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/internal/fetch"
	"milos55/reklamiworker/internal/normalize"
	"milos55/reklamiworker/logger"
	"milos55/reklamiworker/metrics"
	"milos55/reklamiworker/pkg/errors"
	"milos55/reklamiworker/services/cache"
)

// SeenTTL is how long a stored link is remembered by the seen cache
const SeenTTL = 7 * 24 * time.Hour

// PageResult is the outcome of processing one listing page
type PageResult struct {
	Ads []*ad.Ad
	// Found counts the ad summaries discovered on the page
	Found       int
	Promoted    int
	Seen        int
	FetchFailed int
	Incomplete  int
	Invalid     int
}

// Add merges other into r
func (r *PageResult) Add(other PageResult) {
	r.Ads = append(r.Ads, other.Ads...)
	r.Found += other.Found
	r.Promoted += other.Promoted
	r.Seen += other.Seen
	r.FetchFailed += other.FetchFailed
	r.Incomplete += other.Incomplete
	r.Invalid += other.Invalid
}

// ProcessorOptions configures a Processor
type ProcessorOptions struct {
	// OnMissing and Placeholder apply to the source's required fields
	OnMissing   ad.MissingAction
	Placeholder string
	Phones      *normalize.PhoneSet
	// Seen, when set, skips detail fetches for links already stored
	Seen cache.CacheService
	Now  func() time.Time
}

// Processor turns listing pages of one source into validated ads
type Processor struct {
	source  SourceConfig
	fetcher fetch.Fetcher
	adOpts  ad.Options
	seen    cache.CacheService
	now     func() time.Time
	listing extractor
	detail  extractor
	log     *logger.Logger
}

// summary holds the raw fields read from a listing entry
type summary struct {
	title    string
	link     string
	rawPrice string
	price    *normalize.Price
	category string
	image    string
	location string
	date     string
	promoted bool
}

// NewProcessor creates a processor for source
func NewProcessor(source SourceConfig, fetcher fetch.Fetcher, opts ProcessorOptions) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OnMissing == "" {
		opts.OnMissing = ad.Discard
	}
	return &Processor{
		source:  source,
		fetcher: fetcher,
		adOpts: ad.Options{
			Store:           source.Name,
			DefaultCurrency: source.DefaultCurrency,
			Policy: ad.Policy{
				Required:    source.Required,
				OnMissing:   opts.OnMissing,
				Placeholder: opts.Placeholder,
			},
			Phones: opts.Phones,
		},
		seen:    opts.Seen,
		now:     opts.Now,
		listing: extractor{handlers: source.CustomHandlers.Summary, removals: source.RemoveElements},
		detail:  extractor{handlers: source.CustomHandlers.Detail, removals: source.RemoveElements},
		log:     logger.ForSource(source.Name),
	}
}

// Source returns the configuration the processor was built with
func (p *Processor) Source() SourceConfig {
	return p.source
}

// Process extracts every ad of a listing page. Detail pages are fetched one
// after another; a failed fetch or an incomplete ad skips only that ad.
func (p *Processor) Process(ctx context.Context, html string) (PageResult, error) {
	var result PageResult

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result, errors.NewParsing(p.source.Name, "failed to parse listing page", err)
	}

	summaries := p.summaries(doc)
	result.Found = len(summaries)
	now := p.now()

	for _, s := range summaries {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		a, outcome := p.processSummary(ctx, s, now)
		p.count(&result, outcome)
		metrics.AdsProcessedTotal.WithLabelValues(p.source.Name, outcome).Inc()
		if a != nil {
			result.Ads = append(result.Ads, a)
		}
	}

	return result, nil
}

// Outcomes of a single summary
const (
	outcomeAccepted    = "accepted"
	outcomePromoted    = "promoted"
	outcomeSeen        = "seen"
	outcomeFetchFailed = "fetch_failed"
	outcomeIncomplete  = "incomplete"
	outcomeInvalid     = "invalid"
)

func (p *Processor) count(r *PageResult, outcome string) {
	switch outcome {
	case outcomePromoted:
		r.Promoted++
	case outcomeSeen:
		r.Seen++
	case outcomeFetchFailed:
		r.FetchFailed++
	case outcomeIncomplete:
		r.Incomplete++
	case outcomeInvalid:
		r.Invalid++
	}
}

func (p *Processor) summaries(doc *goquery.Document) []summary {
	var out []summary
	doc.Find(p.source.Summary.List).Each(func(_ int, s *goquery.Selection) {
		out = append(out, p.readSummary(s))
	})
	if len(out) == 0 && p.source.JSONLD {
		out = jsonLDSummaries(doc)
	}
	return out
}

func (p *Processor) readSummary(s *goquery.Selection) summary {
	sel := p.source.Summary
	return summary{
		title:    p.listing.value(s, PathTitle, sel.Title),
		link:     p.listing.value(s, PathLink, sel.Link),
		rawPrice: p.listing.value(s, PathPrice, sel.Price),
		category: p.listing.value(s, PathCategory, sel.Category),
		image:    p.listing.value(s, PathImage, sel.Image),
		location: p.listing.value(s, PathLocation, sel.Location),
		date:     p.listing.value(s, PathDate, sel.Date),
		promoted: matches(s, sel.Promoted),
	}
}

func (p *Processor) processSummary(ctx context.Context, s summary, now time.Time) (*ad.Ad, string) {
	if s.promoted {
		p.log.Debug().Str("title", s.title).Msg("skipping promoted ad")
		return nil, outcomePromoted
	}

	link := p.canonicalLink(s.link)
	if s.title == "" || link == "" {
		p.log.Info().Str("title", s.title).Str("link", s.link).Msg("skipping ad without title or link")
		return nil, outcomeInvalid
	}
	if p.isSeen(link) {
		return nil, outcomeSeen
	}

	b := ad.NewBuilder(p.adOpts, now).
		Title(s.title).
		Link(link).
		Category(s.category).
		Image(helpers.ResolveURL(p.source.BaseURL, s.image)).
		Location(s.location)
	if s.price != nil {
		b.SetPrice(*s.price)
	} else {
		b.Price(s.rawPrice)
	}
	rawDate := s.date

	if d := p.source.Detail; d != nil {
		body, err := p.fetcher.Fetch(ctx, link, fetch.WithProfile(p.source.Profile))
		if err != nil {
			p.log.Warn().Str("link", link).Err(err).Msg("skipping ad, detail page unavailable")
			return nil, outcomeFetchFailed
		}
		detailDate, err := p.readDetail(b, body, d, s)
		if err != nil {
			p.log.Warn().Str("link", link).Err(err).Msg("skipping ad, detail page unreadable")
			return nil, outcomeInvalid
		}
		if detailDate != "" {
			rawDate = detailDate
		}
	}

	if rawDate != "" && !b.Date(rawDate) {
		p.log.Debug().Str("link", link).Str("date", rawDate).Msg("unparseable date")
	}

	a, err := b.Build()
	if err != nil {
		if errors.Is(err, errors.ErrorTypeIncomplete) {
			p.log.Info().Str("link", link).Err(err).Msg("skipping incomplete ad")
			return nil, outcomeIncomplete
		}
		p.log.Info().Str("link", link).Err(err).Msg("skipping invalid ad")
		return nil, outcomeInvalid
	}
	if logger.IsDebugEnabled() {
		p.log.Debug().Interface("ad", a.Display()).Msg("accepted ad")
	}
	return a, outcomeAccepted
}

// readDetail fills b from a detail page and returns its raw date
func (p *Processor) readDetail(b *ad.Builder, body string, d *DetailSelectors, s summary) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", errors.NewParsing(p.source.Name, "failed to parse detail page", err)
	}
	page := doc.Selection

	b.Description(p.detail.value(page, PathDescription, d.Description))
	b.Phones(p.detail.value(page, PathPhone, d.Phone))
	if loc := p.detail.value(page, PathLocation, d.Location); loc != "" {
		b.Location(loc)
	}
	if s.category == "" {
		b.Category(p.detail.value(page, PathCategory, d.Category))
	}
	if s.image == "" {
		b.Image(helpers.ResolveURL(p.source.BaseURL, p.detail.value(page, PathImage, d.Image)))
	}
	return p.detail.value(page, PathDate, d.Date), nil
}

// canonicalLink makes href absolute and drops any fragment
func (p *Processor) canonicalLink(href string) string {
	link := helpers.ResolveURL(p.source.BaseURL, href)
	if link == "" {
		return ""
	}
	link, _ = helpers.GetSplitPart(link, "#", 0)
	return link
}

func (p *Processor) isSeen(link string) bool {
	if p.seen == nil {
		return false
	}
	_, err := p.seen.Get(cache.Key("seen", link))
	return err == nil
}

// MarkSeen remembers stored links so later runs skip their detail pages
func (p *Processor) MarkSeen(ads []*ad.Ad) {
	if p.seen == nil {
		return
	}
	for _, a := range ads {
		if err := p.seen.Set(cache.Key("seen", a.Link), []byte(a.Store), SeenTTL); err != nil {
			p.log.Warn().Err(err).Str("link", a.Link).Msg("failed to mark link as seen")
			return
		}
	}
}
