package crawler

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/internal/fetch"
)

// PagePlaceholder is replaced by the page number in a list URL
const PagePlaceholder = "{page}"

// Field locates one raw value inside a selection
type Field struct {
	// Selector is relative to the scope; empty means the scope itself
	Selector string
	// Attr names the attribute to read; empty reads the text
	Attr string
	// Nth picks among several matches
	Nth int
	// All joins every match with a newline
	All bool
}

// CustomElementHandlerFunc extracts a raw value when a Field cannot express it
type CustomElementHandlerFunc func(*goquery.Selection) string

// ElementRemoval defines elements to remove from a selection before extracting text
type ElementRemoval struct {
	Selector    string // Selector to find elements to remove
	ApplyToPath string // The path to apply this to (e.g., "description")
}

// Paths used by handlers and removals
const (
	PathTitle       = "title"
	PathLink        = "link"
	PathPrice       = "price"
	PathCategory    = "category"
	PathImage       = "image"
	PathLocation    = "location"
	PathDate        = "date"
	PathDescription = "description"
	PathPhone       = "phone"
)

// SummarySelectors locate the fields of one ad summary on a listing page
type SummarySelectors struct {
	List     string
	Title    Field
	Link     Field
	Price    Field
	Category Field
	Image    Field
	Location Field
	Date     Field
	// Promoted matches the summary itself or an element inside it for paid listings
	Promoted string
}

// DetailSelectors locate the fields of a detail page
type DetailSelectors struct {
	Description Field
	Phone       Field
	Location    Field
	Date        Field
	Image       Field
	Category    Field
}

// CustomHandlers override Field extraction per path
type CustomHandlers struct {
	Summary map[string]CustomElementHandlerFunc
	Detail  map[string]CustomElementHandlerFunc
}

// SourceConfig contains everything needed to crawl one classifieds site
type SourceConfig struct {
	Name    string
	ListURL string
	BaseURL string
	Profile fetch.Profile

	Summary SummarySelectors
	// Detail is nil for sources whose listing already carries every field
	Detail         *DetailSelectors
	CustomHandlers CustomHandlers
	RemoveElements []ElementRemoval

	// Required is the completeness filter of the source
	Required        []ad.Field
	DefaultCurrency string
	// StopOnEmpty ends the run at the first page without summaries
	StopOnEmpty bool
	// JSONLD reads summaries from ld+json scripts when List matches nothing
	JSONLD bool
}

// PageURL returns the listing URL of the given page
func (s SourceConfig) PageURL(page int) string {
	return strings.ReplaceAll(s.ListURL, PagePlaceholder, strconv.Itoa(page))
}
