package crawler

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"milos55/reklamiworker/config"
	"milos55/reklamiworker/helpers"
	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/internal/fetch"
)

// DefaultCurrency is assumed for prices written without a currency
const DefaultCurrency = "МКД"

// Default list URLs
const (
	Reklama5ListURL = "https://www.reklama5.mk/Search?city=&cat=0&q=&page={page}"
	Pazar3ListURL   = "https://www.pazar3.mk/oglasi/?Page={page}"
	ItmkListURL     = "https://forum.it.mk/oglasnik/categories/prodavam.1/?page={page}"
)

// CreateSources returns the configurations of the sources enabled in cfg, in cfg order
func CreateSources(cfg *config.Config) ([]SourceConfig, error) {
	all := Sources(cfg)
	byName := make(map[string]SourceConfig, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}

	var out []SourceConfig
	for _, name := range cfg.Sources {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no crawler configuration for source %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Sources returns every known source configuration; cfg may override list URLs
func Sources(cfg *config.Config) []SourceConfig {
	if cfg == nil {
		cfg = &config.Config{}
	}

	return []SourceConfig{
		{
			// Reklama5 configuration
			Name:    "reklama5",
			ListURL: orDefault(cfg.Reklama5URL, Reklama5ListURL),
			BaseURL: "https://www.reklama5.mk",
			Profile: fetch.CrawlerProfile,
			Summary: SummarySelectors{
				List:     "div.ad-desc-div.col-lg-6.text-left",
				Title:    Field{Selector: "a.SearchAdTitle"},
				Link:     Field{Selector: "a.SearchAdTitle", Attr: "href"},
				Price:    Field{Selector: "span.search-ad-price"},
				Category: Field{Selector: "a.text-secondary small"},
				Promoted: "span.promoted-badge, div.ad-premium",
			},
			Detail: &DetailSelectors{
				Description: Field{Selector: "p.mt-3"},
				Phone:       Field{Selector: "h6"},
			},
			CustomHandlers: CustomHandlers{
				Summary: map[string]CustomElementHandlerFunc{
					// the image sits in a sibling column of the description column
					PathImage: func(s *goquery.Selection) string {
						style, _ := s.Parent().Find("div.ad-image").First().Attr("style")
						return helpers.ExtractURLFromStyle(style)
					},
				},
				Detail: map[string]CustomElementHandlerFunc{
					PathLocation: infoColumn(0),
					PathDate:     infoColumn(2),
				},
			},
			Required:        []ad.Field{ad.FieldPhone, ad.FieldDescription, ad.FieldLocation},
			DefaultCurrency: DefaultCurrency,
			StopOnEmpty:     true,
		},
		{
			// Pazar3 configuration
			Name:    "pazar3",
			ListURL: orDefault(cfg.Pazar3URL, Pazar3ListURL),
			BaseURL: "https://www.pazar3.mk",
			Profile: fetch.CrawlerProfile,
			Summary: SummarySelectors{
				List:     "div.new.row.row-listing",
				Title:    Field{Selector: "a.Link_vis"},
				Link:     Field{Selector: "a.Link_vis", Attr: "href"},
				Price:    Field{Selector: "p.list-price"},
				Category: Field{Selector: "a.link-html5.nobold"},
				Image:    Field{Selector: "div.img-shimmer-container img.ProductionImg", Attr: "data-src"},
				Location: Field{Selector: "a.link-html5.nobold", Nth: 1},
				Promoted: "div.premium-listing, span.badge-top",
			},
			Detail: &DetailSelectors{
				Description: Field{Selector: "div.description-area span"},
				Phone:       Field{Selector: "a.btn-icon-left.new-btn", All: true},
				Date:        Field{Selector: "span.published-date"},
			},
			RemoveElements: []ElementRemoval{
				{Selector: "script, style", ApplyToPath: PathDescription},
			},
			Required:        []ad.Field{ad.FieldPhone, ad.FieldDescription},
			DefaultCurrency: DefaultCurrency,
			JSONLD:          true,
		},
		{
			// IT.mk forum classifieds configuration
			Name:    "itmk",
			ListURL: orDefault(cfg.ItmkURL, ItmkListURL),
			BaseURL: "https://forum.it.mk",
			Profile: fetch.BrowserProfile,
			Summary: SummarySelectors{
				List:  "div.structItem--listing",
				Title: Field{Selector: "div.structItem-title > a"},
				Link:  Field{Selector: "div.structItem-title > a", Attr: "href"},
				Price: Field{Selector: "div.structItem-cell--main ul li span"},
				Image: Field{Selector: "div.structItem-cell--icon img", Attr: "src"},
				Date:  Field{Selector: "time.u-dt", Attr: "data-date-string"},
				// sticky threads are pinned by the forum
				Promoted: "i.structItem-status--sticky",
			},
			DefaultCurrency: DefaultCurrency,
			StopOnEmpty:     true,
		},
	}
}

// infoColumn reads the span of the n-th info column on a reklama5 detail page
func infoColumn(n int) CustomElementHandlerFunc {
	return func(s *goquery.Selection) string {
		col := s.Find("div.col-4.align-self-center").Eq(n)
		return strings.TrimSpace(col.Find("span").First().Text())
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
