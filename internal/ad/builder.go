package ad

import (
	"time"

	"milos55/reklamiworker/helpers"
	"milos55/reklamiworker/internal/normalize"
	"milos55/reklamiworker/pkg/errors"
)

// Options are the per-source settings shared by every Builder of a run
type Options struct {
	Store           string
	DefaultCurrency string
	Policy          Policy
	Phones          *normalize.PhoneSet
}

// Builder collects raw fields of one listing and produces a validated Ad.
// Setters normalize their input; Build enforces the record invariants.
type Builder struct {
	opts      Options
	now       time.Time
	ad        Ad
	rawPhones []string
}

// NewBuilder starts an empty ad; relative dates resolve against now
func NewBuilder(opts Options, now time.Time) *Builder {
	if opts.Phones == nil {
		opts.Phones = normalize.NewPhoneSet(nil)
	}
	return &Builder{opts: opts, now: now, ad: Ad{Store: opts.Store}}
}

// Title sets the title
func (b *Builder) Title(raw string) *Builder {
	b.ad.Title = normalize.CleanText(raw)
	return b
}

// Link sets the identity link, which must already be absolute
func (b *Builder) Link(link string) *Builder {
	b.ad.Link = link
	return b
}

// Description sets the description, dropping trailing site boilerplate
func (b *Builder) Description(raw string) *Builder {
	b.ad.Description = normalize.CleanDescription(raw)
	return b
}

// Image sets the image URL. Non-absolute values are ignored.
func (b *Builder) Image(url string) *Builder {
	if helpers.IsAbsoluteURL(url) {
		b.ad.ImageURL = url
	}
	return b
}

// Category sets the category
func (b *Builder) Category(raw string) *Builder {
	b.ad.Category = normalize.CleanText(raw)
	return b
}

// Location sets the location
func (b *Builder) Location(raw string) *Builder {
	b.ad.Location = normalize.CleanText(raw)
	return b
}

// Phones adds raw phone strings; they are split and normalized on Build
func (b *Builder) Phones(raws ...string) *Builder {
	b.rawPhones = append(b.rawPhones, raws...)
	return b
}

// Price splits a raw price string
func (b *Builder) Price(raw string) *Builder {
	b.ad.Price = normalize.SplitPrice(raw)
	return b
}

// SetPrice sets an already split price
func (b *Builder) SetPrice(p normalize.Price) *Builder {
	b.ad.Price = p
	return b
}

// Date parses a raw date. It reports false when the text could not be
// understood; the ad then has no date.
func (b *Builder) Date(raw string) bool {
	d, ok := normalize.ParseDate(raw, b.now)
	b.ad.Date = d
	return ok
}

// Build validates the collected fields and returns the finished Ad.
// A missing required field yields an incomplete error under the Discard action.
func (b *Builder) Build() (*Ad, error) {
	a := b.ad
	a.Phones = b.opts.Phones.Normalize(b.rawPhones...)

	if a.Title == "" {
		return nil, errors.NewValidation(b.opts.Store, "title is required")
	}
	if !helpers.IsAbsoluteURL(a.Link) {
		return nil, errors.NewValidation(b.opts.Store, "link is not absolute: "+a.Link)
	}

	if a.Price.Negotiable {
		a.Price = normalize.Negotiable()
	} else if a.Price.Currency == "" {
		if b.opts.DefaultCurrency == "" {
			return nil, errors.NewValidation(b.opts.Store, "price has no currency")
		}
		a.Price.Currency = b.opts.DefaultCurrency
	}
	if a.Price.Amount < 0 {
		return nil, errors.NewValidation(b.opts.Store, "price is negative")
	}

	policy := b.opts.Policy
	for _, f := range policy.Required {
		if !a.missing(f) {
			continue
		}
		if policy.OnMissing == Placeholder {
			a.fill(f, policy.placeholder())
			continue
		}
		return nil, errors.NewIncomplete(b.opts.Store, string(f))
	}

	return &a, nil
}
