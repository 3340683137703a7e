package ad

import (
	"time"

	"milos55/reklamiworker/internal/normalize"
)

// Ad is one normalized classified listing. Link is its identity.
type Ad struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Link        string          `json:"link"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Phones      []string        `json:"phone"`
	Date        time.Time       `json:"date"`
	Price       normalize.Price `json:"price"`
	Location    string          `json:"location"`
	Store       string          `json:"store"`
}

// HasDate reports whether a calendar date was resolved for the ad
func (a *Ad) HasDate() bool {
	return !a.Date.IsZero()
}

// Field names an optional Ad attribute that a source may require
type Field string

const (
	FieldDescription Field = "description"
	FieldLocation    Field = "location"
	FieldPhone       Field = "phone"
	FieldCategory    Field = "category"
	// FieldImage and FieldDate have no placeholder form. Requiring them only
	// filters under Discard; under Placeholder the ad is kept without them.
	FieldImage Field = "image"
	FieldDate  Field = "date"
)

// missing reports whether the field is empty on a
func (a *Ad) missing(f Field) bool {
	switch f {
	case FieldDescription:
		return a.Description == ""
	case FieldLocation:
		return a.Location == ""
	case FieldPhone:
		return len(a.Phones) == 0
	case FieldCategory:
		return a.Category == ""
	case FieldImage:
		return a.ImageURL == ""
	case FieldDate:
		return !a.HasDate()
	}
	return false
}

// fill sets a missing text field to the placeholder. Typed fields (image, date) stay empty.
func (a *Ad) fill(f Field, placeholder string) {
	switch f {
	case FieldDescription:
		a.Description = placeholder
	case FieldLocation:
		a.Location = placeholder
	case FieldPhone:
		a.Phones = []string{placeholder}
	case FieldCategory:
		a.Category = placeholder
	}
}
