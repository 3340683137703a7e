package ad

import (
	"strconv"
	"strings"
)

const (
	// DisplayDateLayout is how dates are shown to readers
	DisplayDateLayout = "02.01.2006"
	// NotAvailable is shown for absent dates
	NotAvailable = "N/A"
	// NegotiableLabel is shown instead of a price by agreement
	NegotiableLabel = "По договор"
)

// Display is the flat, display-ready projection read by the web tier
type Display struct {
	Link     string   `json:"adlink"`
	Title    string   `json:"adtitle"`
	Price    string   `json:"adprice"`
	Currency string   `json:"adcurrency"`
	Category string   `json:"adcategory"`
	Image    string   `json:"adimage"`
	Phones   []string `json:"adphone"`
	Location string   `json:"adlocation"`
	Date     string   `json:"addate"`
	Desc     string   `json:"addesc"`
	Store    string   `json:"adstore"`
}

// Display projects the ad into display strings. It has no side effects.
func (a *Ad) Display() Display {
	d := Display{
		Link:     a.Link,
		Title:    a.Title,
		Category: a.Category,
		Image:    a.ImageURL,
		Phones:   append([]string{}, a.Phones...),
		Location: a.Location,
		Date:     NotAvailable,
		Desc:     a.Description,
		Store:    a.Store,
	}
	if a.HasDate() {
		d.Date = a.Date.Format(DisplayDateLayout)
	}
	if a.Price.Negotiable {
		d.Price = NegotiableLabel
	} else {
		d.Price = FormatAmount(a.Price.Amount)
		d.Currency = a.Price.Currency
	}
	return d
}

// FormatAmount renders an amount with '.' digit grouping, e.g. 12500 -> "12.500"
func FormatAmount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
