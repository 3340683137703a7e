package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractor reads Fields from a scope, honouring custom handlers and removals
type extractor struct {
	handlers map[string]CustomElementHandlerFunc
	removals []ElementRemoval
}

// value extracts the raw string for path. A custom handler wins over the Field.
func (e extractor) value(scope *goquery.Selection, path string, f Field) string {
	if handler, exists := e.handlers[path]; exists && handler != nil {
		return strings.TrimSpace(handler(scope))
	}
	if f.Selector == "" && f.Attr == "" {
		return ""
	}

	sel := scope
	if f.Selector != "" {
		sel = scope.Find(f.Selector)
	}
	if sel.Length() == 0 {
		return ""
	}

	if f.All {
		var parts []string
		sel.Each(func(_ int, s *goquery.Selection) {
			if v := e.read(s, path, f.Attr); v != "" {
				parts = append(parts, v)
			}
		})
		return strings.Join(parts, "\n")
	}
	return e.read(sel.Eq(f.Nth), path, f.Attr)
}

func (e extractor) read(s *goquery.Selection, path, attr string) string {
	if s.Length() == 0 {
		return ""
	}
	if attr != "" {
		v, _ := s.Attr(attr)
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(e.clean(s, path).Text())
}

// clean removes configured elements from a copy of the selection
func (e extractor) clean(sel *goquery.Selection, path string) *goquery.Selection {
	var clone *goquery.Selection
	for _, removal := range e.removals {
		if removal.ApplyToPath != path {
			continue
		}
		if clone == nil {
			clone = sel.Clone()
		}
		clone.Find(removal.Selector).Remove()
	}
	if clone == nil {
		return sel
	}
	return clone
}

// matches reports whether the selection is, or contains, an element matching selector
func matches(s *goquery.Selection, selector string) bool {
	if selector == "" {
		return false
	}
	return s.Is(selector) || s.Find(selector).Length() > 0
}
