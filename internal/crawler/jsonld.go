package crawler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"milos55/reklamiworker/internal/normalize"
)

// jsonLDSummaries reads Product entries from ld+json scripts, including those
// nested in ItemList/ListItem or @graph containers.
func jsonLDSummaries(doc *goquery.Document) []summary {
	var out []summary
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		walkLD(data, func(product map[string]interface{}) {
			out = append(out, productSummary(product))
		})
	})
	return out
}

func walkLD(node interface{}, visit func(map[string]interface{})) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			walkLD(item, visit)
		}
	case map[string]interface{}:
		if hasType(v, "Product") {
			visit(v)
			return
		}
		for _, key := range []string{"@graph", "itemListElement", "item"} {
			if child, ok := v[key]; ok {
				walkLD(child, visit)
			}
		}
	}
}

func hasType(m map[string]interface{}, want string) bool {
	switch t := m["@type"].(type) {
	case string:
		return t == want
	case []interface{}:
		for _, v := range t {
			if s, ok := v.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func productSummary(p map[string]interface{}) summary {
	s := summary{
		title: ldString(p["name"]),
		link:  ldString(p["url"]),
		image: ldString(p["image"]),
	}

	offers := p["offers"]
	if list, ok := offers.([]interface{}); ok && len(list) > 0 {
		offers = list[0]
	}
	price := normalize.Negotiable()
	if offer, ok := offers.(map[string]interface{}); ok {
		if amount, ok := ldAmount(offer["price"]); ok && amount > 0 {
			price = normalize.Price{
				Amount:   amount,
				Currency: normalize.CurrencySymbol(ldString(offer["priceCurrency"])),
			}
		}
	}
	s.price = &price
	return s
}

// ldString returns a string value, or the first element of a list of strings
func ldString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		if len(t) > 0 {
			return ldString(t[0])
		}
	case map[string]interface{}:
		// ImageObject
		return ldString(t["url"])
	}
	return ""
}

// ldAmount accepts numeric prices or decimal strings such as "1500.00"
func ldAmount(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}
