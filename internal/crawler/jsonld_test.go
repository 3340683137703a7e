package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milos55/reklamiworker/internal/normalize"
)

func TestJSONLDSummaries(t *testing.T) {
	html := `<script type="application/ld+json">
	[{"@type":"Organization","name":"Pazar3"},
	 {"@graph":[{"@type":["Product","Thing"],"name":"Фрижидер","url":"https://www.pazar3.mk/oglas/5",
	   "image":{"@type":"ImageObject","url":"https://media.pazar3.mk/5.jpg"},
	   "offers":[{"price":250,"priceCurrency":"EUR"}]}]}]
	</script>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	got := jsonLDSummaries(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "Фрижидер", got[0].title)
	assert.Equal(t, "https://www.pazar3.mk/oglas/5", got[0].link)
	assert.Equal(t, "https://media.pazar3.mk/5.jpg", got[0].image)
	require.NotNil(t, got[0].price)
	assert.Equal(t, normalize.Price{Amount: 250, Currency: "€"}, *got[0].price)
}

func TestLDAmount(t *testing.T) {
	n, ok := ldAmount("1500.00")
	assert.True(t, ok)
	assert.Equal(t, int64(1500), n)

	n, ok = ldAmount(float64(99))
	assert.True(t, ok)
	assert.Equal(t, int64(99), n)

	_, ok = ldAmount("по договор")
	assert.False(t, ok)

	_, ok = ldAmount(nil)
	assert.False(t, ok)
}
