package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Price
	}{
		{"euro with separator", "12.500ЕУР", Price{Amount: 12500, Currency: "€"}},
		{"denars with dot", "1.200 Ден.", Price{Amount: 1200, Currency: "МКД"}},
		{"whitespace and newlines", "\r\n  3 500\n ЕУР ", Price{Amount: 3500, Currency: "€"}},
		{"latin code", "700EUR", Price{Amount: 700, Currency: "€"}},
		{"dollar", "50$", Price{Amount: 50, Currency: "$"}},
		{"decimal part dropped", "1.500,00 ден", Price{Amount: 1500, Currency: "МКД"}},
		{"no cents dash", "12.500,-ЕУР", Price{Amount: 12500, Currency: "€"}},
		{"decimals and dash", "1.500,00- ден", Price{Amount: 1500, Currency: "МКД"}},
		{"no currency", "900", Price{Amount: 900}},
		{"unknown token kept", "40ГБП", Price{Amount: 40, Currency: "ГБП"}},
		{"by agreement", "По Договор", Negotiable()},
		{"empty", "", Negotiable()},
		{"currency before digits", "€ 150", Negotiable()},
		{"overflow", "99999999999999999999999ЕУР", Negotiable()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPrice(tt.raw))
		})
	}
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "€", CurrencySymbol("еур"))
	assert.Equal(t, "МКД", CurrencySymbol("ДЕН."))
	assert.Equal(t, "", CurrencySymbol("  "))
	assert.Equal(t, "CHF", CurrencySymbol("CHF"))
}

func TestNegotiableHasNoCurrency(t *testing.T) {
	p := SplitPrice("Цена по договор")
	assert.True(t, p.Negotiable)
	assert.Zero(t, p.Amount)
	assert.Empty(t, p.Currency)
}
