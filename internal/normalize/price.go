package normalize

import (
	"strconv"
	"strings"
)

// ThousandsSeparator is the digit-group separator used by the Macedonian sites
const ThousandsSeparator = '.'

// Price is a split price string. A negotiable price has no amount and no currency.
type Price struct {
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Negotiable bool   `json:"negotiable"`
}

// Negotiable returns the "price by agreement" sentinel
func Negotiable() Price {
	return Price{Negotiable: true}
}

// currencySymbols maps upper-cased currency tokens (trailing dots removed) to canonical symbols
var currencySymbols = map[string]string{
	"ЕУР":  "€",
	"ЕВРА": "€",
	"ЕВРО": "€",
	"EUR":  "€",
	"€":    "€",
	"ДЕН":  "МКД",
	"МКД":  "МКД",
	"MKD":  "МКД",
	"DEN":  "МКД",
	"USD":  "$",
	"$":    "$",
}

// SplitPrice splits a raw price such as "12.500ЕУР" into amount and currency.
// Input without a leading number collapses to the negotiable sentinel.
func SplitPrice(raw string) Price {
	compact := strings.Join(strings.Fields(raw), "")

	pos := len(compact)
	for i, r := range compact {
		if !isASCIIDigit(r) && r != ThousandsSeparator {
			pos = i
			break
		}
	}

	digits := strings.ReplaceAll(compact[:pos], string(ThousandsSeparator), "")
	if digits == "" {
		return Negotiable()
	}
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Negotiable()
	}

	rest := skipDecimals(compact[pos:])
	return Price{Amount: amount, Currency: CurrencySymbol(rest)}
}

// CurrencySymbol maps a known currency token to its canonical symbol.
// Unknown tokens are returned unchanged.
func CurrencySymbol(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	key := strings.TrimRight(strings.ToUpper(token), ".")
	if symbol, ok := currencySymbols[key]; ok {
		return symbol
	}
	return token
}

// skipDecimals drops a ",dd" decimal part or a ",-" no-cents dash left in
// front of the currency token
func skipDecimals(s string) string {
	if !strings.HasPrefix(s, ",") {
		return s
	}
	i := 1
	for i < len(s) && isASCIIDigit(rune(s[i])) {
		i++
	}
	for i < len(s) && s[i] == '-' {
		i++
	}
	if i == 1 {
		return s
	}
	return s[i:]
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
