package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NFC returns s in Unicode normalization form C
func NFC(s string) string {
	return norm.NFC.String(s)
}

// CleanText collapses all whitespace runs to single spaces and normalizes to NFC.
// Used for single-line fields such as title, category and location.
func CleanText(s string) string {
	return NFC(strings.Join(strings.Fields(s), " "))
}
