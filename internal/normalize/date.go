package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Relative markers used by the sites instead of a day
const (
	TodayMarker     = "Денес"
	YesterdayMarker = "Вчера"
)

// DateLayout is the explicit dd.mm.yyyy shape
const DateLayout = "2.1.2006"

var numericDate = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}\.?$`)

// months is keyed by the first three lower-case letters of the month name
var months = map[string]time.Month{
	"јан": time.January,
	"фев": time.February,
	"мар": time.March,
	"апр": time.April,
	"мај": time.May,
	"јун": time.June,
	"јул": time.July,
	"авг": time.August,
	"сеп": time.September,
	"окт": time.October,
	"ное": time.November,
	"нов": time.November,
	"дек": time.December,
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"maj": time.May,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"avg": time.August,
	"aug": time.August,
	"sep": time.September,
	"okt": time.October,
	"oct": time.October,
	"noe": time.November,
	"nov": time.November,
	"dek": time.December,
	"dec": time.December,
}

// ParseDate converts a raw site date into a calendar date at midnight in now's
// location. Accepted shapes are "dd.mm.yyyy[ HH:MM]", "<month> <day> <year>",
// "<day> <month> <year>" and the relative markers. ok is false otherwise.
func ParseDate(raw string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return time.Time{}, false
	}

	for _, f := range fields {
		switch token := trimPunct(f); {
		case strings.EqualFold(token, TodayMarker):
			return midnight(now), true
		case strings.EqualFold(token, YesterdayMarker):
			return midnight(now).AddDate(0, 0, -1), true
		}
	}

	first := strings.TrimRight(fields[0], ",;")
	if numericDate.MatchString(first) {
		t, err := time.ParseInLocation(DateLayout, strings.TrimSuffix(first, "."), now.Location())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	if len(fields) < 3 {
		return time.Time{}, false
	}
	if m, ok := lookupMonth(fields[0]); ok {
		return buildDate(fields[1], m, fields[2], now.Location())
	}
	if m, ok := lookupMonth(fields[1]); ok {
		return buildDate(fields[0], m, fields[2], now.Location())
	}
	return time.Time{}, false
}

// lookupMonth matches a localized month name or abbreviation, ignoring case and trailing punctuation
func lookupMonth(token string) (time.Month, bool) {
	runes := []rune(strings.ToLower(trimPunct(token)))
	if len(runes) < 3 {
		return 0, false
	}
	m, ok := months[string(runes[:3])]
	return m, ok
}

func buildDate(dayRaw string, month time.Month, yearRaw string, loc *time.Location) (time.Time, bool) {
	day, err := strconv.Atoi(trimPunct(dayRaw))
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(trimPunct(yearRaw))
	if err != nil || year < 1000 || year > 9999 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow, e.g. 31 February
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, unicode.IsPunct)
}
