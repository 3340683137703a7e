package normalize

import (
	"regexp"
	"strings"
)

const (
	nationalPrefix     = "+389"
	nationalPrefixIntl = "00389"
	localDigits        = 9
)

var phoneSeparators = regexp.MustCompile(`[,;|\n]+`)

// NormalizePhone converts one raw phone number to "XXX XXX XXX" for domestic
// numbers, or to its whitespace-free international form for foreign numbers.
// ok is false when no canonical form can be produced.
func NormalizePhone(raw string) (string, bool) {
	s := strings.Join(strings.Fields(raw), "")
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "+") {
		s = "+" + strings.TrimLeft(s, "+")
	}

	switch {
	case strings.HasPrefix(s, nationalPrefix):
		s = s[len(nationalPrefix):]
	case strings.HasPrefix(s, nationalPrefixIntl):
		s = s[len(nationalPrefixIntl):]
	case strings.HasPrefix(s, "+"):
		// foreign numbers pass through; E.164 allows at most 15 digits
		if n := len(digitsOnly(s)); n < 7 || n > 15 {
			return "", false
		}
		return s, true
	}

	digits := digitsOnly(s)
	if len(digits) == localDigits-1 {
		digits = "0" + digits
	}
	if len(digits) != localDigits {
		return "", false
	}
	return digits[:3] + " " + digits[3:6] + " " + digits[6:], true
}

// SplitPhones splits a raw string holding several numbers. Slashes only separate
// when every part is a full number, so "078/123-456" stays one number.
func SplitPhones(raw string) []string {
	var out []string
	for _, part := range phoneSeparators.Split(raw, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			subs := strings.Split(part, "/")
			if allFullNumbers(subs) {
				out = append(out, trimAll(subs)...)
				continue
			}
		}
		out = append(out, splitConcatenated(part)...)
	}
	return out
}

// splitConcatenated separates local numbers glued together without a separator
func splitConcatenated(part string) []string {
	if strings.HasPrefix(strings.TrimSpace(part), "+") {
		return []string{part}
	}
	digits := digitsOnly(part)
	if len(digits) <= localDigits || len(digits)%localDigits != 0 {
		return []string{part}
	}
	var chunks []string
	for i := 0; i < len(digits); i += localDigits {
		chunk := digits[i : i+localDigits]
		if chunk[0] != '0' {
			return []string{part}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// PhoneSet normalizes raw phone strings into an ordered, duplicate-free set
// that never holds a blocked number.
type PhoneSet struct {
	blocked map[string]struct{}
}

// NewPhoneSet creates a PhoneSet blocking the given numbers in any formatting
func NewPhoneSet(blocklist []string) *PhoneSet {
	blocked := make(map[string]struct{}, len(blocklist))
	for _, b := range blocklist {
		if n, ok := NormalizePhone(b); ok {
			blocked[n] = struct{}{}
		} else if s := strings.Join(strings.Fields(b), ""); s != "" {
			blocked[s] = struct{}{}
		}
	}
	return &PhoneSet{blocked: blocked}
}

// Blocked reports whether the normalized number is on the block-list
func (p *PhoneSet) Blocked(normalized string) bool {
	_, ok := p.blocked[normalized]
	return ok
}

// Normalize splits, normalizes, filters and de-duplicates raw phone strings,
// keeping first-seen order.
func (p *PhoneSet) Normalize(raws ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, raw := range raws {
		for _, part := range SplitPhones(raw) {
			n, ok := NormalizePhone(part)
			if !ok || p.Blocked(n) {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

func allFullNumbers(parts []string) bool {
	for _, p := range parts {
		if len(digitsOnly(p)) < localDigits-1 {
			return false
		}
	}
	return true
}

func trimAll(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isASCIIDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
