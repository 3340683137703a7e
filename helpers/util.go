package helpers

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var styleURLRegex = regexp.MustCompile(`url\((?:['"]?)(.*?)(?:['"]?)\)`)

// GetSplitPart returns the index-th part of target split by separate
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// ResolveURL makes href absolute against base. Protocol-relative links get https.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// IsAbsoluteURL reports whether s parses as an http(s) URL with a host
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ExtractURLFromStyle pulls the url(...) target out of an inline CSS style
func ExtractURLFromStyle(style string) string {
	match := styleURLRegex.FindStringSubmatch(style)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// Host returns the host part of rawURL, or "" if it does not parse
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
