package fetch

import "net/http"

// Profile is the fixed set of browser-like headers sent with every request
type Profile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Referer        string
}

const defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

var (
	// CrawlerProfile presents the client as a search engine crawler
	CrawlerProfile = Profile{
		UserAgent:      "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		Accept:         defaultAccept,
		AcceptLanguage: "en-US,en;q=0.9",
		Referer:        "https://www.google.com/",
	}

	// BrowserProfile presents the client as desktop Chrome arriving from another classifieds site
	BrowserProfile = Profile{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		Accept:         defaultAccept,
		AcceptLanguage: "en-US,en;q=0.9",
		Referer:        "https://www.pazar3.mk/",
	}
)

func (p Profile) apply(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", p.Accept)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	if p.Referer != "" {
		req.Header.Set("Referer", p.Referer)
	}
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "no-cache")
}
