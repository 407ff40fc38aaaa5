// Package detector infers a page's country from its metadata and host.
package detector

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// metaCandidate is one meta tag attribute that may carry a country.
type metaCandidate struct {
	attr  string
	value string
}

// countryMeta lists the meta tags consulted, highest priority first.
var countryMeta = []metaCandidate{
	{"name", "geo.country"},
	{"property", "og:country-name"},
	{"name", "country"},
	{"name", "dcterms.coverage"},
	{"name", "ICBM"},
	{"name", "geo.position"},
	{"name", "geo.placename"},
}

// CountryFromMeta returns the trimmed content of the first candidate meta tag
// present in doc. A tag without a content attribute does not match.
// ok is false when no candidate matched.
func CountryFromMeta(doc *goquery.Document) (country string, ok bool) {
	for _, c := range countryMeta {
		sel := doc.Find(`meta[` + c.attr + `="` + c.value + `"]`).First()
		if sel.Length() == 0 {
			continue
		}
		if content, exists := sel.Attr("content"); exists {
			return strings.TrimSpace(content), true
		}
	}
	return "", false
}

// countryTLDs maps country-code TLDs to ISO 3166 alpha-2 codes.
var countryTLDs = map[string]string{
	"uk": "GB", "de": "DE", "fr": "FR", "jp": "JP", "cn": "CN",
	"au": "AU", "ca": "CA", "in": "IN", "br": "BR", "ru": "RU",
	"it": "IT", "es": "ES", "nl": "NL", "se": "SE", "ch": "CH",
	"at": "AT", "be": "BE", "dk": "DK", "fi": "FI", "no": "NO",
	"pt": "PT", "pl": "PL", "mx": "MX", "ar": "AR", "cl": "CL",
	"nz": "NZ", "ie": "IE", "kr": "KR", "za": "ZA", "il": "IL",
}

// CountryFromHost guesses the country from the TLD of rawURL's host.
// ok is false for generic TLDs.
func CountryFromHost(rawURL string) (country string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return "", false
	}

	tld := parts[len(parts)-1]
	if country, found := countryTLDs[tld]; found {
		return country, true
	}

	// .gov, .edu and .mil are US-only
	if tld == "gov" || tld == "edu" || tld == "mil" {
		return "US", true
	}
	return "", false
}
