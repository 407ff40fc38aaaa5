package fetcher

import (
	"net/url"
	"regexp"
	"strings"
)

var markdownLinkPattern = regexp.MustCompile(`^\[[^\]]*\]\((https?://.+)\)$`)

// CleanURL trims surrounding whitespace and unwraps a markdown [text](url)
// link. Anything else in the cell is part of the URL and is kept as is.
func CleanURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = strings.TrimSpace(matches[1])
	}
	return cleaned
}

// Normalize cleans rawURL and prefixes http:// when it has no scheme,
// so "example.com/page" becomes "http://example.com/page".
func Normalize(rawURL string) string {
	cleaned := CleanURL(rawURL)
	if cleaned == "" {
		return ""
	}
	parsed, err := url.Parse(cleaned)
	if err != nil || parsed.Scheme == "" || !strings.Contains(cleaned, "://") {
		return "http://" + cleaned
	}
	return cleaned
}
