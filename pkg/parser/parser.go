// Package parser turns fetched HTML into the plain text stored in the sheet.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// invisible elements never contribute text.
const invisible = "script,style,noscript,template,svg,iframe,head"

type Parser struct {
	// Readability extracts only the main article instead of every visible text node.
	Readability bool
}

// Document parses raw HTML into a goquery document.
func Document(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Text returns the page text of doc, separated by single spaces.
// rawURL resolves relative links for the readability extractor.
func (p *Parser) Text(rawURL string, body []byte, doc *goquery.Document) (string, error) {
	if p.Readability {
		return readableText(rawURL, body)
	}
	return VisibleText(doc), nil
}

// VisibleText joins every visible text node of doc with single spaces.
// The document is not modified.
func VisibleText(doc *goquery.Document) string {
	root := doc.Selection.Clone()
	root.Find(invisible).Remove()

	var b strings.Builder
	for _, n := range root.Nodes {
		collectText(n, &b)
	}
	return normalizeText(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteString("\n")
		return
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func readableText(rawURL string, body []byte) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return normalizeText(article.TextContent), nil
}

// normalizeText collapses every run of whitespace into a single space.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), len(input)+1)
	for scanner.Scan() {
		for _, word := range strings.Fields(scanner.Text()) {
			b.WriteString(word)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// Truncate cuts s to at most max characters (code points, not bytes).
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
