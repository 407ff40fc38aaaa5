// Package analyzer turns a URL into the language, country and text of the page behind it.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/detector"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/fetcher"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/parser"
)

// Fetcher retrieves the raw body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// LanguageDetector names the language of a text, or "unknown".
type LanguageDetector interface {
	Detect(text string) string
}

type Options struct {
	MaxTextLength int
	Readability   bool
	// TLDFallback infers the country from the host when no meta tag names one.
	TLDFallback bool
	Logger      *slog.Logger
}

type Analyzer struct {
	fetcher       Fetcher
	parser        *parser.Parser
	languages     LanguageDetector
	maxTextLength int
	tldFallback   bool
	logger        *slog.Logger
}

func New(f Fetcher, languages LanguageDetector, opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{
		fetcher:       f,
		parser:        &parser.Parser{Readability: opts.Readability},
		languages:     languages,
		maxTextLength: opts.MaxTextLength,
		tldFallback:   opts.TLDFallback,
		logger:        logger,
	}
}

// Analyze fetches rawURL and returns (language, country, text) cells.
// A blank URL yields the missing-URL sentinel without any network access;
// fetch and parse failures yield the error sentinel.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) models.Outcome {
	width := len(models.AnalysisFields)
	if models.IsBlank(rawURL) {
		return models.InputMissing(append([]string(nil), models.MissingURLCells...))
	}

	target := fetcher.Normalize(rawURL)
	body, err := a.fetcher.Fetch(ctx, target)
	if err != nil {
		return models.FetchFailed(err, width)
	}

	doc, err := parser.Document(body)
	if err != nil {
		return models.FetchFailed(err, width)
	}
	text, err := a.parser.Text(target, body, doc)
	if err != nil {
		return models.FetchFailed(fmt.Errorf("failed to extract text from %s: %w", target, err), width)
	}
	text = parser.Truncate(text, a.maxTextLength)

	language := a.languages.Detect(text)

	country, ok := detector.CountryFromMeta(doc)
	if !ok && a.tldFallback {
		country, ok = detector.CountryFromHost(target)
	}
	if !ok {
		country = models.CountryUnknown
	}

	a.logger.Debug("analyzed page", "url", target, "language", language, "country", country, "chars", len(text))
	return models.OK(language, country, text)
}
