package detector

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/pemistahl/lingua-go"
)

// Language identifies the language of a text as a lowercase ISO 639-1 code.
type Language struct {
	detector lingua.LanguageDetector
}

// NewLanguage builds a detector restricted to the given ISO 639-1 codes.
// An empty list considers every language lingua supports.
func NewLanguage(codes []string) (*Language, error) {
	builder := lingua.NewLanguageDetectorBuilder()
	if len(codes) == 0 {
		return &Language{detector: builder.FromAllLanguages().Build()}, nil
	}

	langs, err := languagesFor(codes)
	if err != nil {
		return nil, err
	}
	if len(langs) < 2 {
		return nil, fmt.Errorf("language detection needs at least 2 languages, got %d", len(langs))
	}
	return &Language{detector: builder.FromLanguages(langs...).Build()}, nil
}

func languagesFor(codes []string) ([]lingua.Language, error) {
	byCode := make(map[string]lingua.Language)
	for _, lang := range lingua.AllLanguages() {
		byCode[strings.ToLower(lang.IsoCode639_1().String())] = lang
	}

	seen := make(map[lingua.Language]bool)
	var langs []lingua.Language
	for _, code := range codes {
		lang, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			return nil, fmt.Errorf("unsupported language code %q", code)
		}
		if !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs, nil
}

// Detect returns the language code of text, or "unknown" when text is blank
// or no language can be told apart.
func (l *Language) Detect(text string) string {
	if models.IsBlank(text) {
		return models.LanguageUnknown
	}
	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return models.LanguageUnknown
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
