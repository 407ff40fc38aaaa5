package models

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Field names one derived output column.
type Field int

const (
	FieldLanguage Field = iota
	FieldCountry
	FieldExtractedText
	FieldSummary
	FieldAssignedTags
	FieldTagJustifications
	FieldSuggestedTags
)

var fieldNames = map[Field]string{
	FieldLanguage:          "language",
	FieldCountry:           "country",
	FieldExtractedText:     "extracted_text",
	FieldSummary:           "summary",
	FieldAssignedTags:      "assigned_tags",
	FieldTagJustifications: "tag_justifications",
	FieldSuggestedTags:     "suggested_tags",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// AnalysisFields is the block written by the scrape passes, left to right from the analysis column.
var AnalysisFields = []Field{FieldLanguage, FieldCountry, FieldExtractedText}

// EnrichmentFields is the block written by the enrich pass, left to right from the enrichment column.
// Language and country are repeated here because enrichment may correct them.
var EnrichmentFields = []Field{
	FieldLanguage,
	FieldCountry,
	FieldSummary,
	FieldAssignedTags,
	FieldTagJustifications,
	FieldSuggestedTags,
}

// Layout resolves the column letters of LayoutConfig into 1-based column numbers.
type Layout struct {
	URL        int
	Analysis   int
	Enrichment int
}

func NewLayout(cfg LayoutConfig) (Layout, error) {
	var l Layout
	var err error
	if l.URL, err = columnNumber("layout.url_column", cfg.URLColumn); err != nil {
		return Layout{}, err
	}
	if l.Analysis, err = columnNumber("layout.analysis_column", cfg.AnalysisColumn); err != nil {
		return Layout{}, err
	}
	if l.Enrichment, err = columnNumber("layout.enrichment_column", cfg.EnrichmentColumn); err != nil {
		return Layout{}, err
	}

	analysisEnd := l.Analysis + len(AnalysisFields) - 1
	if l.URL >= l.Analysis && l.URL <= analysisEnd {
		return Layout{}, fmt.Errorf("url column %s overlaps the analysis block", cfg.URLColumn)
	}
	enrichmentEnd := l.Enrichment + len(EnrichmentFields) - 1
	if l.Enrichment <= analysisEnd && enrichmentEnd >= l.Analysis {
		return Layout{}, fmt.Errorf("enrichment block at %s overlaps the analysis block at %s",
			cfg.EnrichmentColumn, cfg.AnalysisColumn)
	}
	return l, nil
}

// AnalysisColumn returns the column holding f inside the analysis block.
func (l Layout) AnalysisColumn(f Field) int {
	return l.Analysis + indexOf(AnalysisFields, f)
}

// EnrichmentColumn returns the column holding f inside the enrichment block.
func (l Layout) EnrichmentColumn(f Field) int {
	return l.Enrichment + indexOf(EnrichmentFields, f)
}

func indexOf(fields []Field, f Field) int {
	for i, candidate := range fields {
		if candidate == f {
			return i
		}
	}
	panic(fmt.Sprintf("models: %s is not part of this block", f))
}

func columnNumber(key, letters string) (int, error) {
	letters = strings.TrimSpace(letters)
	if letters == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := excelize.ColumnNameToNumber(letters)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
