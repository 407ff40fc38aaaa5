package analyzer

import (
	"context"
	"log/slog"

	"github.com/dtnitsch/llm-sheet-enricher/models"
)

// ScrapeProcessor analyzes the URL of every row it is given.
type ScrapeProcessor struct {
	analyzer  *Analyzer
	urlColumn int
}

func NewScrapeProcessor(a *Analyzer, layout models.Layout) *ScrapeProcessor {
	return &ScrapeProcessor{analyzer: a, urlColumn: layout.URL}
}

func (p *ScrapeProcessor) Process(ctx context.Context, row models.Row) models.Outcome {
	return p.analyzer.Analyze(ctx, row.Cell(p.urlColumn))
}

func (p *ScrapeProcessor) Width() int { return len(models.AnalysisFields) }

// RecheckProcessor analyzes a row again only when its extracted text is
// blank, "error" or "unknown". Every other row is reported unchanged.
type RecheckProcessor struct {
	analyzer   *Analyzer
	urlColumn  int
	textColumn int
	logger     *slog.Logger
}

func NewRecheckProcessor(a *Analyzer, layout models.Layout) *RecheckProcessor {
	return &RecheckProcessor{
		analyzer:   a,
		urlColumn:  layout.URL,
		textColumn: layout.AnalysisColumn(models.FieldExtractedText),
		logger:     a.logger,
	}
}

func (p *RecheckProcessor) Process(ctx context.Context, row models.Row) models.Outcome {
	if !models.NeedsRecheck(row.Cell(p.textColumn)) {
		return models.Unchanged()
	}
	rawURL := row.Cell(p.urlColumn)
	if models.IsBlank(rawURL) {
		p.logger.Warn("row needs recheck but has no URL", "row", row.Number)
		return models.Unchanged()
	}
	return p.analyzer.Analyze(ctx, rawURL)
}

func (p *RecheckProcessor) Width() int { return len(models.AnalysisFields) }

// ReadColumns returns the column span a recheck pass must read: the URL
// column and the whole analysis block.
func ReadColumns(layout models.Layout) (from, to int) {
	from, to = layout.URL, layout.Analysis+len(models.AnalysisFields)-1
	if layout.Analysis < from {
		from = layout.Analysis
	}
	if layout.URL > to {
		to = layout.URL
	}
	return from, to
}
