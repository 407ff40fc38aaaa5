package enricher

import (
	"context"

	"github.com/dtnitsch/llm-sheet-enricher/models"
)

// Processor enriches rows read from the analysis block.
type Processor struct {
	enricher *Enricher
	layout   models.Layout
}

func NewProcessor(e *Enricher, layout models.Layout) *Processor {
	return &Processor{enricher: e, layout: layout}
}

func (p *Processor) Process(ctx context.Context, row models.Row) models.Outcome {
	return p.enricher.Enrich(ctx, Input{
		Language: row.Cell(p.layout.AnalysisColumn(models.FieldLanguage)),
		Country:  row.Cell(p.layout.AnalysisColumn(models.FieldCountry)),
		Text:     row.Cell(p.layout.AnalysisColumn(models.FieldExtractedText)),
	})
}

func (p *Processor) Width() int { return len(models.EnrichmentFields) }
