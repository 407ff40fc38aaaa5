// Package enrich implements the enrich command.
package enrich

import (
	"github.com/dtnitsch/llm-sheet-enricher/internal/common"
	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/enricher"
	"github.com/urfave/cli/v2"
)

// EnrichAction reads the analysis block of every row and writes summary,
// tags and corrected language and country into the enrichment block.
func EnrichAction(c *cli.Context) error {
	ctx := c.Context
	setup, err := common.Prepare(ctx, c)
	if err != nil {
		return err
	}
	defer setup.Close()

	e, err := common.NewEnricher(setup.Config, setup.Logger)
	if err != nil {
		setup.Logger.Error("failed to build enricher", "error", err)
		return cli.Exit(err.Error(), common.ExitFailure)
	}

	layout := setup.Layout()
	opts := setup.PipelineOptions()
	opts.ReadFrom = layout.Analysis
	opts.ReadTo = layout.Analysis + len(models.AnalysisFields) - 1
	opts.WriteColumn = layout.Enrichment
	// The enricher paces its own calls.
	opts.RowDelay = 0

	setup.Logger.Info("starting pass",
		"command", "enrich",
		"sheet", opts.Sheet,
		"start_row", opts.StartRow,
		"batch_size", opts.BatchSize,
		"provider", setup.Config.Completion.Provider,
		"model", setup.Config.Completion.Model)

	return common.RunBatch(ctx, c, common.Batch{
		Command:   "enrich",
		Config:    setup.Config,
		Store:     setup.Store,
		Ledger:    setup.Ledger,
		Options:   opts,
		Processor: enricher.NewProcessor(e, layout),
		Logger:    setup.Logger,
		Resume:    c.Bool("resume"),
	})
}
