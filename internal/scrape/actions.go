// Package scrape implements the scrape and recheck commands.
package scrape

import (
	"github.com/dtnitsch/llm-sheet-enricher/internal/common"
	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/analyzer"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/pipeline"
	"github.com/urfave/cli/v2"
)

// ScrapeAction fetches the URL of every row and writes language, country
// and text into the analysis block.
func ScrapeAction(c *cli.Context) error {
	return run(c, "scrape")
}

// RecheckAction scrapes again only the rows whose text is blank, "error"
// or "unknown", writing each of them back individually.
func RecheckAction(c *cli.Context) error {
	return run(c, "recheck")
}

func run(c *cli.Context, command string) error {
	ctx := c.Context
	setup, err := common.Prepare(ctx, c)
	if err != nil {
		return err
	}
	defer setup.Close()

	a, err := common.NewAnalyzer(setup.Config, setup.Logger)
	if err != nil {
		setup.Logger.Error("failed to build analyzer", "error", err)
		return cli.Exit(err.Error(), common.ExitFailure)
	}

	layout := setup.Layout()
	opts := setup.PipelineOptions()
	opts.WriteColumn = layout.Analysis

	var proc pipeline.RowProcessor
	switch command {
	case "recheck":
		opts.ReadFrom, opts.ReadTo = analyzer.ReadColumns(layout)
		opts.Sparse = true
		proc = analyzer.NewRecheckProcessor(a, layout)
	default:
		opts.ReadFrom, opts.ReadTo = layout.URL, layout.URL
		proc = analyzer.NewScrapeProcessor(a, layout)
	}

	setup.Logger.Info("starting pass",
		"command", command,
		"sheet", opts.Sheet,
		"start_row", opts.StartRow,
		"batch_size", opts.BatchSize,
		"width", len(models.AnalysisFields))

	return common.RunBatch(ctx, c, common.Batch{
		Command:   command,
		Config:    setup.Config,
		Store:     setup.Store,
		Ledger:    setup.Ledger,
		Options:   opts,
		Processor: proc,
		Logger:    setup.Logger,
		Resume:    c.Bool("resume"),
	})
}
