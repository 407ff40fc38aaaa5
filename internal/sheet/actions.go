// Package sheet implements maintenance commands that rewrite the sheet itself.
package sheet

import (
	"fmt"
	"time"

	"github.com/dtnitsch/llm-sheet-enricher/internal/common"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/db"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/pipeline"
	"github.com/urfave/cli/v2"
	"github.com/xuri/excelize/v2"
)

// DedupeAction drops rows whose key repeats an earlier row, and rows
// without a key, then packs the survivors back from the start row.
func DedupeAction(c *cli.Context) error {
	ctx := c.Context
	setup, err := common.Prepare(ctx, c)
	if err != nil {
		return err
	}
	defer setup.Close()
	cfg := setup.Config
	logger := setup.Logger

	opts := pipeline.DedupeOptions{
		Sheet:     cfg.Store.Sheet,
		StartRow:  cfg.Batch.StartRow,
		KeyColumn: setup.Layout().URL,
		DryRun:    c.Bool("dry-run"),
		Logger:    logger,
	}
	if opts.FromCol, err = excelize.ColumnNameToNumber(c.String("from-column")); err != nil {
		return cli.Exit(fmt.Sprintf("invalid --from-column: %v", err), common.ExitFailure)
	}
	if opts.ToCol, err = excelize.ColumnNameToNumber(c.String("to-column")); err != nil {
		return cli.Exit(fmt.Sprintf("invalid --to-column: %v", err), common.ExitFailure)
	}
	if c.IsSet("key-column") {
		if opts.KeyColumn, err = excelize.ColumnNameToNumber(c.String("key-column")); err != nil {
			return cli.Exit(fmt.Sprintf("invalid --key-column: %v", err), common.ExitFailure)
		}
	}

	var runID int64
	if setup.Ledger != nil {
		runID, err = setup.Ledger.StartRun("dedupe", cfg.Store.Backend, common.StoreLocation(cfg), opts.Sheet, opts.StartRow, 0)
		if err != nil {
			return cli.Exit(err.Error(), common.ExitFailure)
		}
	}

	startTime := time.Now()
	report, err := pipeline.Dedupe(ctx, setup.Store, opts)
	if setup.Ledger != nil {
		status, message, total := db.StatusCompleted, "", 0
		if err != nil {
			status, message = db.StatusFailed, err.Error()
		} else {
			total = report.RowsRead
		}
		if ferr := setup.Ledger.FinishRun(runID, status, total, message); ferr != nil {
			logger.Warn("failed to finish run", "error", ferr)
		}
	}
	if err != nil {
		logger.Error("dedupe failed", "error", err)
		return cli.Exit(err.Error(), common.ExitFailure)
	}

	logger.Info("dedupe finished", "duration", time.Since(startTime))
	if err := common.Render(c.App.Writer, c.String("format"), report); err != nil {
		return cli.Exit(err.Error(), common.ExitFailure)
	}
	return nil
}
