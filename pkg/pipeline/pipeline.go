// Package pipeline walks a sheet in fixed-size row windows, runs every row
// through a RowProcessor and writes each window's results back in one call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/rowstore"
)

// RowProcessor derives the output cells of one row.
type RowProcessor interface {
	// Process never fails: failures come back as an Outcome kind with
	// sentinel cells.
	Process(ctx context.Context, row models.Row) models.Outcome
	// Width is the number of cells every non-unchanged Outcome carries.
	Width() int
}

type Options struct {
	Sheet     string
	StartRow  int
	BatchSize int
	// ReadFrom and ReadTo are the columns handed to the processor for each row.
	ReadFrom int
	ReadTo   int
	// WriteColumn is the first column of the output block.
	WriteColumn int
	// Sparse writes every changed row as its own range of one batched update.
	Sparse     bool
	BatchDelay time.Duration
	// RowDelay pauses after every row that reached out to a remote service.
	RowDelay time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
	// OnWindow is called as soon as a window is done, before the batch delay.
	OnWindow func(WindowStatus)
	Logger   *slog.Logger
}

func (o *Options) validate() error {
	if o.Sheet == "" {
		return errors.New("pipeline: sheet is required")
	}
	if o.StartRow < 1 || o.BatchSize < 1 {
		return fmt.Errorf("pipeline: start row %d and batch size %d must be >= 1", o.StartRow, o.BatchSize)
	}
	if o.ReadFrom < 1 || o.ReadTo < o.ReadFrom || o.WriteColumn < 1 {
		return fmt.Errorf("pipeline: invalid columns read %d..%d, write %d", o.ReadFrom, o.ReadTo, o.WriteColumn)
	}
	if o.Sleep == nil {
		o.Sleep = Sleep
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

// Run processes rows StartRow..N of the sheet, where N is the sheet's row
// count, one window at a time. A missing sheet is not an error: nothing is
// processed and the report says so. Read and write failures are recorded on
// their window and the run moves on to the next one.
func Run(ctx context.Context, store rowstore.Store, opts Options, proc RowProcessor) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	meta, err := store.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read table metadata: %w", err)
	}

	report := &Report{Sheet: opts.Sheet, StartRow: opts.StartRow, BatchSize: opts.BatchSize}
	total, ok := meta[opts.Sheet]
	if !ok {
		logger.Warn("sheet not found, nothing to process", "sheet", opts.Sheet)
		report.SheetMissing = true
		report.TotalRows = opts.StartRow - 1
		return report, nil
	}
	report.TotalRows = total

	index := 0
	for start := opts.StartRow; start <= total; start += opts.BatchSize {
		if index > 0 {
			if err := opts.Sleep(ctx, opts.BatchDelay); err != nil {
				return report, err
			}
		}
		end := min(start+opts.BatchSize-1, total)

		status := runWindow(ctx, store, opts, proc, index, start, end)
		report.Windows = append(report.Windows, status)
		if opts.OnWindow != nil {
			opts.OnWindow(status)
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		index++
	}

	logger.Info("run complete",
		"sheet", opts.Sheet,
		"windows", len(report.Windows),
		"failed_windows", report.FailedWindows())
	return report, nil
}

func runWindow(ctx context.Context, store rowstore.Store, opts Options, proc RowProcessor, index, start, end int) WindowStatus {
	logger := opts.Logger.With("window", index, "start", start, "end", end)
	status := WindowStatus{Index: index, Start: start, End: end, Outcomes: make(map[string]int)}

	readRange := rowstore.Columns(opts.Sheet, opts.ReadFrom, opts.ReadTo, start, end)
	rows, err := store.GetRange(ctx, readRange)
	if err != nil {
		status.fail(fmt.Errorf("failed to read %s: %w", readRange, err))
		logger.Error("window failed to read", "error", err)
		return status
	}
	status.RowsRead = len(rows)
	if len(rows) == 0 {
		logger.Info("no data found in window")
		return status
	}

	outcomes := make([]models.Outcome, 0, len(rows))
	for i, cells := range rows {
		if err := ctx.Err(); err != nil {
			status.fail(err)
			logger.Warn("window interrupted, nothing written", "error", err)
			return status
		}

		row := models.Row{Number: start + i, FirstColumn: opts.ReadFrom, Cells: cells}
		outcome := checkWidth(proc.Process(ctx, row), proc.Width())
		logOutcome(logger, row.Number, outcome)
		status.Outcomes[outcome.Kind.String()]++
		outcomes = append(outcomes, outcome)

		if opts.RowDelay > 0 && calledOut(outcome) && i < len(rows)-1 {
			if err := opts.Sleep(ctx, opts.RowDelay); err != nil {
				status.fail(err)
				return status
			}
		}
	}

	updates := buildUpdates(opts, start, proc.Width(), outcomes)
	if len(updates) == 0 {
		logger.Info("no rows to write in window")
		return status
	}

	if err := write(ctx, store, opts.Sparse, updates); err != nil {
		status.fail(fmt.Errorf("failed to write window %d (rows %d-%d): %w", index, start, end, err))
		logger.Error("window failed to write", "error", err)
		return status
	}
	for _, u := range updates {
		status.RowsWritten += len(u.Rows)
	}
	logger.Info("window processed", "rows_written", status.RowsWritten)
	return status
}

// checkWidth turns an outcome of the wrong shape into a failed row so a
// row is never written partially.
func checkWidth(o models.Outcome, width int) models.Outcome {
	if o.Kind == models.OutcomeUnchanged || len(o.Cells) == width {
		return o
	}
	return models.ServiceFailed(fmt.Errorf("processor returned %d cells, want %d", len(o.Cells), width), width)
}

// calledOut reports whether producing o involved a fetch or a completion.
func calledOut(o models.Outcome) bool {
	switch o.Kind {
	case models.OutcomeOK, models.OutcomeFetchFailed, models.OutcomeServiceFailed:
		return true
	}
	return false
}

func logOutcome(logger *slog.Logger, rowNumber int, o models.Outcome) {
	switch o.Kind {
	case models.OutcomeOK:
		logger.Info("processed row", "row", rowNumber)
	case models.OutcomeInputMissing:
		logger.Warn("row has no input", "row", rowNumber)
	case models.OutcomeSkipped:
		logger.Info("skipping row with unusable text", "row", rowNumber)
	case models.OutcomeUnchanged:
		logger.Debug("row left unchanged", "row", rowNumber)
	default:
		logger.Error("row failed", "row", rowNumber, "outcome", o.Kind.String(), "error", o.Cause)
	}
}

// buildUpdates lays the changed rows out as ranges starting at WriteColumn.
// Sparse mode gives every row its own range; otherwise consecutive rows
// share one.
func buildUpdates(opts Options, start, width int, outcomes []models.Outcome) []rowstore.Update {
	var updates []rowstore.Update
	var current *rowstore.Update
	for i, o := range outcomes {
		if o.Kind == models.OutcomeUnchanged {
			current = nil
			continue
		}
		rowNumber := start + i
		if current == nil || opts.Sparse {
			updates = append(updates, rowstore.Update{
				Range: rowstore.Columns(opts.Sheet, opts.WriteColumn, opts.WriteColumn+width-1, rowNumber, rowNumber),
			})
			current = &updates[len(updates)-1]
		}
		current.Range.ToRow = rowNumber
		current.Rows = append(current.Rows, o.Cells)
	}
	return updates
}

// write issues exactly one store call for the window.
func write(ctx context.Context, store rowstore.Store, sparse bool, updates []rowstore.Update) error {
	if !sparse && len(updates) == 1 {
		return store.UpdateRange(ctx, updates[0].Range, updates[0].Rows)
	}
	return store.BatchUpdate(ctx, updates)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
