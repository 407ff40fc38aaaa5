package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dtnitsch/llm-sheet-enricher/pkg/rowstore"
)

type DedupeOptions struct {
	Sheet    string
	StartRow int
	// FromCol..ToCol is the block of columns rewritten.
	FromCol int
	ToCol   int
	// KeyColumn identifies a row; rows with a blank key are dropped.
	KeyColumn int
	DryRun    bool
	Logger    *slog.Logger
}

type DedupeReport struct {
	Sheet     string `json:"sheet" yaml:"sheet"`
	RowsRead  int    `json:"rows_read" yaml:"rows_read"`
	Kept      int    `json:"kept" yaml:"kept"`
	Removed   int    `json:"removed" yaml:"removed"`
	BlankKeys int    `json:"blank_keys" yaml:"blank_keys"`
	DryRun    bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// Dedupe keeps the first row for every key and drops later duplicates and
// rows without a key. Survivors are packed upwards from StartRow and the
// rows freed at the bottom are cleared.
func Dedupe(ctx context.Context, store rowstore.Store, opts DedupeOptions) (*DedupeReport, error) {
	if opts.Sheet == "" || opts.StartRow < 1 {
		return nil, errors.New("dedupe: sheet and start row are required")
	}
	if opts.KeyColumn < opts.FromCol || opts.KeyColumn > opts.ToCol {
		return nil, fmt.Errorf("dedupe: key column %d is outside columns %d..%d", opts.KeyColumn, opts.FromCol, opts.ToCol)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	block := rowstore.Columns(opts.Sheet, opts.FromCol, opts.ToCol, opts.StartRow, 0)
	rows, err := store.GetRange(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", block, err)
	}

	report := &DedupeReport{Sheet: opts.Sheet, RowsRead: len(rows), DryRun: opts.DryRun}
	seen := make(map[string]bool)
	width := block.Width()
	var kept [][]string
	keyIndex := opts.KeyColumn - opts.FromCol
	for i, row := range rows {
		key := ""
		if keyIndex < len(row) {
			key = strings.TrimSpace(row[keyIndex])
		}
		switch {
		case key == "":
			report.BlankKeys++
			logger.Info("dropping row without key", "row", opts.StartRow+i)
		case seen[key]:
			report.Removed++
			logger.Info("duplicate found and removed", "row", opts.StartRow+i, "key", key)
		default:
			seen[key] = true
			kept = append(kept, padRow(row, width))
		}
	}
	report.Kept = len(kept)

	if opts.DryRun || len(kept) == len(rows) {
		return report, nil
	}

	if len(kept) > 0 {
		packed := rowstore.Columns(opts.Sheet, opts.FromCol, opts.ToCol, opts.StartRow, opts.StartRow+len(kept)-1)
		if err := store.UpdateRange(ctx, packed, kept); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", packed, err)
		}
	}

	tail := rowstore.Columns(opts.Sheet, opts.FromCol, opts.ToCol, opts.StartRow+len(kept), opts.StartRow+len(rows)-1)
	if err := store.ClearRange(ctx, tail); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", tail, err)
	}

	logger.Info("duplicates removed", "sheet", opts.Sheet, "kept", report.Kept, "removed", report.Removed, "blank_keys", report.BlankKeys)
	return report, nil
}

// padRow widens row with empty cells so a shorter row overwrites every
// cell of the longer one it replaces.
func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
