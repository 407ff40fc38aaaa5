// Package rowstore abstracts a rectangular, range-addressable table of string cells.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a range names a sheet the store does not have.
var ErrSheetNotFound = errors.New("sheet not found")

// Range addresses a rectangular window of one sheet. Rows and columns are 1-based
// and inclusive. ToRow == 0 leaves the window open towards the bottom of the sheet.
type Range struct {
	Sheet   string
	FromCol int
	FromRow int
	ToCol   int
	ToRow   int
}

// Columns builds the range [fromCol..toCol] x [fromRow..toRow].
func Columns(sheet string, fromCol, toCol, fromRow, toRow int) Range {
	return Range{Sheet: sheet, FromCol: fromCol, FromRow: fromRow, ToCol: toCol, ToRow: toRow}
}

// Width is the number of columns covered.
func (r Range) Width() int {
	return r.ToCol - r.FromCol + 1
}

// Height is the number of rows covered, or -1 when the range is open-ended.
func (r Range) Height() int {
	if r.ToRow == 0 {
		return -1
	}
	return r.ToRow - r.FromRow + 1
}

// A1 renders the range in spreadsheet notation, e.g. "Sheet1!H2:J51" or "Sheet1!A2:Z".
func (r Range) A1() string {
	from, err := excelize.CoordinatesToCellName(r.FromCol, r.FromRow)
	if err != nil {
		return fmt.Sprintf("%s!<invalid %d,%d>", quoteSheet(r.Sheet), r.FromCol, r.FromRow)
	}
	var to string
	if r.ToRow == 0 {
		to, err = excelize.ColumnNumberToName(r.ToCol)
	} else {
		to, err = excelize.CoordinatesToCellName(r.ToCol, r.ToRow)
	}
	if err != nil {
		return fmt.Sprintf("%s!%s:<invalid %d,%d>", quoteSheet(r.Sheet), from, r.ToCol, r.ToRow)
	}
	return quoteSheet(r.Sheet) + "!" + from + ":" + to
}

func (r Range) String() string {
	return r.A1()
}

// Validate checks the coordinates are well formed.
func (r Range) Validate() error {
	if r.Sheet == "" {
		return errors.New("range has no sheet")
	}
	if r.FromCol < 1 || r.FromRow < 1 || r.ToCol < r.FromCol {
		return fmt.Errorf("invalid range %d,%d:%d,%d", r.FromCol, r.FromRow, r.ToCol, r.ToRow)
	}
	if r.ToRow != 0 && r.ToRow < r.FromRow {
		return fmt.Errorf("invalid range %d,%d:%d,%d", r.FromCol, r.FromRow, r.ToCol, r.ToRow)
	}
	return nil
}

func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// Update is one addressed write of a multi-range batch.
type Update struct {
	Range Range
	Rows  [][]string
}

// Store is the tabular store the batch commands read from and write to.
// A Store is bound to one spreadsheet or workbook at construction.
type Store interface {
	// GetRange returns the rows of the window. Trailing empty rows and
	// trailing empty cells of each row may be omitted.
	GetRange(ctx context.Context, rng Range) ([][]string, error)
	// UpdateRange writes rows starting at the top-left cell of rng.
	UpdateRange(ctx context.Context, rng Range, rows [][]string) error
	// BatchUpdate applies every update in a single call.
	BatchUpdate(ctx context.Context, updates []Update) error
	// ClearRange empties every cell of the window.
	ClearRange(ctx context.Context, rng Range) error
	// Metadata maps each sheet name to its row count.
	Metadata(ctx context.Context) (map[string]int, error)
	Close() error
}

// checkFits verifies rows fit inside rng.
func checkFits(rng Range, rows [][]string) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	if h := rng.Height(); h >= 0 && len(rows) > h {
		return fmt.Errorf("%d rows do not fit in %s", len(rows), rng.A1())
	}
	for i, row := range rows {
		if len(row) > rng.Width() {
			return fmt.Errorf("row %d has %d cells, %s is %d wide", i, len(row), rng.A1(), rng.Width())
		}
	}
	return nil
}
