package rowstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Workbook is a Store over a local .xlsx file. Every write is saved to disk
// before returning, so a crash loses at most the write in flight.
type Workbook struct {
	mu   sync.Mutex
	f    *excelize.File
	path string
}

// OpenWorkbook opens an existing workbook.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

func (w *Workbook) hasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (w *Workbook) GetRange(_ context.Context, rng Range) ([][]string, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheet(rng.Sheet) {
		return nil, fmt.Errorf("%s: %w", rng.Sheet, ErrSheetNotFound)
	}
	all, err := w.f.GetRows(rng.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng.A1(), err)
	}

	last := len(all)
	if rng.ToRow != 0 && rng.ToRow < last {
		last = rng.ToRow
	}
	var out [][]string
	for r := rng.FromRow; r <= last; r++ {
		src := all[r-1]
		var cells []string
		for c := rng.FromCol; c <= rng.ToCol && c <= len(src); c++ {
			cells = append(cells, src[c-1])
		}
		out = append(out, trimRight(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (w *Workbook) UpdateRange(_ context.Context, rng Range, rows [][]string) error {
	if err := checkFits(rng, rows); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.apply([]Update{{Range: rng, Rows: rows}})
}

func (w *Workbook) BatchUpdate(_ context.Context, updates []Update) error {
	for _, u := range updates {
		if err := checkFits(u.Range, u.Rows); err != nil {
			return err
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.apply(updates)
}

// apply writes every update and saves, or leaves the workbook as it was on
// disk. Must be called with w.mu held.
func (w *Workbook) apply(updates []Update) error {
	for _, u := range updates {
		if !w.hasSheet(u.Range.Sheet) {
			return fmt.Errorf("%s: %w", u.Range.Sheet, ErrSheetNotFound)
		}
	}
	for _, u := range updates {
		if err := w.write(u.Range, u.Rows); err != nil {
			return w.discard(err)
		}
	}
	if err := w.save(); err != nil {
		return w.discard(err)
	}
	return nil
}

// discard drops unsaved changes by reopening the file and returns cause.
func (w *Workbook) discard(cause error) error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("%w (and failed to reload workbook: %v)", cause, err)
	}
	_ = w.f.Close()
	w.f = f
	return cause
}

func (w *Workbook) ClearRange(_ context.Context, rng Range) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheet(rng.Sheet) {
		return fmt.Errorf("%s: %w", rng.Sheet, ErrSheetNotFound)
	}
	last := rng.ToRow
	if last == 0 {
		all, err := w.f.GetRows(rng.Sheet)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rng.Sheet, err)
		}
		last = len(all)
	}
	for r := rng.FromRow; r <= last; r++ {
		for c := rng.FromCol; c <= rng.ToCol; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := w.f.SetCellStr(rng.Sheet, cell, ""); err != nil {
				return w.discard(fmt.Errorf("failed to clear %s: %w", cell, err))
			}
		}
	}
	if err := w.save(); err != nil {
		return w.discard(err)
	}
	return nil
}

func (w *Workbook) Metadata(_ context.Context) (map[string]int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	meta := make(map[string]int)
	for _, name := range w.f.GetSheetList() {
		rows, err := w.f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		meta[name] = len(rows)
	}
	return meta, nil
}

func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// write must be called with w.mu held.
func (w *Workbook) write(rng Range, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(rng.FromCol, rng.FromRow+i)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := w.f.SetSheetRow(rng.Sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s: %w", cell, err)
		}
	}
	return nil
}

func (w *Workbook) save() error {
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}
