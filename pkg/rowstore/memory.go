package rowstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store. Reads trim trailing empty cells and rows
// the way the Sheets API does, so processors see the same shapes.
type Memory struct {
	mu     sync.Mutex
	sheets map[string][][]string

	// FailWrite, when set, is called before every UpdateRange and BatchUpdate;
	// a non-nil error aborts the write.
	FailWrite func(rngs []Range) error

	Reads  int
	Writes int
}

func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][][]string)}
}

// SetSheet replaces the content of a sheet. rows[0] is sheet row 1.
func (m *Memory) SetSheet(name string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[name] = cloneRows(rows)
}

// Sheet returns a copy of a sheet's content.
func (m *Memory) Sheet(name string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.sheets[name])
}

// Cell returns the value at the 1-based coordinates.
func (m *Memory) Cell(sheet string, col, row int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.sheets[sheet]
	if row < 1 || row > len(rows) || col < 1 || col > len(rows[row-1]) {
		return ""
	}
	return rows[row-1][col-1]
}

func (m *Memory) GetRange(_ context.Context, rng Range) ([][]string, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++

	rows, ok := m.sheets[rng.Sheet]
	if !ok {
		return nil, fmt.Errorf("%s: %w", rng.Sheet, ErrSheetNotFound)
	}

	last := len(rows)
	if rng.ToRow != 0 && rng.ToRow < last {
		last = rng.ToRow
	}
	var out [][]string
	for r := rng.FromRow; r <= last; r++ {
		src := rows[r-1]
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

func (m *Memory) UpdateRange(_ context.Context, rng Range, rows [][]string) error {
	if err := checkFits(rng, rows); err != nil {
		return err
	}
	if m.FailWrite != nil {
		if err := m.FailWrite([]Range{rng}); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sheets[rng.Sheet]; !ok {
		return fmt.Errorf("%s: %w", rng.Sheet, ErrSheetNotFound)
	}
	m.Writes++
	m.write(rng, rows)
	return nil
}

func (m *Memory) BatchUpdate(_ context.Context, updates []Update) error {
	rngs := make([]Range, 0, len(updates))
	for _, u := range updates {
		if err := checkFits(u.Range, u.Rows); err != nil {
			return err
		}
		rngs = append(rngs, u.Range)
	}
	if m.FailWrite != nil {
		if err := m.FailWrite(rngs); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		if _, ok := m.sheets[u.Range.Sheet]; !ok {
			return fmt.Errorf("%s: %w", u.Range.Sheet, ErrSheetNotFound)
		}
	}
	m.Writes++
	for _, u := range updates {
		m.write(u.Range, u.Rows)
	}
	return nil
}

func (m *Memory) ClearRange(_ context.Context, rng Range) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[rng.Sheet]
	if !ok {
		return fmt.Errorf("%s: %w", rng.Sheet, ErrSheetNotFound)
	}
	last := len(rows)
	if rng.ToRow != 0 && rng.ToRow < last {
		last = rng.ToRow
	}
	for r := rng.FromRow; r <= last; r++ {
		for c := rng.FromCol; c <= rng.ToCol && c <= len(rows[r-1]); c++ {
			rows[r-1][c-1] = ""
		}
	}
	return nil
}

func (m *Memory) Metadata(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta := make(map[string]int, len(m.sheets))
	for name, rows := range m.sheets {
		meta[name] = len(rows)
	}
	return meta, nil
}

func (m *Memory) Close() error {
	return nil
}

// write must be called with m.mu held.
func (m *Memory) write(rng Range, rows [][]string) {
	grid := m.sheets[rng.Sheet]
	for i, row := range rows {
		r := rng.FromRow + i
		for len(grid) < r {
			grid = append(grid, nil)
		}
		for j, v := range row {
			c := rng.FromCol + j
			for len(grid[r-1]) < c {
				grid[r-1] = append(grid[r-1], "")
			}
			grid[r-1][c-1] = v
		}
	}
	m.sheets[rng.Sheet] = grid
}

func trimRight(cells []string) []string {
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if cells == nil {
		return []string{}
	}
	return cells
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
