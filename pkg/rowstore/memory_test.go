package rowstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemory_GetRangeTrimsLikeSheets(t *testing.T) {
	m := NewMemory()
	m.SetSheet("Sheet1", [][]string{
		{"id", "url"},
		{"1", "example.com", "", ""},
		{},
		{"3", "example.org"},
		{},
	})

	rows, err := m.GetRange(context.Background(), Columns("Sheet1", 2, 2, 2, 10))
	if err != nil {
		t.Fatalf("GetRange() error = %v", err)
	}
	want := [][]string{{"example.com"}, {}, {"example.org"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("GetRange() mismatch (-want +got):\n%s", diff)
	}
}

func TestMemory_MissingSheet(t *testing.T) {
	m := NewMemory()
	_, err := m.GetRange(context.Background(), Columns("nope", 1, 1, 1, 1))
	if !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("GetRange() error = %v, want ErrSheetNotFound", err)
	}
}

func TestMemory_UpdateBatchAndClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.SetSheet("Sheet1", [][]string{{"h"}})

	if err := m.UpdateRange(ctx, Columns("Sheet1", 2, 3, 2, 3), [][]string{{"a", "b"}, {"c", "d"}}); err != nil {
		t.Fatalf("UpdateRange() error = %v", err)
	}
	if got := m.Cell("Sheet1", 3, 3); got != "d" {
		t.Errorf("Cell(C3) = %q, want d", got)
	}

	err := m.BatchUpdate(ctx, []Update{
		{Range: Columns("Sheet1", 2, 2, 2, 2), Rows: [][]string{{"x"}}},
		{Range: Columns("Sheet1", 2, 2, 5, 5), Rows: [][]string{{"y"}}},
	})
	if err != nil {
		t.Fatalf("BatchUpdate() error = %v", err)
	}
	if got := m.Cell("Sheet1", 2, 2); got != "x" {
		t.Errorf("Cell(B2) = %q, want x", got)
	}
	if got := m.Cell("Sheet1", 2, 5); got != "y" {
		t.Errorf("Cell(B5) = %q, want y", got)
	}

	if err := m.ClearRange(ctx, Columns("Sheet1", 1, 26, 2, 0)); err != nil {
		t.Fatalf("ClearRange() error = %v", err)
	}
	rows, err := m.GetRange(ctx, Columns("Sheet1", 1, 26, 1, 0))
	if err != nil {
		t.Fatalf("GetRange() error = %v", err)
	}
	if diff := cmp.Diff([][]string{{"h"}}, rows); diff != "" {
		t.Errorf("after clear (-want +got):\n%s", diff)
	}
	if m.Writes != 2 {
		t.Errorf("Writes = %d, want 2", m.Writes)
	}
}

func TestMemory_FailWrite(t *testing.T) {
	m := NewMemory()
	m.SetSheet("Sheet1", nil)
	boom := errors.New("quota exceeded")
	m.FailWrite = func([]Range) error { return boom }

	err := m.UpdateRange(context.Background(), Columns("Sheet1", 1, 1, 1, 1), [][]string{{"a"}})
	if !errors.Is(err, boom) {
		t.Errorf("UpdateRange() error = %v, want %v", err, boom)
	}
	if m.Writes != 0 {
		t.Errorf("Writes = %d, want 0", m.Writes)
	}
}

func TestMemory_Metadata(t *testing.T) {
	m := NewMemory()
	m.SetSheet("Sheet1", make([][]string, 6))
	m.SetSheet("test", make([][]string, 2))

	meta, err := m.Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if diff := cmp.Diff(map[string]int{"Sheet1": 6, "test": 2}, meta); diff != "" {
		t.Errorf("Metadata() mismatch (-want +got):\n%s", diff)
	}
}
