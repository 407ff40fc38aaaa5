package sheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/llm-sheet-enricher/internal/common"
	dbpkg "github.com/dtnitsch/llm-sheet-enricher/pkg/db"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/urfave/cli/v2"
	"github.com/xuri/excelize/v2"
)

var duplicatedRows = [][]string{
	{"id", "url", "note"},
	{"1", "a.com", "first"},
	{"2", "b.com", "-"},
	{"3", "a.com", "repeat"},
	{"4", "", "no url"},
	{"5", "c.com", "last"},
}

func newWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &values); err != nil {
			t.Fatalf("failed to seed workbook: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "links.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	// Cleared rows come back empty; drop them.
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func runDedupe(t *testing.T, workbook, ledger string, args ...string) (pipeline.DedupeReport, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Name:           "test",
		Writer:         &out,
		Flags:          common.GlobalFlags(),
		Commands:       []*cli.Command{{Name: "dedupe", Flags: common.DedupeFlags(), Action: DedupeAction}},
		ExitErrHandler: func(*cli.Context, error) {},
	}
	argv := []string{
		"test", "--config", "", "--backend", "xlsx", "--workbook", workbook,
		"--sheet", "Sheet1", "--ledger", ledger, "--quiet", "dedupe", "--to-column", "C",
	}
	err := app.Run(append(argv, args...))

	var report pipeline.DedupeReport
	if out.Len() > 0 {
		if jerr := json.Unmarshal(out.Bytes(), &report); jerr != nil {
			t.Fatalf("report is not JSON: %v\n%s", jerr, out.String())
		}
	}
	return report, err
}

func TestDedupeAction(t *testing.T) {
	path := newWorkbook(t, duplicatedRows)
	ledger := filepath.Join(t.TempDir(), "runs.db")

	report, err := runDedupe(t, path, ledger)
	if err != nil {
		t.Fatalf("dedupe error = %v", err)
	}
	wantReport := pipeline.DedupeReport{Sheet: "Sheet1", RowsRead: 5, Kept: 3, Removed: 1, BlankKeys: 1}
	if diff := cmp.Diff(wantReport, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	want := [][]string{
		{"id", "url", "note"},
		{"1", "a.com", "first"},
		{"2", "b.com", "-"},
		{"5", "c.com", "last"},
	}
	if diff := cmp.Diff(want, readRows(t, path)); diff != "" {
		t.Errorf("sheet mismatch (-want +got):\n%s", diff)
	}

	database, err := dbpkg.Open(ledger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer database.Close()
	runs, err := database.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Command != "dedupe" || runs[0].Status != dbpkg.StatusCompleted {
		t.Errorf("runs = %+v, want one completed dedupe run", runs)
	}
}

func TestDedupeAction_DryRun(t *testing.T) {
	path := newWorkbook(t, duplicatedRows)

	report, err := runDedupe(t, path, filepath.Join(t.TempDir(), "runs.db"), "--dry-run")
	if err != nil {
		t.Fatalf("dedupe error = %v", err)
	}
	if !report.DryRun || report.Removed != 1 || report.BlankKeys != 1 {
		t.Errorf("report = %+v, want a dry run finding 1 duplicate and 1 blank key", report)
	}
	if diff := cmp.Diff(duplicatedRows, readRows(t, path)); diff != "" {
		t.Errorf("dry run changed the sheet (-want +got):\n%s", diff)
	}
}

func TestDedupeAction_KeyColumn(t *testing.T) {
	path := newWorkbook(t, [][]string{
		{"id", "url", "note"},
		{"1", "a.com", "same"},
		{"2", "b.com", "same"},
	})

	report, err := runDedupe(t, path, filepath.Join(t.TempDir(), "runs.db"), "--key-column", "C")
	if err != nil {
		t.Fatalf("dedupe error = %v", err)
	}
	if report.Kept != 1 || report.Removed != 1 {
		t.Errorf("report = %+v, want rows keyed by column C", report)
	}
}

func TestDedupeAction_BadColumns(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad from column", []string{"--from-column", "1"}},
		{"key outside block", []string{"--key-column", "F"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := newWorkbook(t, duplicatedRows)
			_, err := runDedupe(t, path, filepath.Join(t.TempDir(), "runs.db"), tt.args...)
			var exitErr cli.ExitCoder
			if !errors.As(err, &exitErr) || exitErr.ExitCode() != common.ExitFailure {
				t.Errorf("error = %v, want exit code %d", err, common.ExitFailure)
			}
			if diff := cmp.Diff(duplicatedRows, readRows(t, path)); diff != "" {
				t.Errorf("sheet changed (-want +got):\n%s", diff)
			}
		})
	}
}
