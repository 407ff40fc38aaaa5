package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/rowstore"
	"github.com/google/go-cmp/cmp"
)

// echoProcessor writes (en, US, "text:"+url) for every row.
type echoProcessor struct {
	unchanged map[int]bool
	width     int
	seen      []int
}

func (p *echoProcessor) Process(_ context.Context, row models.Row) models.Outcome {
	p.seen = append(p.seen, row.Number)
	if p.unchanged[row.Number] {
		return models.Unchanged()
	}
	url := row.Cell(2)
	if models.IsBlank(url) {
		return models.InputMissing([]string{"No Language", "No Country", "No Text"})
	}
	if p.width != 0 {
		return models.OK("too", "short")
	}
	return models.OK("en", "US", "text:"+url)
}

func (p *echoProcessor) Width() int { return 3 }

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func fiveRowSheet() [][]string {
	return [][]string{
		{"id", "url"},
		{"1", "https://a.example"},
		{"2", "https://b.example"},
		{"3", "https://c.example"},
		{"4", "https://d.example"},
		{"5", "https://e.example"},
	}
}

func testOptions(sleep *sleepRecorder) Options {
	return Options{
		Sheet:       "Sheet1",
		StartRow:    2,
		BatchSize:   2,
		ReadFrom:    2,
		ReadTo:      2,
		WriteColumn: 8,
		BatchDelay:  5 * time.Second,
		Sleep:       sleep.Sleep,
	}
}

func TestRun_WindowsAndWriteFailureIsolation(t *testing.T) {
	store := rowstore.NewMemory()
	store.SetSheet("Sheet1", fiveRowSheet())
	store.FailWrite = func(rngs []rowstore.Range) error {
		if rngs[0].FromRow == 4 {
			return errors.New("quota exceeded")
		}
		return nil
	}

	sleep := &sleepRecorder{}
	opts := testOptions(sleep)
	var notified []int
	opts.OnWindow = func(w WindowStatus) { notified = append(notified, w.Index) }

	proc := &echoProcessor{}
	report, err := Run(context.Background(), store, opts, proc)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	type bounds struct{ Start, End int }
	var got []bounds
	for _, w := range report.Windows {
		got = append(got, bounds{w.Start, w.End})
	}
	want := []bounds{{2, 3}, {4, 5}, {6, 6}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}

	if report.Windows[0].Failed() || !report.Windows[1].Failed() || report.Windows[2].Failed() {
		t.Errorf("only window 1 should fail: %+v", report.Windows)
	}
	if report.FailedWindows() != 1 {
		t.Errorf("FailedWindows() = %d, want 1", report.FailedWindows())
	}
	if report.Windows[2].RowsWritten != 1 {
		t.Errorf("window 2 RowsWritten = %d, want 1", report.Windows[2].RowsWritten)
	}
	if diff := cmp.Diff([]int{2, 3, 4, 5, 6}, proc.seen); diff != "" {
		t.Errorf("processed rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, notified); diff != "" {
		t.Errorf("OnWindow calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{5 * time.Second, 5 * time.Second}, sleep.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}

	for _, tc := range []struct {
		row  int
		want string
	}{
		{2, "text:https://a.example"},
		{3, "text:https://b.example"},
		{4, ""},
		{5, ""},
		{6, "text:https://e.example"},
	} {
		if got := store.Cell("Sheet1", 10, tc.row); got != tc.want {
			t.Errorf("J%d = %q, want %q", tc.row, got, tc.want)
		}
	}
	if got := store.Cell("Sheet1", 8, 2); got != "en" {
		t.Errorf("H2 = %q, want en", got)
	}
	if report.LastWrittenRow() != 6 {
		t.Errorf("LastWrittenRow() = %d, want 6", report.LastWrittenRow())
	}
	if diff := cmp.Diff(map[string]int{"ok": 5}, report.Outcomes()); diff != "" {
		t.Errorf("Outcomes() mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_MissingSheetIsNoop(t *testing.T) {
	store := rowstore.NewMemory()
	store.SetSheet("Other", fiveRowSheet())

	proc := &echoProcessor{}
	opts := testOptions(&sleepRecorder{})
	opts.StartRow = 880
	report, err := Run(context.Background(), store, opts, proc)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.SheetMissing || report.TotalRows != 879 || len(report.Windows) != 0 {
		t.Errorf("report = %+v, want missing sheet with total 879 and no windows", report)
	}
	if store.Reads != 0 || store.Writes != 0 || len(proc.seen) != 0 {
		t.Errorf("store touched: reads=%d writes=%d processed=%d", store.Reads, store.Writes, len(proc.seen))
	}
}

func TestRun_OutputAlignedWithRowsRead(t *testing.T) {
	store := rowstore.NewMemory()
	store.SetSheet("Sheet1", [][]string{
		{"id", "url"},
		{"1", "https://a.example"},
		{"2", ""},
		{"3", "https://c.example"},
		{"4", ""},
		{"5", ""},
	})

	opts := testOptions(&sleepRecorder{})
	opts.BatchSize = 10
	report, err := Run(context.Background(), store, opts, &echoProcessor{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	w := report.Windows[0]
	// Trailing rows without a URL are not returned by the store.
	if w.RowsRead != 3 || w.RowsWritten != 3 {
		t.Errorf("window = %+v, want 3 rows read and written", w)
	}
	if got := store.Cell("Sheet1", 10, 3); got != "No Text" {
		t.Errorf("J3 = %q, want No Text", got)
	}
	if got := store.Cell("Sheet1", 10, 4); got != "text:https://c.example" {
		t.Errorf("J4 = %q", got)
	}
	if got := store.Cell("Sheet1", 8, 5); got != "" {
		t.Errorf("H5 = %q, want untouched", got)
	}
}

func TestRun_SparseWritesOnlyChangedRows(t *testing.T) {
	store := rowstore.NewMemory()
	sheet := fiveRowSheet()
	for i := 1; i < len(sheet); i++ {
		sheet[i] = append(sheet[i], "", "", "", "", "", "keep", "keep", "keep")
	}
	store.SetSheet("Sheet1", sheet)

	var written []string
	store.FailWrite = func(rngs []rowstore.Range) error {
		for _, r := range rngs {
			written = append(written, r.A1())
		}
		return nil
	}

	opts := testOptions(&sleepRecorder{})
	opts.BatchSize = 5
	opts.Sparse = true
	proc := &echoProcessor{unchanged: map[int]bool{2: true, 4: true, 5: true}}

	report, err := Run(context.Background(), store, opts, proc)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if diff := cmp.Diff([]string{"Sheet1!H3:J3", "Sheet1!H6:J6"}, written); diff != "" {
		t.Errorf("written ranges mismatch (-want +got):\n%s", diff)
	}
	if store.Writes != 1 {
		t.Errorf("Writes = %d, want a single batched call", store.Writes)
	}
	if got := store.Cell("Sheet1", 10, 2); got != "keep" {
		t.Errorf("J2 = %q, want keep", got)
	}
	if got := store.Cell("Sheet1", 10, 3); got != "text:https://b.example" {
		t.Errorf("J3 = %q", got)
	}
	if diff := cmp.Diff(map[string]int{"ok": 2, "unchanged": 3}, report.Outcomes()); diff != "" {
		t.Errorf("Outcomes() mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SparseWithNothingToWrite(t *testing.T) {
	store := rowstore.NewMemory()
	store.SetSheet("Sheet1", fiveRowSheet())

	opts := testOptions(&sleepRecorder{})
	opts.Sparse = true
	proc := &echoProcessor{unchanged: map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}}

	report, err := Run(context.Background(), store, opts, proc)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.Writes != 0 {
		t.Errorf("Writes = %d, want 0", store.Writes)
	}
	if report.FailedWindows() != 0 {
		t.Errorf("FailedWindows() = %d, want 0", report.FailedWindows())
	}
}

func TestBuildUpdates(t *testing.T) {
	ok := models.OK("a", "b", "c")
	outcomes := []models.Outcome{ok, ok, models.Unchanged(), ok}
	opts := Options{Sheet: "S", WriteColumn: 8}

	var got []string
	for _, u := range buildUpdates(opts, 10, 3, outcomes) {
		got = append(got, u.Range.A1())
	}
	if diff := cmp.Diff([]string{"S!H10:J11", "S!H13:J13"}, got); diff != "" {
		t.Errorf("contiguous updates mismatch (-want +got):\n%s", diff)
	}

	opts.Sparse = true
	got = nil
	for _, u := range buildUpdates(opts, 10, 3, outcomes) {
		got = append(got, u.Range.A1())
	}
	if diff := cmp.Diff([]string{"S!H10:J10", "S!H11:J11", "S!H13:J13"}, got); diff != "" {
		t.Errorf("sparse updates mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_WrongWidthBecomesErrorRow(t *testing.T) {
	store := rowstore.NewMemory()
	store.SetSheet("Sheet1", fiveRowSheet()[:2])

	report, err := Run(context.Background(), store, testOptions(&sleepRecorder{}), &echoProcessor{width: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := store.Cell("Sheet1", 8, 2); got != "Error" {
		t.Errorf("H2 = %q, want Error", got)
	}
	if report.Windows[0].Outcomes["service_failed"] != 1 {
		t.Errorf("outcomes = %v", report.Windows[0].Outcomes)
	}
}

func TestRun_ReadFailureContinues(t *testing.T) {
	store := &failingReads{Memory: rowstore.NewMemory(), failRow: 2}
	store.SetSheet("Sheet1", fiveRowSheet())

	report, err := Run(context.Background(), store, testOptions(&sleepRecorder{}), &echoProcessor{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.Windows[0].Failed() || report.Windows[1].Failed() {
		t.Errorf("windows = %+v", report.Windows)
	}
	if got := store.Cell("Sheet1", 10, 4); got != "text:https://c.example" {
		t.Errorf("J4 = %q", got)
	}
}

type failingReads struct {
	*rowstore.Memory
	failRow int
}

func (f *failingReads) GetRange(ctx context.Context, rng rowstore.Range) ([][]string, error) {
	if rng.FromRow == f.failRow {
		return nil, errors.New("backend unavailable")
	}
	return f.Memory.GetRange(ctx, rng)
}

func TestRun_CancelledContextStops(t *testing.T) {
	store := rowstore.NewMemory()
	store.SetSheet("Sheet1", fiveRowSheet())

	ctx, cancel := context.WithCancel(context.Background())
	opts := testOptions(&sleepRecorder{})
	opts.OnWindow = func(WindowStatus) { cancel() }

	report, err := Run(ctx, store, opts, &echoProcessor{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(report.Windows) != 1 {
		t.Errorf("windows = %d, want 1", len(report.Windows))
	}
}

func TestRun_RowDelay(t *testing.T) {
	store := rowstore.NewMemory()
	store.SetSheet("Sheet1", [][]string{{"id", "url"}, {"1", "https://a.example"}, {"2", ""}, {"3", "https://c.example"}})

	sleep := &sleepRecorder{}
	opts := testOptions(sleep)
	opts.BatchSize = 3
	opts.RowDelay = time.Second
	if _, err := Run(context.Background(), store, opts, &echoProcessor{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// Only after row 2; row 3 had no URL and row 4 is last.
	if diff := cmp.Diff([]time.Duration{time.Second}, sleep.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RejectsBadOptions(t *testing.T) {
	store := rowstore.NewMemory()
	opts := testOptions(&sleepRecorder{})
	opts.BatchSize = 0
	if _, err := Run(context.Background(), store, opts, &echoProcessor{}); err == nil {
		t.Error("Run() accepted batch size 0")
	}
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v", err)
	}
}
