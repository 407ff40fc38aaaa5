package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Run statuses.
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusPartial     = "partial"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// Run is one invocation of a batch command against one sheet.
type Run struct {
	RunID        int64
	Command      string
	Backend      string
	Location     string
	Sheet        string
	StartRow     int
	BatchSize    int
	TotalRows    sql.NullInt64
	Status       string
	ErrorMessage sql.NullString
	StartedAt    time.Time
	FinishedAt   sql.NullTime
}

// Window is the recorded result of one processed window.
type Window struct {
	RunID        int64
	Index        int
	StartRow     int
	EndRow       int
	RowsRead     int
	RowsWritten  int
	Outcomes     map[string]int
	ErrorMessage string
	RecordedAt   time.Time
}

// Failed reports whether the window could not be read or written.
func (w Window) Failed() bool {
	return w.ErrorMessage != ""
}

// StartRun records a new run and returns its ID.
func (db *DB) StartRun(command, backend, location, sheet string, startRow, batchSize int) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (command, backend, location, sheet, start_row, batch_size, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, command, backend, location, sheet, startRow, batchSize, StatusRunning, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun stores the final status of a run.
func (db *DB) FinishRun(runID int64, status string, totalRows int, errorMessage string) error {
	_, err := db.Exec(`
		UPDATE runs
		SET status = ?, total_rows = ?, error_message = ?, finished_at = ?
		WHERE run_id = ?
	`, status, totalRows, NewNullString(errorMessage), time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// RecordWindow stores the outcome of one window of a run.
func (db *DB) RecordWindow(w Window) error {
	outcomes, err := json.Marshal(w.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to encode outcomes: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO run_windows (run_id, window_index, start_row, end_row, rows_read, rows_written, outcomes, error_message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.RunID, w.Index, w.StartRow, w.EndRow, w.RowsRead, w.RowsWritten, string(outcomes),
		NewNullString(w.ErrorMessage), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record window %d of run %d: %w", w.Index, w.RunID, err)
	}
	return nil
}

const runColumns = `run_id, command, backend, location, sheet, start_row, batch_size,
		       total_rows, status, error_message, started_at, finished_at`

func scanRun(scanner interface{ Scan(...any) error }) (Run, error) {
	var r Run
	err := scanner.Scan(&r.RunID, &r.Command, &r.Backend, &r.Location, &r.Sheet, &r.StartRow, &r.BatchSize,
		&r.TotalRows, &r.Status, &r.ErrorMessage, &r.StartedAt, &r.FinishedAt)
	return r, err
}

// GetRun returns the run with the given ID.
func (db *DB) GetRun(runID int64) (*Run, error) {
	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all of them.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY run_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunWindows returns the windows of a run in processing order.
func (db *DB) GetRunWindows(runID int64) ([]Window, error) {
	rows, err := db.Query(`
		SELECT run_id, window_index, start_row, end_row, rows_read, rows_written, outcomes, error_message, recorded_at
		FROM run_windows
		WHERE run_id = ?
		ORDER BY window_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get windows of run %d: %w", runID, err)
	}
	defer rows.Close()

	var windows []Window
	for rows.Next() {
		var w Window
		var outcomes, errorMessage sql.NullString
		if err := rows.Scan(&w.RunID, &w.Index, &w.StartRow, &w.EndRow, &w.RowsRead, &w.RowsWritten,
			&outcomes, &errorMessage, &w.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		if outcomes.Valid && outcomes.String != "" {
			if err := json.Unmarshal([]byte(outcomes.String), &w.Outcomes); err != nil {
				return nil, fmt.Errorf("failed to decode outcomes of window %d: %w", w.Index, err)
			}
		}
		w.ErrorMessage = errorMessage.String
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// ResumeRow returns the row a resumed run of command against location/sheet
// starts at. It looks at the latest such run that recorded a window: the start
// of its lowest failed window when any failed, otherwise one past its furthest
// window. found is false when there is no such run.
func (db *DB) ResumeRow(command, location, sheet string) (row int, found bool, err error) {
	var runID int64
	err = db.QueryRow(`
		SELECT r.run_id
		FROM runs r
		WHERE r.command = ? AND r.location = ? AND r.sheet = ?
		  AND EXISTS (SELECT 1 FROM run_windows w WHERE w.run_id = r.run_id)
		ORDER BY r.run_id DESC
		LIMIT 1
	`, command, location, sheet).Scan(&runID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to find last run: %w", err)
	}

	var failedStart, lastEnd sql.NullInt64
	err = db.QueryRow(`
		SELECT
			MIN(CASE WHEN error_message IS NOT NULL THEN start_row END),
			MAX(end_row)
		FROM run_windows
		WHERE run_id = ?
	`, runID).Scan(&failedStart, &lastEnd)
	if err != nil {
		return 0, false, fmt.Errorf("failed to find resume row of run %d: %w", runID, err)
	}
	if failedStart.Valid {
		return int(failedStart.Int64), true, nil
	}
	return int(lastEnd.Int64) + 1, true, nil
}

// NewNullString maps "" to NULL.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
