package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Runs: one row per scrape, recheck, enrich or dedupe invocation
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    command TEXT NOT NULL,
    backend TEXT NOT NULL,
    location TEXT NOT NULL,       -- spreadsheet id or workbook path
    sheet TEXT NOT NULL,
    start_row INTEGER NOT NULL,
    batch_size INTEGER NOT NULL,
    total_rows INTEGER,
    status TEXT NOT NULL DEFAULT 'running',  -- running, completed, partial, failed, interrupted
    error_message TEXT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(command, location, sheet);

-- Run windows: one row per window, written as soon as the window is done
CREATE TABLE IF NOT EXISTS run_windows (
    window_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    window_index INTEGER NOT NULL,
    start_row INTEGER NOT NULL,
    end_row INTEGER NOT NULL,
    rows_read INTEGER DEFAULT 0,
    rows_written INTEGER DEFAULT 0,
    outcomes TEXT,                -- JSON object: {"ok": 48, "fetch_failed": 2}
    error_message TEXT,
    recorded_at TIMESTAMP NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, window_index)
);

CREATE INDEX IF NOT EXISTS idx_run_windows_run ON run_windows(run_id);
`
