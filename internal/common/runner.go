package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dtnitsch/llm-sheet-enricher/models"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/db"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/pipeline"
	"github.com/dtnitsch/llm-sheet-enricher/pkg/rowstore"
	"github.com/urfave/cli/v2"
)

// Exit codes shared by the batch commands.
const (
	ExitPartial = 1
	ExitFailure = 2
)

// Batch is one windowed pass over a sheet.
type Batch struct {
	Command   string
	Config    *models.Config
	Store     rowstore.Store
	Ledger    *db.DB // nil when the ledger is disabled
	Options   pipeline.Options
	Processor pipeline.RowProcessor
	Logger    *slog.Logger
	// Resume starts after the last window the previous run of Command wrote.
	Resume bool
}

// RunBatch runs b through the pipeline, records it in the ledger, prints the
// report and maps it to an exit code: 1 when some windows failed, 2 when
// all did.
func RunBatch(ctx context.Context, c *cli.Context, b Batch) error {
	logger := b.Logger
	cfg := b.Config
	location := StoreLocation(cfg)

	if b.Resume {
		if b.Ledger == nil {
			return cli.Exit("--resume needs the run ledger", ExitFailure)
		}
		next, found, err := b.Ledger.ResumeRow(b.Command, location, b.Options.Sheet)
		if err != nil {
			return cli.Exit(err.Error(), ExitFailure)
		}
		if found && next > b.Options.StartRow {
			logger.Info("resuming previous run", "command", b.Command, "start_row", next)
			b.Options.StartRow = next
		}
	}

	var runID int64
	if b.Ledger != nil {
		var err error
		runID, err = b.Ledger.StartRun(b.Command, cfg.Store.Backend, location, b.Options.Sheet, b.Options.StartRow, b.Options.BatchSize)
		if err != nil {
			return cli.Exit(err.Error(), ExitFailure)
		}
		logger = logger.With("run_id", runID)
		b.Options.OnWindow = func(w pipeline.WindowStatus) {
			err := b.Ledger.RecordWindow(db.Window{
				RunID:        runID,
				Index:        w.Index,
				StartRow:     w.Start,
				EndRow:       w.End,
				RowsRead:     w.RowsRead,
				RowsWritten:  w.RowsWritten,
				Outcomes:     w.Outcomes,
				ErrorMessage: w.Error,
			})
			if err != nil {
				logger.Warn("failed to record window", "window", w.Index, "error", err)
			}
		}
	}
	b.Options.Logger = logger

	report, runErr := pipeline.Run(ctx, b.Store, b.Options, b.Processor)
	status, message := runStatus(report, runErr)

	if b.Ledger != nil {
		totalRows := 0
		if report != nil {
			totalRows = report.TotalRows
		}
		if err := b.Ledger.FinishRun(runID, status, totalRows, message); err != nil {
			logger.Warn("failed to finish run", "error", err)
		}
	}

	if report != nil {
		if err := Render(c.App.Writer, c.String("format"), report); err != nil {
			return cli.Exit(err.Error(), ExitFailure)
		}
	}

	switch status {
	case db.StatusFailed, db.StatusInterrupted:
		return cli.Exit(message, ExitFailure)
	case db.StatusPartial:
		return cli.Exit(message, ExitPartial)
	}
	return nil
}

func runStatus(report *pipeline.Report, runErr error) (status, message string) {
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		return db.StatusInterrupted, runErr.Error()
	case runErr != nil:
		return db.StatusFailed, runErr.Error()
	}

	failed := report.FailedWindows()
	switch {
	case failed == 0:
		return db.StatusCompleted, ""
	case failed == len(report.Windows):
		return db.StatusFailed, fmt.Sprintf("all %d windows failed", failed)
	}
	return db.StatusPartial, fmt.Sprintf("%d of %d windows failed", failed, len(report.Windows))
}

// Setup is what every sheet command needs before it can run.
type Setup struct {
	Config *models.Config
	Logger *slog.Logger
	Store  rowstore.Store
	Ledger *db.DB
}

// Close releases the store and the ledger.
func (s *Setup) Close() {
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.Logger.Warn("failed to close store", "error", err)
		}
	}
	if s.Ledger != nil {
		_ = s.Ledger.Close()
	}
}

// Prepare resolves the configuration and opens the store and the ledger.
// Errors come back as cli exit errors with code 2.
func Prepare(ctx context.Context, c *cli.Context) (*Setup, error) {
	logger := NewLogger(c, os.Stderr)

	cfg, err := ResolveConfig(c)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return nil, cli.Exit(err.Error(), ExitFailure)
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		return nil, cli.Exit(err.Error(), ExitFailure)
	}

	ledger, err := OpenLedger(cfg)
	if err != nil {
		_ = store.Close()
		logger.Error("failed to open run ledger", "error", err)
		return nil, cli.Exit(err.Error(), ExitFailure)
	}

	return &Setup{Config: cfg, Logger: logger, Store: store, Ledger: ledger}, nil
}

// Layout resolves the configured column letters; the config is already validated.
func (s *Setup) Layout() models.Layout {
	layout, _ := models.NewLayout(s.Config.Layout)
	return layout
}

// PipelineOptions fills the batch settings shared by every pass.
func (s *Setup) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Sheet:      s.Config.Store.Sheet,
		StartRow:   s.Config.Batch.StartRow,
		BatchSize:  s.Config.Batch.Size,
		BatchDelay: s.Config.Batch.BatchDelay,
		RowDelay:   s.Config.Batch.RowDelay,
	}
}
