// Package runs implements the commands that browse the run ledger.
package runs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

const timeLayout = "2006-01-02 15:04:05"

// ListAction prints the most recent runs.
func ListAction(c *cli.Context) error {
	database, err := openLedger(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Started", "Command", "Sheet", "Start Row", "Batch", "Rows", "Status"})
	for _, r := range runs {
		rows := "-"
		if r.TotalRows.Valid {
			rows = fmt.Sprint(r.TotalRows.Int64)
		}
		t.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Local().Format(timeLayout),
			r.Command,
			r.Sheet,
			r.StartRow,
			r.BatchSize,
			rows,
			r.Status,
		})
	}
	t.Render()

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	return nil
}

// ShowAction prints one run and its windows; without an argument it shows the latest run.
func ShowAction(c *cli.Context) error {
	database, err := openLedger(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	windows, err := database.GetRunWindows(runID)
	if err != nil {
		return fmt.Errorf("failed to get run windows: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Run %d\n", run.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Command:   %s\n", run.Command)
	fmt.Fprintf(w, "Store:     %s %s\n", run.Backend, run.Location)
	fmt.Fprintf(w, "Sheet:     %s (from row %d, %d per window)\n", run.Sheet, run.StartRow, run.BatchSize)
	fmt.Fprintf(w, "Status:    %s\n", run.Status)
	fmt.Fprintf(w, "Started:   %s\n", run.StartedAt.Local().Format(timeLayout))
	if run.FinishedAt.Valid {
		fmt.Fprintf(w, "Finished:  %s\n", run.FinishedAt.Time.Local().Format(timeLayout))
	}
	if run.ErrorMessage.Valid && run.ErrorMessage.String != "" {
		fmt.Fprintf(w, "Error:     %s\n", run.ErrorMessage.String)
	}

	if len(windows) == 0 {
		fmt.Fprintln(w, "\nNo windows recorded")
		return nil
	}

	fmt.Fprintln(w)
	t := newTable(w)
	t.AppendHeader(table.Row{"Window", "Rows", "Read", "Written", "Outcomes", "Error"})
	for _, win := range windows {
		t.AppendRow(table.Row{
			win.Index,
			fmt.Sprintf("%d-%d", win.StartRow, win.EndRow),
			win.RowsRead,
			win.RowsWritten,
			formatOutcomes(win.Outcomes),
			win.ErrorMessage,
		})
	}
	t.Render()
	return nil
}

func formatOutcomes(outcomes map[string]int) string {
	kinds := make([]string, 0, len(outcomes))
	for k := range outcomes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, outcomes[k])
	}
	return strings.Join(parts, " ")
}
