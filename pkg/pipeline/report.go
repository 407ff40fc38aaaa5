package pipeline

// WindowStatus records what happened to one window of rows.
type WindowStatus struct {
	Index       int            `json:"index" yaml:"index"`
	Start       int            `json:"start" yaml:"start"`
	End         int            `json:"end" yaml:"end"`
	RowsRead    int            `json:"rows_read" yaml:"rows_read"`
	RowsWritten int            `json:"rows_written" yaml:"rows_written"`
	Outcomes    map[string]int `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
	Err         error          `json:"-" yaml:"-"`
}

func (w *WindowStatus) fail(err error) {
	w.Err = err
	w.Error = err.Error()
}

// Failed reports whether the window could not be read or written.
func (w WindowStatus) Failed() bool {
	return w.Err != nil
}

// Report is the structured result of one Run.
type Report struct {
	Sheet        string         `json:"sheet" yaml:"sheet"`
	StartRow     int            `json:"start_row" yaml:"start_row"`
	BatchSize    int            `json:"batch_size" yaml:"batch_size"`
	TotalRows    int            `json:"total_rows" yaml:"total_rows"`
	SheetMissing bool           `json:"sheet_missing,omitempty" yaml:"sheet_missing,omitempty"`
	Windows      []WindowStatus `json:"windows" yaml:"windows"`
}

func (r *Report) FailedWindows() int {
	n := 0
	for _, w := range r.Windows {
		if w.Failed() {
			n++
		}
	}
	return n
}

// Outcomes sums the per-window outcome counts.
func (r *Report) Outcomes() map[string]int {
	totals := make(map[string]int)
	for _, w := range r.Windows {
		for kind, n := range w.Outcomes {
			totals[kind] += n
		}
	}
	return totals
}

// LastWrittenRow is the end of the furthest window written without error,
// or 0 when none was.
func (r *Report) LastWrittenRow() int {
	last := 0
	for _, w := range r.Windows {
		if !w.Failed() && w.End > last {
			last = w.End
		}
	}
	return last
}
