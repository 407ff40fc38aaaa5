package rowstore

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// valueInputOption keeps written strings verbatim; no formula or date parsing.
const valueInputOption = "RAW"

// Sheets is a Store over one Google spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	timeout       time.Duration
}

// NewSheets authenticates with a service account key file. An empty
// credentialsFile falls back to application default credentials.
func NewSheets(ctx context.Context, spreadsheetID, credentialsFile string, timeout time.Duration) (*Sheets, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID, timeout: timeout}, nil
}

func (s *Sheets) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Sheets) GetRange(ctx context.Context, rng Range) ([][]string, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng.A1()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng.A1(), err)
	}
	return fromValues(resp.Values), nil
}

func (s *Sheets) UpdateRange(ctx context.Context, rng Range, rows [][]string) error {
	if err := checkFits(rng, rows); err != nil {
		return err
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	body := &sheets.ValueRange{Values: toValues(rows)}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng.A1(), body).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", rng.A1(), err)
	}
	return nil
}

func (s *Sheets) BatchUpdate(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		if err := checkFits(u.Range, u.Rows); err != nil {
			return err
		}
		data = append(data, &sheets.ValueRange{Range: u.Range.A1(), Values: toValues(u.Rows)})
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: valueInputOption, Data: data}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch write %d ranges: %w", len(updates), err)
	}
	return nil
}

func (s *Sheets) ClearRange(ctx context.Context, rng Range) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng.A1(), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng.A1(), err)
	}
	return nil
}

func (s *Sheets) Metadata(ctx context.Context) (map[string]int, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	meta := make(map[string]int, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties == nil {
			continue
		}
		count := 0
		if sh.Properties.GridProperties != nil {
			count = int(sh.Properties.GridProperties.RowCount)
		}
		meta[sh.Properties.Title] = count
	}
	return meta, nil
}

// Close is a no-op; the service shares the default HTTP transport.
func (s *Sheets) Close() error {
	return nil
}

func fromValues(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return rows
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	return values
}
