package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"ihalemcp/internal/leads"
	"ihalemcp/internal/logging"
)

const (
	// Exports always land on this tab. The appender never creates tabs
	// on its own; a missing tab is the user's to fix.
	leadsSheetName = "Leads"

	serviceAccountJSONEnv = "GOOGLE_SHEETS_SERVICE_ACCOUNT_JSON"
	serviceAccountFileEnv = "GOOGLE_SHEETS_SERVICE_ACCOUNT_FILE"
	spreadsheetIDEnv      = "GOOGLE_SHEETS_SPREADSHEET_ID"
)

// WriteResult reports what an append touched.
type WriteResult struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	SheetName     string `json:"sheet_name"`
	UpdatedRange  string `json:"updated_range,omitempty"`
	UpdatedRows   int64  `json:"updated_rows,omitempty"`
}

// Appender writes lead rows to one spreadsheet's Leads tab.
type Appender struct {
	spreadsheetID string
	sheetName     string
	svc           *sheetsapi.Service
	logger        *logging.AppLogger
}

// Option customizes an Appender.
type Option func(*Appender)

// WithService injects a prebuilt Sheets service, bypassing the service
// account flow. Used by tests.
func WithService(svc *sheetsapi.Service) Option {
	return func(a *Appender) { a.svc = svc }
}

// NewAppender builds an appender for the given spreadsheet, falling
// back to GOOGLE_SHEETS_SPREADSHEET_ID when the id is empty.
// Credentials come from GOOGLE_SHEETS_SERVICE_ACCOUNT_JSON (inline
// JSON) or GOOGLE_SHEETS_SERVICE_ACCOUNT_FILE (path).
func NewAppender(ctx context.Context, spreadsheetID string, logger *logging.AppLogger, opts ...Option) (*Appender, error) {
	if spreadsheetID == "" {
		spreadsheetID = os.Getenv(spreadsheetIDEnv)
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("no spreadsheet id given and %s is unset", spreadsheetIDEnv)
	}

	a := &Appender{
		spreadsheetID: spreadsheetID,
		sheetName:     leadsSheetName,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.svc == nil {
		saJSON, err := loadServiceAccount()
		if err != nil {
			return nil, err
		}
		cfg, err := google.JWTConfigFromJSON(saJSON, sheetsapi.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parsing service account credentials: %w", err)
		}
		svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx)))
		if err != nil {
			return nil, fmt.Errorf("building sheets service: %w", err)
		}
		a.svc = svc
	}

	return a, nil
}

func loadServiceAccount() ([]byte, error) {
	if raw := os.Getenv(serviceAccountJSONEnv); raw != "" {
		return []byte(raw), nil
	}
	if path := os.Getenv(serviceAccountFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", serviceAccountFileEnv, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no Google Sheets credentials: set %s or %s", serviceAccountJSONEnv, serviceAccountFileEnv)
}

// checkSheetExists errors when the Leads tab is missing from the
// spreadsheet.
func (a *Appender) checkSheetExists(ctx context.Context) error {
	meta, err := a.svc.Spreadsheets.Get(a.spreadsheetID).
		Fields("sheets(properties(title))").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("fetching spreadsheet metadata: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.Title == a.sheetName {
			return nil
		}
	}
	return fmt.Errorf("sheet %q not found in spreadsheet %s, create the tab first", a.sheetName, a.spreadsheetID)
}

// EnsureHeader writes the header to row 1 if row 1 is empty.
func (a *Appender) EnsureHeader(ctx context.Context, header []string) error {
	if err := a.checkSheetExists(ctx); err != nil {
		return err
	}

	firstRow, err := a.svc.Spreadsheets.Values.
		Get(a.spreadsheetID, a.sheetName+"!1:1").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading header row: %w", err)
	}
	if len(firstRow.Values) > 0 && len(firstRow.Values[0]) > 0 {
		return nil
	}

	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	_, err = a.svc.Spreadsheets.Values.
		Update(a.spreadsheetID, a.sheetName+"!A1", &sheetsapi.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	a.logger.Debug("wrote sheet header", "sheet", a.sheetName)
	return nil
}

// AppendRows appends rows below the existing data.
func (a *Appender) AppendRows(ctx context.Context, rows [][]any) (*WriteResult, error) {
	if err := a.checkSheetExists(ctx); err != nil {
		return nil, err
	}

	resp, err := a.svc.Spreadsheets.Values.
		Append(a.spreadsheetID, a.sheetName+"!A1", &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("appending rows: %w", err)
	}

	result := &WriteResult{
		SpreadsheetID: a.spreadsheetID,
		SheetName:     a.sheetName,
	}
	if resp.Updates != nil {
		result.UpdatedRange = resp.Updates.UpdatedRange
		result.UpdatedRows = resp.Updates.UpdatedRows
	}
	return result, nil
}

// ExportLeads converts leads to sheet rows and appends them, ensuring
// the header first.
func (a *Appender) ExportLeads(ctx context.Context, items []leads.Lead, locationText, keyword string) (*WriteResult, error) {
	if err := a.EnsureHeader(ctx, SheetHeader); err != nil {
		return nil, err
	}
	rows := LeadsToSheetRows(items, locationText, keyword)
	result, err := a.AppendRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	a.logger.Info("exported leads to sheet",
		"spreadsheet", a.spreadsheetID, "rows", len(rows), "range", result.UpdatedRange)
	return result, nil
}
