package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"ihalemcp/internal/leads"
	"ihalemcp/internal/logging"
)

type fakeSheetsBackend struct {
	mu         sync.Mutex
	sheetTitle string
	headerRow  []any
	appended   [][]any
	updates    int
}

func (f *fakeSheetsBackend) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v4/spreadsheets/sid", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{
				map[string]any{"properties": map[string]any{"title": f.sheetTitle}},
			},
		})
	})

	mux.HandleFunc("/v4/spreadsheets/sid/values/Leads!1:1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		resp := map[string]any{"range": "Leads!1:1"}
		if f.headerRow != nil {
			resp["values"] = [][]any{f.headerRow}
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/v4/spreadsheets/sid/values/Leads!A1", func(w http.ResponseWriter, r *http.Request) {
		var body sheetsapi.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding update body: %v", err)
		}
		f.mu.Lock()
		if len(body.Values) > 0 {
			f.headerRow = body.Values[0]
		}
		f.updates++
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": "Leads!A1:G1"})
	})

	mux.HandleFunc("/v4/spreadsheets/sid/values/Leads!A1:append", func(w http.ResponseWriter, r *http.Request) {
		var body sheetsapi.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding append body: %v", err)
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
			t.Errorf("valueInputOption = %q, want RAW", got)
		}
		if got := r.URL.Query().Get("insertDataOption"); got != "INSERT_ROWS" {
			t.Errorf("insertDataOption = %q, want INSERT_ROWS", got)
		}
		f.mu.Lock()
		f.appended = append(f.appended, body.Values...)
		n := len(body.Values)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{
				"updatedRange": "Leads!A2:G3",
				"updatedRows":  n,
			},
		})
	})

	return mux
}

func newTestAppender(t *testing.T, backend *fakeSheetsBackend) *Appender {
	t.Helper()
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("building sheets service: %v", err)
	}

	logger, _ := logging.NewTestLogger()
	a, err := NewAppender(context.Background(), "sid", logger, WithService(svc))
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	return a
}

func TestExportLeads(t *testing.T) {
	backend := &fakeSheetsBackend{sheetTitle: "Leads"}
	a := newTestAppender(t, backend)

	items := []leads.Lead{
		{
			Name:             "Örnek Tarım",
			FormattedAddress: "No:5, 55270 Atakum/Samsun",
			Phone:            "0532 123 45 67",
		},
		{
			Name:             "Bayi B",
			FormattedAddress: "Merkez, Samsun",
			Phone:            "0362 123 45 67",
		},
	}

	result, err := a.ExportLeads(context.Background(), items, "Samsun", "tarım makina")
	if err != nil {
		t.Fatalf("ExportLeads: %v", err)
	}

	if result.SpreadsheetID != "sid" || result.SheetName != "Leads" {
		t.Errorf("result identity = %q/%q", result.SpreadsheetID, result.SheetName)
	}
	if result.UpdatedRange != "Leads!A2:G3" || result.UpdatedRows != 2 {
		t.Errorf("result updates = %q/%d", result.UpdatedRange, result.UpdatedRows)
	}

	if backend.updates != 1 {
		t.Errorf("header written %d times, want 1", backend.updates)
	}
	if len(backend.headerRow) != len(SheetHeader) || backend.headerRow[0] != "Kategori" {
		t.Errorf("header row = %v", backend.headerRow)
	}

	if len(backend.appended) != 2 {
		t.Fatalf("appended %d rows, want 2", len(backend.appended))
	}
	first := backend.appended[0]
	if first[0] != "Tarım Makina" || first[2] != "Samsun" || first[4] != "0532 123 45 67" {
		t.Errorf("first appended row = %v", first)
	}
	second := backend.appended[1]
	if second[4] != leads.Missing || second[5] != "0362 123 45 67" {
		t.Errorf("second appended row phones = %v/%v", second[4], second[5])
	}
}

func TestExportLeadsKeepsExistingHeader(t *testing.T) {
	backend := &fakeSheetsBackend{
		sheetTitle: "Leads",
		headerRow:  []any{"Kategori", "Bayi Adı"},
	}
	a := newTestAppender(t, backend)

	_, err := a.ExportLeads(context.Background(), []leads.Lead{{Name: "Bayi"}}, "Samsun", "")
	if err != nil {
		t.Fatalf("ExportLeads: %v", err)
	}
	if backend.updates != 0 {
		t.Errorf("header rewritten %d times, want 0", backend.updates)
	}
}

func TestExportLeadsMissingTab(t *testing.T) {
	backend := &fakeSheetsBackend{sheetTitle: "Sayfa1"}
	a := newTestAppender(t, backend)

	_, err := a.ExportLeads(context.Background(), nil, "", "")
	if err == nil {
		t.Fatal("expected error for missing Leads tab")
	}
	if !strings.Contains(err.Error(), `"Leads" not found`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewAppenderRequiresSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	logger, _ := logging.NewTestLogger()
	if _, err := NewAppender(context.Background(), "", logger); err == nil {
		t.Fatal("expected error without spreadsheet id")
	}

	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_FILE", "")
	if _, err := NewAppender(context.Background(), "", logger); err == nil {
		t.Fatal("expected error without credentials")
	}
}
