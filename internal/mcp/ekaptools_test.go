package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"ihalemcp/internal/ekap"
	"ihalemcp/internal/logging"
	"ihalemcp/internal/watchlist"
)

func newEKAPTestServer(t *testing.T, handler http.Handler) *EKAPServer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := logging.NewTestLogger()
	client := ekap.NewClient(logger,
		ekap.WithBaseURL(srv.URL),
		ekap.WithLegacyURL(srv.URL+"/EKAP/Ortak/YeniIhaleAramaData.ashx"),
		ekap.WithHTTPClient(srv.Client()),
	)
	watch := watchlist.NewStore(t.TempDir(), logger)
	s := NewEKAPServer(client, watch, logger)
	s.now = func() time.Time { return time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, result))
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), out); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
}

func TestBuildSearchParamsDefaults(t *testing.T) {
	s := &EKAPServer{now: func() time.Time { return time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC) }}

	p, err := s.buildSearchParams(searchTendersArgs{})
	if err != nil {
		t.Fatalf("buildSearchParams: %v", err)
	}
	if p.Limit != 10 || p.SearchType != "GirdigimGibi" || p.SortOrder != "desc" {
		t.Errorf("defaults: limit=%d type=%q order=%q", p.Limit, p.SearchType, p.SortOrder)
	}
	if !p.SearchInIKN || !p.SearchInBidForm {
		t.Error("search scopes should default to enabled")
	}
}

func TestBuildSearchParamsDateConveniences(t *testing.T) {
	s := &EKAPServer{now: func() time.Time { return time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC) }}

	p, err := s.buildSearchParams(searchTendersArgs{
		AnnouncementDateFilter: "today",
		TenderDateFilter:       "from_today",
		TenderDateEnd:          "2025-06-01",
	})
	if err != nil {
		t.Fatalf("buildSearchParams: %v", err)
	}
	if p.AnnouncementDateStart != "2025-04-15" || p.AnnouncementDateEnd != "2025-04-15" {
		t.Errorf("announcement range = %q..%q", p.AnnouncementDateStart, p.AnnouncementDateEnd)
	}
	if p.TenderDateStart != "2025-04-15" || p.TenderDateEnd != "" {
		t.Errorf("tender range = %q..%q, want open-ended from today", p.TenderDateStart, p.TenderDateEnd)
	}
}

func TestBuildSearchParamsPlateConversion(t *testing.T) {
	s := &EKAPServer{now: time.Now}

	limit := 500
	p, err := s.buildSearchParams(searchTendersArgs{
		Provinces: []int{6, 34, 0, 99},
		Limit:     &limit,
	})
	if err != nil {
		t.Fatalf("buildSearchParams: %v", err)
	}
	if len(p.ProvinceAPIIDs) != 2 || p.ProvinceAPIIDs[0] != 6 || p.ProvinceAPIIDs[1] != 34 {
		t.Errorf("province ids = %v, want invalid plates dropped", p.ProvinceAPIIDs)
	}
	if p.Limit != 100 {
		t.Errorf("limit = %d, want clamped to 100", p.Limit)
	}
}

func TestHandleRecentTenders(t *testing.T) {
	var payload map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/b_ihalearama/api/Ihale/GetListByParameters", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"list":       []any{},
			"totalCount": 0,
		})
	})

	s := newEKAPTestServer(t, mux)

	days := 45
	result, err := s.handleRecentTenders(context.Background(), callRequest(map[string]any{
		"days": days,
	}))
	if err != nil {
		t.Fatalf("handleRecentTenders: %v", err)
	}

	var out struct {
		DateRange struct {
			Start    string `json:"start"`
			End      string `json:"end"`
			DaysBack int    `json:"days_back"`
		} `json:"date_range"`
	}
	decodeResult(t, result, &out)

	if out.DateRange.DaysBack != 30 {
		t.Errorf("days_back = %d, want clamped to 30", out.DateRange.DaysBack)
	}
	if out.DateRange.End != "2025-04-15" || out.DateRange.Start != "2025-03-16" {
		t.Errorf("date range = %s..%s", out.DateRange.Start, out.DateRange.End)
	}
	if payload["ilanTarihSaatBaslangic"] == nil {
		t.Error("announcement start date missing from payload")
	}
}

func TestHandleTenderAnnouncementsTypes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/b_ihalearama/api/Ilan/GetList", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"list": []map[string]any{
				{"id": 1, "ilanTip": "2", "baslik": "İhale İlanı", "veriHtml": "<p>bir</p>"},
				{"id": 2, "ilanTip": "2", "baslik": "İhale İlanı 2", "veriHtml": "<p>iki</p>"},
				{"id": 3, "ilanTip": "4", "baslik": "Sonuç İlanı", "veriHtml": "<p>üç</p>"},
			},
		})
	})

	s := newEKAPTestServer(t, mux)

	result, err := s.handleTenderAnnouncements(context.Background(), callRequest(map[string]any{
		"tender_id": 123,
	}))
	if err != nil {
		t.Fatalf("handleTenderAnnouncements: %v", err)
	}

	var out struct {
		TotalAnnouncements int      `json:"total_announcements"`
		TypesFound         []string `json:"announcement_types_found"`
	}
	decodeResult(t, result, &out)

	if out.TotalAnnouncements != 3 {
		t.Errorf("total = %d, want 3", out.TotalAnnouncements)
	}
	if len(out.TypesFound) != 2 {
		t.Errorf("types found = %v, want deduped to 2", out.TypesFound)
	}
}

func TestHandleTenderDetailsMissingID(t *testing.T) {
	s := newEKAPTestServer(t, http.NewServeMux())

	result, err := s.handleTenderDetails(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleTenderDetails: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing tender_id")
	}
	if !strings.Contains(resultText(t, result), "tender_id") {
		t.Errorf("unexpected error text: %s", resultText(t, result))
	}
}

func TestHandleListSavedSearches(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ankara.md"),
		[]byte("---\ndescription: Ankara aramaları\n---\nnot\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger, _ := logging.NewTestLogger()
	client := ekap.NewClient(logger)
	s := NewEKAPServer(client, watchlist.NewStore(dir, logger), logger)

	result, err := s.handleListSavedSearches(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleListSavedSearches: %v", err)
	}

	var out struct {
		Count         int               `json:"count"`
		SavedSearches []watchlist.Entry `json:"saved_searches"`
	}
	decodeResult(t, result, &out)

	if out.Count != 1 || out.SavedSearches[0].FileName != "ankara.md" {
		t.Errorf("unexpected listing: %+v", out)
	}
}

func TestHandleSaveSearch(t *testing.T) {
	dir := t.TempDir()
	logger, _ := logging.NewTestLogger()
	client := ekap.NewClient(logger)
	s := NewEKAPServer(client, watchlist.NewStore(dir, logger), logger)

	result, err := s.handleSaveSearch(context.Background(), callRequest(map[string]any{
		"file_name":   "sulama",
		"description": "Sulama ihaleleri takibi",
		"query":       "sulama pompası",
	}))
	if err != nil {
		t.Fatalf("handleSaveSearch: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}

	entry, err := watchlist.NewStore(dir, logger).Get("sulama.md")
	if err != nil {
		t.Fatalf("reading saved search back: %v", err)
	}
	if entry.Description != "Sulama ihaleleri takibi" || entry.Query != "sulama pompası" {
		t.Errorf("entry = %+v", entry)
	}

	// Missing description is a client error.
	result, err = s.handleSaveSearch(context.Background(), callRequest(map[string]any{
		"file_name": "x",
	}))
	if err != nil {
		t.Fatalf("handleSaveSearch: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing description")
	}
}
