package ted

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ihalemcp/internal/logging"
)

func fixedNow() time.Time {
	return time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)
}

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := logging.NewTestLogger()
	return NewClient(apiKey, logger,
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithClock(fixedNow),
	)
}

func TestSearchTendersRequest(t *testing.T) {
	var captured map[string]any
	var authHeader string

	client := newTestClient(t, "secret-key", func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{"notices": []any{}, "totalNoticeCount": 0})
	})

	_, err := client.SearchTenders(context.Background(), SearchOptions{
		SearchText:   "crane",
		CountryCodes: []string{"DE"},
		Limit:        9999,
		Page:         2,
		DaysBack:     120,
	})
	if err != nil {
		t.Fatalf("SearchTenders() error = %v", err)
	}

	if authHeader != "Bearer secret-key" {
		t.Errorf("Authorization = %q, want bearer token", authHeader)
	}
	query, _ := captured["query"].(string)
	if !strings.Contains(query, "FT~(crane)") || !strings.Contains(query, "(PD>=20241216)") {
		t.Errorf("query = %q", query)
	}
	if captured["limit"] != float64(250) {
		t.Errorf("limit = %v, want clamped 250", captured["limit"])
	}
	if captured["page"] != float64(2) {
		t.Errorf("page = %v, want 2", captured["page"])
	}
	if captured["scope"] != "ACTIVE" {
		t.Errorf("scope = %v, want default ACTIVE", captured["scope"])
	}
	if captured["paginationMode"] != "PAGE_NUMBER" {
		t.Errorf("paginationMode = %v", captured["paginationMode"])
	}
}

func TestSearchTendersParsesNotices(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"notices": []map[string]any{
				{
					"publication-number": "00123456-2025",
					"notice-title":       map[string]any{"eng": []any{"Crane procurement"}, "deu": []any{"Kranbeschaffung"}},
					"publication-date":   "2025-04-10T00:00:00Z",
					"buyer-name":         map[string]any{"deu": []any{"Stadt Berlin"}},
					"place-of-performance": []any{"DEU"},
					"deadline-receipt-tender-date-lot": []any{
						map[string]any{"deadline-date": "2025-05-20+02:00"},
					},
				},
				{
					// No publication number: dropped.
					"notice-title": "orphan",
				},
				{
					"publication-number": "00999999-2025",
					"publication-date":   "2025-04-01",
					"place-of-performance": map[string]any{"mixed": []any{"France", "FRA"}},
				},
			},
			"totalNoticeCount": 57,
		})
	})

	result, err := client.SearchTenders(context.Background(), SearchOptions{SearchText: "crane"})
	if err != nil {
		t.Fatalf("SearchTenders() error = %v", err)
	}

	if result.TotalFound != 57 {
		t.Errorf("TotalFound = %d, want 57", result.TotalFound)
	}
	if len(result.Tenders) != 2 {
		t.Fatalf("parsed %d tenders, want 2", len(result.Tenders))
	}

	first := result.Tenders[0]
	if first.Title != "Crane procurement" {
		t.Errorf("title = %q, want the English variant", first.Title)
	}
	if first.BuyerName != "Stadt Berlin" {
		t.Errorf("buyer = %q", first.BuyerName)
	}
	if first.CountryCode != "DEU" {
		t.Errorf("country = %q, want DEU", first.CountryCode)
	}
	if first.Deadline == nil || first.Deadline.Format("2006-01-02") != "2025-05-20" {
		t.Errorf("deadline = %v, want 2025-05-20", first.Deadline)
	}
	if first.URL != "https://ted.europa.eu/en/notice/-/detail/00123456-2025" {
		t.Errorf("url = %q", first.URL)
	}

	second := result.Tenders[1]
	if second.Title != "No Title Found" {
		t.Errorf("fallback title = %q", second.Title)
	}
	if second.BuyerName != "Not specified" {
		t.Errorf("fallback buyer = %q", second.BuyerName)
	}
	if second.CountryCode != "FRA" {
		t.Errorf("country = %q, want 3-alpha FRA preferred", second.CountryCode)
	}
	if second.Deadline != nil {
		t.Errorf("deadline = %v, want nil", second.Deadline)
	}
}

func TestSearchTendersHTTPError(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	if _, err := client.SearchTenders(context.Background(), SearchOptions{}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestFilterOpen(t *testing.T) {
	today := fixedNow().Truncate(24 * time.Hour)
	day := func(offset int) Date { return Date{today.AddDate(0, 0, offset)} }
	deadline := func(offset int) *Date { d := day(offset); return &d }

	t.Run("sorts open tenders by deadline", func(t *testing.T) {
		resp := &SearchResponse{
			Page: 1,
			Tenders: []Tender{
				{ID: "late", Deadline: deadline(20), PublicationDate: day(-10)},
				{ID: "expired", Deadline: deadline(-1), PublicationDate: day(-40)},
				{ID: "soon", Deadline: deadline(3), PublicationDate: day(-5)},
			},
		}

		got := FilterOpen(resp, fixedNow())

		if got.TotalFound != 2 {
			t.Fatalf("TotalFound = %d, want 2", got.TotalFound)
		}
		if got.Tenders[0].ID != "soon" || got.Tenders[1].ID != "late" {
			t.Errorf("order = %q, %q; want soon, late", got.Tenders[0].ID, got.Tenders[1].ID)
		}
		if got.ResultsAreRecent == nil || !*got.ResultsAreRecent {
			t.Error("ResultsAreRecent should be true")
		}
	})

	t.Run("falls back to recent publications", func(t *testing.T) {
		resp := &SearchResponse{
			Tenders: []Tender{
				{ID: "recent", PublicationDate: day(-10)},
				{ID: "stale", PublicationDate: day(-90)},
			},
		}

		got := FilterOpen(resp, fixedNow())

		if got.TotalFound != 1 || got.Tenders[0].ID != "recent" {
			t.Errorf("got %+v, want only the recent publication", got.Tenders)
		}
		if got.ResultsAreRecent == nil || !*got.ResultsAreRecent {
			t.Error("ResultsAreRecent should be true for the pubdate fallback")
		}
	})

	t.Run("keeps everything when nothing matches", func(t *testing.T) {
		resp := &SearchResponse{
			Tenders: []Tender{
				{ID: "old-a", PublicationDate: day(-90)},
				{ID: "old-b", PublicationDate: day(-120)},
			},
		}

		got := FilterOpen(resp, fixedNow())

		if got.TotalFound != 2 {
			t.Errorf("TotalFound = %d, want unfiltered 2", got.TotalFound)
		}
		if got.ResultsAreRecent == nil || *got.ResultsAreRecent {
			t.Error("ResultsAreRecent should be false")
		}
	})
}
