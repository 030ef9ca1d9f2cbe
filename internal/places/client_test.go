package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ihalemcp/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := logging.NewTestLogger()
	return NewClient("test-key", logger,
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithPageInterval(time.Millisecond),
	)
}

func TestGeocode(t *testing.T) {
	var capturedAddress string

	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		capturedAddress = r.URL.Query().Get("address")
		if r.URL.Query().Get("region") != "tr" {
			t.Errorf("region = %q, want tr", r.URL.Query().Get("region"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"geometry": map[string]any{"location": map[string]any{"lat": 41.2867, "lng": 36.33}}},
			},
		})
	})

	client := newTestClient(t, mux)

	loc, err := client.Geocode(context.Background(), "Samsun", "tr")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if capturedAddress != "Samsun, Türkiye" {
		t.Errorf("address = %q, want country suffix appended", capturedAddress)
	}
	if loc.Lat != 41.2867 || loc.Lng != 36.33 {
		t.Errorf("location = %+v", loc)
	}
}

func TestGeocodeKeepsQualifiedInput(t *testing.T) {
	var capturedAddress string

	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		capturedAddress = r.URL.Query().Get("address")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"geometry": map[string]any{"location": map[string]any{"lat": 1.0, "lng": 2.0}}},
			},
		})
	})

	client := newTestClient(t, mux)

	for _, input := range []string{"Samsun, Türkiye", "Atakum Mahallesi, Samsun", "turkey samsun"} {
		if _, err := client.Geocode(context.Background(), input, "tr"); err != nil {
			t.Fatalf("Geocode(%q) error = %v", input, err)
		}
		if capturedAddress != input {
			t.Errorf("address = %q, want untouched %q", capturedAddress, input)
		}
	}
}

func TestGeocodeNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS"})
	})

	client := newTestClient(t, mux)

	_, err := client.Geocode(context.Background(), "Nowhereville", "tr")
	var geoErr *GeocodeError
	if !errors.As(err, &geoErr) {
		t.Fatalf("error = %v, want *GeocodeError", err)
	}
	if geoErr.LocationText != "Nowhereville" {
		t.Errorf("LocationText = %q", geoErr.LocationText)
	}
}

func searchPage(names []string, nextToken string) map[string]any {
	results := make([]map[string]any, 0, len(names))
	for i, name := range names {
		results = append(results, map[string]any{
			"name":              name,
			"formatted_address": fmt.Sprintf("%s Cad. No:%d, 55020 İlkadım/Samsun", name, i+1),
			"geometry":          map[string]any{"location": map[string]any{"lat": 41.0, "lng": 36.0}},
			"place_id":          "pid-" + name,
			"types":             []string{"store"},
			"rating":            4.2,
		})
	}
	page := map[string]any{"status": "OK", "results": results}
	if nextToken != "" {
		page["next_page_token"] = nextToken
	}
	return page
}

func TestSearchLeadsPaginatesAndEnriches(t *testing.T) {
	var mu sync.Mutex
	detailCalls := []string{}

	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"geometry": map[string]any{"location": map[string]any{"lat": 41.0, "lng": 36.0}}},
			},
		})
	})
	mux.HandleFunc("/maps/api/place/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pagetoken") == "page2" {
			json.NewEncoder(w).Encode(searchPage([]string{"Gamma", "Delta"}, ""))
			return
		}
		if got := r.URL.Query().Get("location"); got != "41.0000000,36.0000000" {
			t.Errorf("location = %q", got)
		}
		json.NewEncoder(w).Encode(searchPage([]string{"Alpha", "Beta"}, "page2"))
	})
	mux.HandleFunc("/maps/api/place/details/json", func(w http.ResponseWriter, r *http.Request) {
		placeID := r.URL.Query().Get("place_id")
		mu.Lock()
		detailCalls = append(detailCalls, placeID)
		mu.Unlock()
		if placeID == "pid-Beta" {
			// Enrichment failures must not sink the search.
			json.NewEncoder(w).Encode(map[string]any{"status": "NOT_FOUND"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"result": map[string]any{
				"formatted_phone_number": "(0362) 123 45 67",
				"website":                "https://example.com.tr",
			},
		})
	})

	client := newTestClient(t, mux)

	result, err := client.SearchLeads(context.Background(), "tarım makinaları bayileri", "Samsun", 5000, 3, true, "tr")
	if err != nil {
		t.Fatalf("SearchLeads() error = %v", err)
	}

	if result.Total != 3 {
		t.Fatalf("Total = %d, want limit-truncated 3", result.Total)
	}
	if len(detailCalls) != 3 {
		t.Errorf("detail calls = %d, want one per collected lead", len(detailCalls))
	}
	if result.Places[0].Details == nil || result.Places[0].Details.FormattedPhoneNumber == "" {
		t.Errorf("first place not enriched: %+v", result.Places[0].Details)
	}
	if result.Places[1].Details != nil {
		t.Errorf("failed enrichment should leave Details nil, got %+v", result.Places[1].Details)
	}
	if result.Query.Keyword != "tarım makinaları bayileri" {
		t.Errorf("query echo = %+v", result.Query)
	}
}

func TestSearchLeadsStatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"geometry": map[string]any{"location": map[string]any{"lat": 41.0, "lng": 36.0}}},
			},
		})
	})
	mux.HandleFunc("/maps/api/place/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "OVER_QUERY_LIMIT"})
	})

	client := newTestClient(t, mux)

	_, err := client.SearchLeads(context.Background(), "bayi", "Samsun", 5000, 10, false, "tr")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Status != "OVER_QUERY_LIMIT" {
		t.Errorf("Status = %q", statusErr.Status)
	}
}
