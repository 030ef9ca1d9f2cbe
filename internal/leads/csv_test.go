package leads

import (
	"strings"
	"testing"

	"ihalemcp/internal/places"
)

func TestToCSVDefaultColumns(t *testing.T) {
	items := []Lead{
		{
			Name:             "Bayi, A",
			FormattedAddress: "No:5, 55270 Atakum/Samsun",
			Latitude:         floatPtr(41.33),
			Longitude:        floatPtr(36.25),
			PlaceID:          "pid-a",
			Types:            []string{"store", "point_of_interest"},
			Rating:           floatPtr(4.5),
			UserRatingsTotal: intPtr(120),
			BusinessStatus:   "OPERATIONAL",
			Phone:            "0362 123 45 67",
		},
	}

	out, err := ToCSV(items, nil)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d csv lines, want 2", len(lines))
	}
	if lines[0] != strings.Join(DefaultCSVColumns, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"Bayi, A"`) {
		t.Errorf("comma in name not quoted: %q", lines[1])
	}
	if !strings.Contains(lines[1], "store;point_of_interest") {
		t.Errorf("types not semicolon-joined: %q", lines[1])
	}
	if !strings.Contains(lines[1], "4.5") || !strings.Contains(lines[1], "120") {
		t.Errorf("rating columns missing: %q", lines[1])
	}
}

func TestToCSVColumnSubset(t *testing.T) {
	items := []Lead{{Name: "Bayi A", Phone: "0362 123 45 67"}}

	out, err := ToCSV(items, []string{"name", "phone"})
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	want := "name,phone\nBayi A,0362 123 45 67\n"
	if out != want {
		t.Errorf("ToCSV = %q, want %q", out, want)
	}

	if _, err := ToCSV(items, []string{"name", "bogus"}); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestFromPlaces(t *testing.T) {
	open := true
	rating := 4.2
	total := 37
	raw := []places.Place{
		{
			Name:             "Bayi A",
			FormattedAddress: "No:5, Samsun",
			PlaceID:          "pid-a",
			Rating:           &rating,
			UserRatingsTotal: &total,
			BusinessStatus:   "OPERATIONAL",
			Details: &places.PlaceDetails{
				FormattedPhoneNumber:     "0362 123 45 67",
				InternationalPhoneNumber: "+90 362 123 45 67",
				Website:                  "https://example.com",
				OpeningHours:             &places.OpeningHours{OpenNow: &open},
			},
		},
		{Name: "Bayi B", PlaceID: "pid-b"},
	}
	raw[0].Geometry.Location.Lat = 41.33
	raw[0].Geometry.Location.Lng = 36.25

	got := FromPlaces(raw)
	if len(got) != 2 {
		t.Fatalf("got %d leads, want 2", len(got))
	}

	a := got[0]
	if a.Phone != "0362 123 45 67" || a.Website != "https://example.com" {
		t.Errorf("details not flattened: %+v", a)
	}
	if a.OpenNow == nil || !*a.OpenNow {
		t.Error("open_now not flattened")
	}
	if a.Latitude == nil || *a.Latitude != 41.33 {
		t.Error("latitude not flattened")
	}

	b := got[1]
	if b.Types == nil {
		t.Error("types should be empty slice, not nil")
	}
	if b.Phone != "" || b.OpenNow != nil {
		t.Errorf("lead without details should have zero contact fields: %+v", b)
	}
}
