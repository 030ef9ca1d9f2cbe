package leads

import "testing"

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func boolPtr(b bool) *bool        { return &b }

func sampleLeads() []Lead {
	return []Lead{
		{
			Name:             "Bayi A",
			FormattedAddress: "No:5, 55270 Atakum/Samsun",
			PlaceID:          "pid-a",
			Types:            []string{"store", "point_of_interest"},
			Rating:           floatPtr(4.5),
			UserRatingsTotal: intPtr(120),
			BusinessStatus:   "OPERATIONAL",
			Phone:            "0362 123 45 67",
			OpenNow:          boolPtr(true),
		},
		{
			Name:             "Bayi B",
			FormattedAddress: "No:7, 34000 Kadıköy/İstanbul",
			PlaceID:          "pid-b",
			Types:            []string{"store"},
			Rating:           floatPtr(3.0),
			BusinessStatus:   "OPERATIONAL",
			Website:          "https://example.com",
		},
		{
			Name:             "Bayi C",
			FormattedAddress: "Liman Mah., Atakum/Samsun",
			PlaceID:          "pid-c",
			Types:            []string{"lodging"},
			BusinessStatus:   "CLOSED_PERMANENTLY",
			OpenNow:          boolPtr(false),
		},
	}
}

func TestFilterProvince(t *testing.T) {
	got := Filter(sampleLeads(), FilterOptions{ProvinceText: "Atakum, Samsun"})
	if len(got) != 2 {
		t.Fatalf("Filter returned %d leads, want 2", len(got))
	}
	if got[0].PlaceID != "pid-a" || got[1].PlaceID != "pid-c" {
		t.Errorf("unexpected leads kept: %q, %q", got[0].PlaceID, got[1].PlaceID)
	}
}

func TestFilterOptions(t *testing.T) {
	cases := []struct {
		name string
		opts FilterOptions
		want []string
	}{
		{
			name: "min rating",
			opts: FilterOptions{MinRating: floatPtr(4.0)},
			want: []string{"pid-a"},
		},
		{
			name: "min user ratings total",
			opts: FilterOptions{MinUserRatingsTotal: intPtr(100)},
			want: []string{"pid-a"},
		},
		{
			name: "types include",
			opts: FilterOptions{TypesInclude: []string{"Lodging"}},
			want: []string{"pid-c"},
		},
		{
			name: "types exclude",
			opts: FilterOptions{TypesExclude: []string{"store"}},
			want: []string{"pid-c"},
		},
		{
			name: "require phone or website",
			opts: FilterOptions{RequirePhoneOrSite: true},
			want: []string{"pid-a", "pid-b"},
		},
		{
			name: "only open now",
			opts: FilterOptions{OnlyOpenNow: true},
			want: []string{"pid-a"},
		},
		{
			name: "business status",
			opts: FilterOptions{BusinessStatusIn: []string{"operational"}},
			want: []string{"pid-a", "pid-b"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(sampleLeads(), tc.opts)
			if len(got) != len(tc.want) {
				t.Fatalf("Filter returned %d leads, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].PlaceID != id {
					t.Errorf("lead %d = %q, want %q", i, got[i].PlaceID, id)
				}
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	items := []Lead{
		{Name: "Bayi A", FormattedAddress: "Adres 1", PlaceID: "pid-a"},
		{Name: "bayi a", FormattedAddress: "adres 1", PlaceID: "pid-x"},
		{Name: "Bayi A", FormattedAddress: "Adres 2", PlaceID: "pid-a"},
	}

	byID := Dedupe(items, DedupeByPlaceID)
	if len(byID) != 2 {
		t.Fatalf("Dedupe by place_id returned %d, want 2", len(byID))
	}
	if byID[0].PlaceID != "pid-a" || byID[1].PlaceID != "pid-x" {
		t.Errorf("unexpected order after dedupe: %q, %q", byID[0].PlaceID, byID[1].PlaceID)
	}

	byName := Dedupe(items, DedupeByNameAddress)
	if len(byName) != 2 {
		t.Fatalf("Dedupe by name_address returned %d, want 2", len(byName))
	}
	if byName[1].FormattedAddress != "Adres 2" {
		t.Errorf("second kept lead address = %q, want %q", byName[1].FormattedAddress, "Adres 2")
	}
}
