package leads

import "testing"

func TestILFromPostalCode(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"55270", "samsun"},
		{"34000", "istanbul"},
		{"81620", "duzce"},
		{"00100", ""},
		{"5", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ILFromPostalCode(tc.code); got != tc.want {
			t.Errorf("ILFromPostalCode(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestILFromLocationText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Atakum, Samsun", "Samsun"},
		{"Sinop, Türkiye", "Sinop"},
		{"Samsun, Türkiye", "Samsun"},
		{"Samsun", "Samsun"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ILFromLocationText(tc.in); got != tc.want {
			t.Errorf("ILFromLocationText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestILFromAddress(t *testing.T) {
	cases := []struct {
		name    string
		address string
		want    string
	}{
		{
			name:    "postal code wins",
			address: "Cumhuriyet Mah. No:5, 55270 Atakum/Samsun, Türkiye",
			want:    "samsun",
		},
		{
			name:    "ilce slash il without postal",
			address: "Liman Mah., Atakum/Samsun",
			want:    "samsun",
		},
		{
			name:    "trailing province only",
			address: "Bafra Cad. No:12, Samsun",
			want:    "samsun",
		},
		{
			name:    "canonical spelling from diacritics",
			address: "Merkez, Çankaya/Ankara",
			want:    "ankara",
		},
		{
			name:    "empty",
			address: "",
			want:    "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ILFromAddress(tc.address); got != tc.want {
				t.Errorf("ILFromAddress(%q) = %q, want %q", tc.address, got, tc.want)
			}
		})
	}
}

func TestParseILIlce(t *testing.T) {
	cases := []struct {
		name     string
		address  string
		location string
		wantIL   string
		wantIlce string
	}{
		{
			name:     "slash format with matching postal",
			address:  "Cumhuriyet Mah. No:5, 55270 Atakum/Samsun",
			location: "Samsun",
			wantIL:   "Samsun",
			wantIlce: "Atakum",
		},
		{
			name:     "postal disagrees with location",
			address:  "Merkez Mah., 34000 Kadıköy/İstanbul",
			location: "Samsun",
			wantIL:   "Samsun",
			wantIlce: "",
		},
		{
			name:     "no postal code uses second last segment",
			address:  "Sanayi Sitesi, Bafra, Samsun",
			location: "Samsun",
			wantIL:   "Samsun",
			wantIlce: "Bafra",
		},
		{
			name:     "empty address falls back to location",
			address:  "",
			location: "Atakum, Samsun",
			wantIL:   "Samsun",
			wantIlce: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			il, ilce := ParseILIlce(tc.address, tc.location)
			if il != tc.wantIL || ilce != tc.wantIlce {
				t.Errorf("ParseILIlce(%q, %q) = (%q, %q), want (%q, %q)",
					tc.address, tc.location, il, ilce, tc.wantIL, tc.wantIlce)
			}
		})
	}
}

func TestMatchesProvince(t *testing.T) {
	cases := []struct {
		name    string
		address string
		wantIL  string
		want    bool
	}{
		{
			name:    "postal code match",
			address: "No:5, 55270 Atakum/Samsun",
			wantIL:  "Samsun",
			want:    true,
		},
		{
			name:    "postal code mismatch",
			address: "No:5, 34000 Kadıköy/İstanbul",
			wantIL:  "Samsun",
			want:    false,
		},
		{
			name:    "unresolvable postal code rejected",
			address: "No:5, 00123 Merkez, Samsun",
			wantIL:  "Samsun",
			want:    false,
		},
		{
			name:    "parsed province match without postal",
			address: "Liman Mah., Atakum/Samsun",
			wantIL:  "Samsun",
			want:    true,
		},
		{
			name:    "no province filter passes everything",
			address: "Anywhere",
			wantIL:  "",
			want:    true,
		},
		{
			name:    "empty address passes",
			address: "",
			wantIL:  "Samsun",
			want:    true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchesProvince(tc.address, tc.wantIL); got != tc.want {
				t.Errorf("MatchesProvince(%q, %q) = %v, want %v", tc.address, tc.wantIL, got, tc.want)
			}
		})
	}
}
