package ekap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
)

func TestSearchDirectProcurements(t *testing.T) {
	var captured url.Values

	mux := http.NewServeMux()
	mux.HandleFunc("/EKAP/Ortak/YeniIhaleAramaData.ashx", func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"yeniDogrudanTeminAramaResultList": []map[string]any{
				{
					"E1": "25DT1493794", "E2": "Kırtasiye Alımı", "E3": "Bir Okul",
					"E4": "1", "E7": "10.05.2025 14:00", "E8": "02.05.2025",
					"E10": "tokenDetail", "E11": "tokenAuth",
					"E12": 6, "E13": true, "E14": "1",
				},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	params := NewDirectSearchParams()
	params.SearchText = "kırtasiye"
	params.DTNo = "25DT1493794"
	params.ProvinceName = "ankara"
	yes := true
	params.EPriceOffer = &yes
	params.StatusText = "teklif verilebilir"

	result, err := client.SearchDirectProcurements(context.Background(), params)
	if err != nil {
		t.Fatalf("SearchDirectProcurements() error = %v", err)
	}

	if captured.Get("metot") != "dtAra" {
		t.Errorf("metot = %q, want dtAra", captured.Get("metot"))
	}
	if captured.Get("dtnYil") != "25" || captured.Get("dtnSayi") != "1493794" {
		t.Errorf("dtnYil/dtnSayi = %q/%q, want 25/1493794", captured.Get("dtnYil"), captured.Get("dtnSayi"))
	}
	if captured.Get("ilID") != "6" {
		t.Errorf("ilID = %q, want 6 for ankara", captured.Get("ilID"))
	}
	if captured.Get("eihale") != "true" {
		t.Errorf("eihale = %q, want true", captured.Get("eihale"))
	}
	if captured.Get("dtDurum") == "" {
		t.Error("dtDurum should be set from status text")
	}
	if captured.Get("dtAciklama") != "1" || captured.Get("dtAdi") != "1" {
		t.Errorf("search scope flags = %q/%q, want 1/1", captured.Get("dtAciklama"), captured.Get("dtAdi"))
	}

	if result.ReturnedCount != 1 {
		t.Fatalf("ReturnedCount = %d, want 1", result.ReturnedCount)
	}
	dp := result.DirectProcurements[0]
	if dp.DTNo != "25DT1493794" {
		t.Errorf("DTNo = %q", dp.DTNo)
	}
	if dp.Type.Description == "Bilinmiyor" {
		t.Errorf("type %v should resolve from string code \"1\"", dp.Type)
	}
	if dp.ProvincePlate == nil || *dp.ProvincePlate != 6 {
		t.Errorf("ProvincePlate = %v, want 6", dp.ProvincePlate)
	}
	if !dp.HasAnnouncement || !dp.HasDocument {
		t.Errorf("announcement/document flags = %v/%v, want true/true", dp.HasAnnouncement, dp.HasDocument)
	}
}

func TestSearchDirectProcurementsWarmup(t *testing.T) {
	calls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/EKAP/YeniIhaleArama.aspx", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "abc"})
	})
	mux.HandleFunc("/EKAP/error_page.html", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/EKAP/Ortak/YeniIhaleAramaData.ashx", func(w http.ResponseWriter, r *http.Request) {
		calls++
		// First data call bounces to the error page; once the session
		// cookie is in the jar the endpoint answers.
		if _, err := r.Cookie("ASP.NET_SessionId"); err != nil {
			http.Redirect(w, r, "/EKAP/error_page.html", http.StatusFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"yeniDogrudanTeminAramaResultList": []map[string]any{},
		})
	})

	client, _ := newTestClient(t, mux)

	result, err := client.SearchDirectProcurements(context.Background(), NewDirectSearchParams())
	if err != nil {
		t.Fatalf("SearchDirectProcurements() after warm-up error = %v", err)
	}
	if result.ReturnedCount != 0 {
		t.Errorf("ReturnedCount = %d, want 0", result.ReturnedCount)
	}
	if calls < 2 {
		t.Errorf("data endpoint calls = %d, want warm-up plus retry", calls)
	}
}

func TestDirectProcurementDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/EKAP/Ortak/YeniIhaleAramaData.ashx", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("metot") != "dtDetayGetir" {
			t.Errorf("metot = %q, want dtDetayGetir", q.Get("metot"))
		}
		if q.Get("dogrudanTeminId") != "tokenDetail" || q.Get("idareId") != "tokenAuth" {
			t.Errorf("tokens = %q/%q", q.Get("dogrudanTeminId"), q.Get("idareId"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"dogrudanTeminDetayResult": map[string]any{
				"DogrudanTeminBilgileri": map[string]any{
					"Dtn": "25DT1493794", "IsinAdi": "Kırtasiye Alımı",
					"Turu": "Mal", "DtDurumu": "Devam Eden",
					"BransKodList": []string{"30192700"},
				},
				"IdareBilgileri": map[string]any{
					"EnUstIdare": "MEB", "Idare": "Bir Okul", "Ili": "ANKARA",
				},
				"IlanBilgileri": map[string]any{
					"DogrudanTeminIlanBilgisiList": []map[string]any{
						{"IlanTarihi": "02.05.2025", "IlanTipi": 1, "EncIlanId": "encX"},
					},
					"SonucIlanBilgisiList": []map[string]any{
						{"IlanTarihi": "20.05.2025", "IlanTipi": 4, "EncIlanId": "encY"},
					},
				},
				"SozlesmeBilgileri": map[string]any{},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	details, err := client.DirectProcurementDetails(context.Background(), "tokenDetail", "tokenAuth", "")
	if err != nil {
		t.Fatalf("DirectProcurementDetails() error = %v", err)
	}

	if details.Basic.DTNo != "25DT1493794" || details.Basic.Name != "Kırtasiye Alımı" {
		t.Errorf("basic = %+v", details.Basic)
	}
	if details.Authority.Province != "ANKARA" {
		t.Errorf("province = %q", details.Authority.Province)
	}
	if len(details.Announcements) != 2 {
		t.Fatalf("announcements = %d, want 2 flattened", len(details.Announcements))
	}
	if details.Announcements[0].Category != "ilan" || details.Announcements[1].Category != "sonuc" {
		t.Errorf("categories = %q/%q", details.Announcements[0].Category, details.Announcements[1].Category)
	}
	if details.Contracts == nil {
		t.Error("Contracts should be non-nil")
	}
}

func TestSearchDirectAuthorities(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/EKAP/Ortak/YeniIhaleAramaData.ashx", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		key := "idareAramaResultList"
		if q.Get("metot") == "ustIdareAra" {
			key = "ustIdareAramaResultList"
		}
		json.NewEncoder(w).Encode(map[string]any{
			key: []map[string]any{
				{"A": "enc123", "D": "Ankara Büyükşehir Belediyesi"},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	for _, tc := range []struct {
		name   string
		search func() (*DirectAuthorityResult, error)
	}{
		{"idareAra", func() (*DirectAuthorityResult, error) {
			return client.SearchDirectAuthorities(context.Background(), "ankara", "")
		}},
		{"ustIdareAra", func() (*DirectAuthorityResult, error) {
			return client.SearchDirectParentAuthorities(context.Background(), "ankara", "")
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result, err := tc.search()
			if err != nil {
				t.Fatalf("search error = %v", err)
			}
			if result.ReturnedCount != 1 {
				t.Fatalf("ReturnedCount = %d, want 1", result.ReturnedCount)
			}
			if result.Authorities[0].Token != "enc123" {
				t.Errorf("token = %q", result.Authorities[0].Token)
			}
		})
	}
}

func TestApplyDTNo(t *testing.T) {
	tests := []struct {
		name     string
		dtNo     string
		wantYil  string
		wantSayi string
	}{
		{"canonical", "25DT1493794", "25", "1493794"},
		{"lowercase", "25dt42", "25", "42"},
		{"padded", " 25DT7 ", "25", "7"},
		{"digits fallback", "no 1493794 here", "", "1493794"},
		{"no digits", "hiçbiri", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			applyDTNo(params, tt.dtNo)
			if got := params.Get("dtnYil"); got != tt.wantYil {
				t.Errorf("dtnYil = %q, want %q", got, tt.wantYil)
			}
			if got := params.Get("dtnSayi"); got != tt.wantSayi {
				t.Errorf("dtnSayi = %q, want %q", got, tt.wantSayi)
			}
		})
	}
}

func TestSafeIntAndTruthy(t *testing.T) {
	if v := safeInt(json.RawMessage(`"12"`)); v == nil || *v != 12 {
		t.Errorf("safeInt(\"12\") = %v, want 12", v)
	}
	if v := safeInt(json.RawMessage(`7`)); v == nil || *v != 7 {
		t.Errorf("safeInt(7) = %v, want 7", v)
	}
	if v := safeInt(json.RawMessage(`null`)); v != nil {
		t.Errorf("safeInt(null) = %v, want nil", v)
	}
	if v := safeInt(json.RawMessage(`"n/a"`)); v != nil {
		t.Errorf("safeInt(n/a) = %v, want nil", v)
	}

	for raw, want := range map[string]bool{
		`true`: true, `false`: false, `1`: true, `0`: false,
		`"1"`: true, `"false"`: false, `""`: false, `null`: false,
	} {
		if got := truthy(json.RawMessage(raw)); got != want {
			t.Errorf("truthy(%s) = %v, want %v", raw, got, want)
		}
	}
}
