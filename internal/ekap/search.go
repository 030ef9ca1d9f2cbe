package ekap

import (
	"context"
	"fmt"
)

// SearchParams carries the full EKAP v2 tender search filter surface.
// Pointer fields are tri-state: nil means "do not filter".
type SearchParams struct {
	SearchText string
	IKNYear    *int
	IKNNumber  *int

	TenderTypes []int

	TenderDateStart       string // YYYY-MM-DD
	TenderDateEnd         string
	AnnouncementDateStart string
	AnnouncementDateEnd   string

	SearchType string // "GirdigimGibi" (as typed) or "TumKelimeler" (all words)
	OrderBy    string // "ihaleTarihi", "ihaleAdi" or "idareAdi"
	SortOrder  string // "asc" or "desc"

	// Boolean filters, named after the EKAP flags they drive.
	EIhale                       *bool
	EEksiltme                    *bool
	OrtakAlim                    *bool
	KismiTeklif                  *bool
	FiyatDisiUnsur               *bool
	EkonomikMaliYeterlilik       *bool
	MeslekiTeknikYeterlilik      *bool
	IsDeneyimiBelgeleri          *bool
	YerliIstekliyeFiyatAvantaji  *bool
	YabanciIstekliyeIzin         *bool
	AlternatifTeklif             *bool
	KonsorsiyumKatilimi          *bool
	AltYuklenici                 *bool
	FiyatFarki                   *bool
	Avans                        *bool
	CerceveAnlasma               *bool
	PersonelCalistirilmasinaDayali *bool

	// List filters. ProvinceAPIIDs holds API ids, not plate numbers;
	// use PlateToAPIID to convert.
	ProvinceAPIIDs    []int
	TenderStatuses    []int
	TenderMethods     []int
	TenderSubMethods  []int
	OKASCodes         []string
	AuthorityIDs      []int
	ProposalTypes     []int
	AnnouncementTypes []int

	// Search scope toggles; NewSearchParams enables all of them.
	SearchInIKN            bool
	SearchInTitle          bool
	SearchInAnnouncement   bool
	SearchInTechSpec       bool
	SearchInAdminSpec      bool
	SearchInSimilarWork    bool
	SearchInLocation       bool
	SearchInNatureQuantity bool
	SearchInTenderInfo     bool
	SearchInContractDraft  bool
	SearchInBidForm        bool

	Skip  int
	Limit int
}

// NewSearchParams returns params with the defaults the portal UI uses:
// every search scope enabled, newest tenders first, 10 results.
func NewSearchParams() SearchParams {
	return SearchParams{
		SearchType:             "GirdigimGibi",
		OrderBy:                "ihaleTarihi",
		SortOrder:              "desc",
		SearchInIKN:            true,
		SearchInTitle:          true,
		SearchInAnnouncement:   true,
		SearchInTechSpec:       true,
		SearchInAdminSpec:      true,
		SearchInSimilarWork:    true,
		SearchInLocation:       true,
		SearchInNatureQuantity: true,
		SearchInTenderInfo:     true,
		SearchInContractDraft:  true,
		SearchInBidForm:        true,
		Limit:                  10,
	}
}

// searchPayload mirrors the GetListByParameters request body. Unset
// tri-state filters serialize as explicit nulls, which is what the API
// expects; list filters are always present, empty when unused.
type searchPayload struct {
	SearchText string  `json:"searchText"`
	FilterType *string `json:"filterType"`

	IKNdeAra                     bool `json:"ikNdeAra"`
	IhaleAdindaAra               bool `json:"ihaleAdindaAra"`
	IhaleIlanindaAra             bool `json:"ihaleIlanindaAra"`
	TeknikSartnamedeAra          bool `json:"teknikSartnamedeAra"`
	IdariSartnamedeAra           bool `json:"idariSartnamedeAra"`
	BenzerIsMaddesindeAra        bool `json:"benzerIsMaddesindeAra"`
	IsinYapilacagiYerMaddesinde  bool `json:"isinYapilacagiYerMaddesindeAra"`
	NitelikTurMiktarMaddesinde   bool `json:"nitelikTurMiktarMaddesindeAra"`
	IhaleBilgilerindeAra         bool `json:"ihaleBilgilerindeAra"`
	SozlesmeTasarisindaAra       bool `json:"sozlesmeTasarisindaAra"`
	TeklifCetvelindeAra          bool `json:"teklifCetvelindeAra"`

	SearchType string `json:"searchType"`

	IKNYili *int `json:"iknYili"`
	IKNSayi *int `json:"iknSayi"`

	IhaleTarihSaatBaslangic *string `json:"ihaleTarihSaatBaslangic"`
	IhaleTarihSaatBitis     *string `json:"ihaleTarihSaatBitis"`
	IlanTarihSaatBaslangic  *string `json:"ilanTarihSaatBaslangic"`
	IlanTarihSaatBitis      *string `json:"ilanTarihSaatBitis"`

	YasaKapsami4734List []int    `json:"yasaKapsami4734List"`
	IhaleTuruIDList     []int    `json:"ihaleTuruIdList"`
	IhaleUsulIDList     []int    `json:"ihaleUsulIdList"`
	IhaleUsulAltIDList  []int    `json:"ihaleUsulAltIdList"`
	IhaleIlIDList       []int    `json:"ihaleIlIdList"`
	IhaleDurumIDList    []int    `json:"ihaleDurumIdList"`
	IdareIDList         []int    `json:"idareIdList"`
	IhaleIlanTuruIDList []int    `json:"ihaleIlanTuruIdList"`
	TeklifTuruIDList    []int    `json:"teklifTuruIdList"`
	AsiriDusukTeklifIDs []int    `json:"asiriDusukTeklifIdList"`
	IstisnaMaddeIDList  []int    `json:"istisnaMaddeIdList"`
	OKASBransKodList    []string `json:"okasBransKodList"`
	OKASBransAdiList    []string `json:"okasBransAdiList"`
	TitubbKodList       []string `json:"titubbKodList"`
	GmdnKodList         []string `json:"gmdnKodList"`

	EIhale                       *bool `json:"eIhale"`
	EEksiltmeYapilacakMi         *bool `json:"eEksiltmeYapilacakMi"`
	OrtakAlimMi                  *bool `json:"ortakAlimMi"`
	KismiTeklifMi                *bool `json:"kismiTeklifMi"`
	FiyatDisiUnsurVarmi          *bool `json:"fiyatDisiUnsurVarmi"`
	EkonomikVeMaliYeterlilik     *bool `json:"ekonomikVeMaliYeterlilikBelgeleriIsteniyorMu"`
	MeslekiTeknikYeterlilik      *bool `json:"meslekiTeknikYeterlilikBelgeleriIsteniyorMu"`
	IsDeneyimiGosterenBelgeler   *bool `json:"isDeneyimiGosterenBelgelerIsteniyorMu"`
	YerliIstekliyeFiyatAvantaji  *bool `json:"yerliIstekliyeFiyatAvantajiUgulaniyorMu"`
	YabanciIsteklilereIzin       *bool `json:"yabanciIsteklilereIzinVeriliyorMu"`
	AlternatifTeklifVerilebilir  *bool `json:"alternatifTeklifVerilebilirMi"`
	KonsorsiyumKatilabilir       *bool `json:"konsorsiyumKatilabilirMi"`
	AltYukleniciCalistirilabilir *bool `json:"altYukleniciCalistirilabilirMi"`
	FiyatFarkiVerilecek          *bool `json:"fiyatFarkiVerilecekMi"`
	AvansVerilecek               *bool `json:"avansVerilecekMi"`
	CerceveAnlasmaMi             *bool `json:"cerceveAnlasmaMi"`
	PersonelCalistirilmasina     *bool `json:"personelCalistirilmasinaDayaliMi"`

	OrderBy        string `json:"orderBy"`
	SiralamaTipi   string `json:"siralamaTipi"`
	PaginationSkip int    `json:"paginationSkip"`
	PaginationTake int    `json:"paginationTake"`
}

// CodeDescription pairs a raw portal code with its human description.
type CodeDescription struct {
	Code        any    `json:"code"`
	Description string `json:"description"`
}

// Tender is one formatted search hit.
type Tender struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	IKN             string          `json:"ikn"`
	Type            CodeDescription `json:"type"`
	Method          string          `json:"method"`
	Status          CodeDescription `json:"status"`
	Authority       string          `json:"authority"`
	Province        string          `json:"province"`
	TenderDatetime  string          `json:"tender_datetime"`
	DocumentCount   int             `json:"document_count"`
	HasAnnouncement bool            `json:"has_announcement"`
	DocumentURL     string          `json:"document_url,omitempty"`
}

// SearchResult is the formatted tender search response.
type SearchResult struct {
	Tenders       []Tender `json:"tenders"`
	TotalCount    int      `json:"total_count"`
	ReturnedCount int      `json:"returned_count"`
}

type rawTender struct {
	ID                int64  `json:"id"`
	IhaleAdi          string `json:"ihaleAdi"`
	IKN               string `json:"ikn"`
	IhaleTip          any    `json:"ihaleTip"`
	IhaleTipAciklama  string `json:"ihaleTipAciklama"`
	IhaleUsulAciklama string `json:"ihaleUsulAciklama"`
	IhaleDurum        any    `json:"ihaleDurum"`
	IhaleDurumAciklama string `json:"ihaleDurumAciklama"`
	IdareAdi          string `json:"idareAdi"`
	IhaleIlAdi        string `json:"ihaleIlAdi"`
	IhaleTarihSaat    string `json:"ihaleTarihSaat"`
	DokumanSayisi     int    `json:"dokumanSayisi"`
	IlanVarMi         bool   `json:"ilanVarMi"`
}

type searchResponse struct {
	List       []rawTender `json:"list"`
	TotalCount int         `json:"totalCount"`
}

// SearchTenders runs a filtered tender search and resolves document URLs
// for hits that have documents (best effort).
func (c *Client) SearchTenders(ctx context.Context, p SearchParams) (*SearchResult, error) {
	payload := buildSearchPayload(p)

	var resp searchResponse
	if err := c.postJSON(ctx, tenderEndpoint, payload, &resp); err != nil {
		return nil, fmt.Errorf("tender search failed: %w", err)
	}

	tenders := make([]Tender, 0, len(resp.List))
	for _, raw := range resp.List {
		t := Tender{
			ID:              raw.ID,
			Name:            raw.IhaleAdi,
			IKN:             raw.IKN,
			Type:            CodeDescription{Code: raw.IhaleTip, Description: raw.IhaleTipAciklama},
			Method:          raw.IhaleUsulAciklama,
			Status:          CodeDescription{Code: raw.IhaleDurum, Description: raw.IhaleDurumAciklama},
			Authority:       raw.IdareAdi,
			Province:        raw.IhaleIlAdi,
			TenderDatetime:  raw.IhaleTarihSaat,
			DocumentCount:   raw.DokumanSayisi,
			HasAnnouncement: raw.IlanVarMi,
		}

		if raw.ID != 0 && raw.DokumanSayisi > 0 {
			if doc, err := c.TenderDocumentURL(ctx, raw.ID, "1"); err == nil {
				t.DocumentURL = doc.URL
			} else {
				c.logger.Debug("Document URL lookup failed", "tenderID", raw.ID, "error", err)
			}
		}

		tenders = append(tenders, t)
	}

	return &SearchResult{
		Tenders:       tenders,
		TotalCount:    resp.TotalCount,
		ReturnedCount: len(tenders),
	}, nil
}

func buildSearchPayload(p SearchParams) searchPayload {
	return searchPayload{
		SearchText: p.SearchText,

		IKNdeAra:                    p.SearchInIKN,
		IhaleAdindaAra:              p.SearchInTitle,
		IhaleIlanindaAra:            p.SearchInAnnouncement,
		TeknikSartnamedeAra:         p.SearchInTechSpec,
		IdariSartnamedeAra:          p.SearchInAdminSpec,
		BenzerIsMaddesindeAra:       p.SearchInSimilarWork,
		IsinYapilacagiYerMaddesinde: p.SearchInLocation,
		NitelikTurMiktarMaddesinde:  p.SearchInNatureQuantity,
		IhaleBilgilerindeAra:        p.SearchInTenderInfo,
		SozlesmeTasarisindaAra:      p.SearchInContractDraft,
		TeklifCetvelindeAra:         p.SearchInBidForm,

		SearchType: p.SearchType,

		IKNYili: p.IKNYear,
		IKNSayi: p.IKNNumber,

		IhaleTarihSaatBaslangic: apiDate(p.TenderDateStart),
		IhaleTarihSaatBitis:     apiDate(p.TenderDateEnd),
		IlanTarihSaatBaslangic:  apiDate(p.AnnouncementDateStart),
		IlanTarihSaatBitis:      apiDate(p.AnnouncementDateEnd),

		YasaKapsami4734List: []int{},
		IhaleTuruIDList:     intsOrEmpty(p.TenderTypes),
		IhaleUsulIDList:     intsOrEmpty(p.TenderMethods),
		IhaleUsulAltIDList:  intsOrEmpty(p.TenderSubMethods),
		IhaleIlIDList:       intsOrEmpty(p.ProvinceAPIIDs),
		IhaleDurumIDList:    intsOrEmpty(p.TenderStatuses),
		IdareIDList:         intsOrEmpty(p.AuthorityIDs),
		IhaleIlanTuruIDList: intsOrEmpty(p.AnnouncementTypes),
		TeklifTuruIDList:    intsOrEmpty(p.ProposalTypes),
		AsiriDusukTeklifIDs: []int{},
		IstisnaMaddeIDList:  []int{},
		OKASBransKodList:    stringsOrEmpty(p.OKASCodes),
		OKASBransAdiList:    []string{},
		TitubbKodList:       []string{},
		GmdnKodList:         []string{},

		EIhale:                       p.EIhale,
		EEksiltmeYapilacakMi:         p.EEksiltme,
		OrtakAlimMi:                  p.OrtakAlim,
		KismiTeklifMi:                p.KismiTeklif,
		FiyatDisiUnsurVarmi:          p.FiyatDisiUnsur,
		EkonomikVeMaliYeterlilik:     p.EkonomikMaliYeterlilik,
		MeslekiTeknikYeterlilik:      p.MeslekiTeknikYeterlilik,
		IsDeneyimiGosterenBelgeler:   p.IsDeneyimiBelgeleri,
		YerliIstekliyeFiyatAvantaji:  p.YerliIstekliyeFiyatAvantaji,
		YabanciIsteklilereIzin:       p.YabanciIstekliyeIzin,
		AlternatifTeklifVerilebilir:  p.AlternatifTeklif,
		KonsorsiyumKatilabilir:       p.KonsorsiyumKatilimi,
		AltYukleniciCalistirilabilir: p.AltYuklenici,
		FiyatFarkiVerilecek:          p.FiyatFarki,
		AvansVerilecek:               p.Avans,
		CerceveAnlasmaMi:             p.CerceveAnlasma,
		PersonelCalistirilmasina:     p.PersonelCalistirilmasinaDayali,

		OrderBy:        p.OrderBy,
		SiralamaTipi:   p.SortOrder,
		PaginationSkip: p.Skip,
		PaginationTake: p.Limit,
	}
}

// apiDate returns a DD.MM.YYYY pointer or nil, so unset dates serialize
// as null like the portal's own frontend sends them.
func apiDate(date string) *string {
	formatted := formatDateForAPI(date)
	if formatted == "" {
		return nil
	}
	return &formatted
}

func intsOrEmpty(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
