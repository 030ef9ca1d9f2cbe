package ekap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrDirectProcurementNotFound is returned when dtDetayGetir answers
// with an empty detail record.
var ErrDirectProcurementNotFound = errors.New("direct procurement details not found")

var dtNoPattern = regexp.MustCompile(`^(?i)(\d{2})DT(\d+)$`)

// DirectSearchParams filters the legacy direct procurement search.
// Pointer fields are optional and omitted from the query when nil.
type DirectSearchParams struct {
	SearchText          string
	SearchInDescription bool
	SearchInName        bool
	SearchInInfo        bool
	PageIndex           int
	OrderBy             int

	Year     *int
	DTNo     string // e.g. "25DT1493794"; parsed into year and number
	DTNumber *int

	DTType      *int
	EPriceOffer *bool

	StatusID   *int
	StatusText string
	DateStart  string // YYYY-MM-DD
	DateEnd    string

	ProvincePlate *int
	ProvinceName  string

	ScopeID   *int
	ScopeText string

	AuthorityID         *int
	ParentAuthorityCode string
	TopAuthorityCode    string

	// Cookies is an optional Cookie header for an existing EKAP session;
	// without one the client warms up its own session on demand.
	Cookies string
}

// NewDirectSearchParams returns params matching the portal defaults:
// all search scopes enabled, newest first, first page.
func NewDirectSearchParams() DirectSearchParams {
	return DirectSearchParams{
		SearchInDescription: true,
		SearchInName:        true,
		SearchInInfo:        true,
		PageIndex:           1,
		OrderBy:             10,
	}
}

// DirectProcurement is one formatted hit from the legacy search.
type DirectProcurement struct {
	DTNo              string          `json:"dt_no"`
	Title             string          `json:"title"`
	Authority         string          `json:"authority"`
	Type              CodeDescription `json:"type"`
	DueDatetime       string          `json:"due_datetime"`
	AnnouncementDate  string          `json:"announcement_date"`
	DetailToken       string          `json:"detail_token"`
	AnnouncementToken string          `json:"announcement_token"`
	ProvincePlate     *int            `json:"province_plate"`
	HasAnnouncement   bool            `json:"has_announcement"`
	HasDocument       bool            `json:"has_document"`
}

// DirectSearchResult is the formatted direct procurement search response.
type DirectSearchResult struct {
	DirectProcurements []DirectProcurement `json:"direct_procurements"`
	ReturnedCount      int                 `json:"returned_count"`
	PageIndex          int                 `json:"page_index"`
}

// The legacy endpoint answers with single-letter field names. Values are
// loosely typed; numbers sometimes arrive as strings.
type rawDirectProcurement struct {
	E1  string          `json:"E1"`
	E2  string          `json:"E2"`
	E3  string          `json:"E3"`
	E4  json.RawMessage `json:"E4"`
	E7  string          `json:"E7"`
	E8  string          `json:"E8"`
	E10 string          `json:"E10"`
	E11 string          `json:"E11"`
	E12 json.RawMessage `json:"E12"`
	E13 json.RawMessage `json:"E13"`
	E14 json.RawMessage `json:"E14"`
}

// SearchDirectProcurements queries the legacy YeniIhaleAramaData.ashx
// endpoint (metot=dtAra) and maps the terse field names to readable ones.
func (c *Client) SearchDirectProcurements(ctx context.Context, p DirectSearchParams) (*DirectSearchResult, error) {
	if p.PageIndex < 1 {
		p.PageIndex = 1
	}

	params := url.Values{}
	params.Set("metot", "dtAra")
	params.Set("arananIfade", p.SearchText)
	params.Set("dtAciklama", boolFlag(p.SearchInDescription))
	params.Set("dtAdi", boolFlag(p.SearchInName))
	params.Set("dtBilgiSecim", boolFlag(p.SearchInInfo))
	params.Set("orderBy", strconv.Itoa(p.OrderBy))
	params.Set("pageIndex", strconv.Itoa(p.PageIndex))

	// Endpoint expects a two-digit year (25 for 2025).
	if p.Year != nil {
		year := *p.Year
		if year > 99 {
			year %= 100
		}
		params.Set("dtnYil", strconv.Itoa(year))
	}

	if p.DTNumber != nil {
		params.Set("dtnSayi", strconv.Itoa(*p.DTNumber))
	} else if p.DTNo != "" {
		applyDTNo(params, p.DTNo)
	}

	if p.DTType != nil {
		params.Set("dtTuru", strconv.Itoa(*p.DTType))
	}
	if p.EPriceOffer != nil {
		params.Set("eihale", strconv.FormatBool(*p.EPriceOffer))
	}

	statusID := p.StatusID
	if statusID == nil && p.StatusText != "" {
		if id, ok := StatusIDForText(p.StatusText); ok {
			statusID = &id
		}
	}
	if statusID != nil {
		params.Set("dtDurum", strconv.Itoa(*statusID))
	}

	if d := formatDateForAPI(p.DateStart); d != "" {
		params.Set("dtTarihiBaslangic", d)
	}
	if d := formatDateForAPI(p.DateEnd); d != "" {
		params.Set("dtTarihiBitis", d)
	}

	plate := p.ProvincePlate
	if plate == nil && p.ProvinceName != "" {
		if pl, ok := PlateForProvince(p.ProvinceName); ok {
			plate = &pl
		}
	}
	if plate != nil {
		params.Set("ilID", strconv.Itoa(*plate))
	}

	scopeID := p.ScopeID
	if scopeID == nil && p.ScopeText != "" {
		if id, ok := ScopeIDForText(p.ScopeText); ok {
			scopeID = &id
		}
	}
	if scopeID != nil {
		params.Set("dtKapsami", strconv.Itoa(*scopeID))
	}

	if p.AuthorityID != nil {
		params.Set("idareId", strconv.Itoa(*p.AuthorityID))
	}
	if p.ParentAuthorityCode != "" {
		params.Set("ustIdareKod", p.ParentAuthorityCode)
	}
	if p.TopAuthorityCode != "" {
		params.Set("enUstIdareKod", p.TopAuthorityCode)
	}

	var resp struct {
		List []rawDirectProcurement `json:"yeniDogrudanTeminAramaResultList"`
	}
	if err := c.legacyGet(ctx, params, p.Cookies, &resp); err != nil {
		return nil, fmt.Errorf("direct procurement search failed: %w", err)
	}

	results := make([]DirectProcurement, 0, len(resp.List))
	for _, it := range resp.List {
		typeCode := safeInt(it.E4)
		typeDesc := "Bilinmiyor"
		if typeCode != nil {
			if desc, ok := DirectProcurementTypes[*typeCode]; ok {
				typeDesc = desc
			}
		}
		results = append(results, DirectProcurement{
			DTNo:              it.E1,
			Title:             it.E2,
			Authority:         it.E3,
			Type:              CodeDescription{Code: typeCode, Description: typeDesc},
			DueDatetime:       it.E7,
			AnnouncementDate:  it.E8,
			DetailToken:       it.E10,
			AnnouncementToken: it.E11,
			ProvincePlate:     safeInt(it.E12),
			HasAnnouncement:   truthy(it.E13),
			HasDocument:       truthy(it.E14),
		})
	}

	return &DirectSearchResult{
		DirectProcurements: results,
		ReturnedCount:      len(results),
		PageIndex:          p.PageIndex,
	}, nil
}

// applyDTNo parses a "25DT1493794" style reference into dtnYil and
// dtnSayi; anything else contributes its digits as dtnSayi.
func applyDTNo(params url.Values, dtNo string) {
	if m := dtNoPattern.FindStringSubmatch(strings.TrimSpace(dtNo)); m != nil {
		if params.Get("dtnYil") == "" {
			params.Set("dtnYil", strings.TrimLeft(m[1], "0"))
			if params.Get("dtnYil") == "" {
				params.Set("dtnYil", "0")
			}
		}
		params.Set("dtnSayi", m[2])
		return
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, dtNo)
	if digits != "" {
		params.Set("dtnSayi", digits)
	}
}

// DirectAnnouncementRef is one notice reference in a detail record.
type DirectAnnouncementRef struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	TypeCode any    `json:"type_code"`
	EncID    string `json:"enc_id"`
}

// DirectProcurementDetails is the formatted dtDetayGetir response.
type DirectProcurementDetails struct {
	Basic struct {
		DTNo             string   `json:"dt_no"`
		Name             string   `json:"name"`
		Type             string   `json:"type"`
		ScopeArticle     string   `json:"scope_article"`
		PartialBid       any      `json:"kismi_teklif"`
		PartsCount       any      `json:"parts_count"`
		OKASCodes        []string `json:"okas_codes"`
		AnnouncementForm string   `json:"announcement_form"`
		DTDatetime       string   `json:"dt_datetime"`
		Status           string   `json:"status"`
		CancelReason     string   `json:"cancel_reason"`
		CancelDate       string   `json:"cancel_date"`
		WillAnnounce     any      `json:"will_announce"`
		IsElectronic     any      `json:"is_electronic"`
		HasContractDraft any      `json:"has_contract_draft"`
		ExceptionBasis   string   `json:"exception_basis"`
		RegulationBasis  string   `json:"regulation_basis"`
	} `json:"basic"`
	Authority struct {
		TopAuthority    string `json:"top_authority"`
		ParentAuthority string `json:"parent_authority"`
		Name            string `json:"name"`
		Province        string `json:"province"`
	} `json:"authority"`
	Announcements []DirectAnnouncementRef `json:"announcements"`
	Contracts     []map[string]any        `json:"contracts"`
	Tokens        struct {
		DogrudanTeminID string `json:"dogrudanTeminId"`
		IdareID         string `json:"idareId"`
	} `json:"tokens"`
}

type rawDirectAnnouncement struct {
	IlanTarihi string `json:"IlanTarihi"`
	IlanTipi   any    `json:"IlanTipi"`
	EncIlanID  string `json:"EncIlanId"`
}

// DirectProcurementDetails fetches the detail record of a direct
// procurement using the encrypted tokens from the search results
// (detail_token and announcement_token).
func (c *Client) DirectProcurementDetails(ctx context.Context, dogrudanTeminID, idareID, cookieHeader string) (*DirectProcurementDetails, error) {
	params := url.Values{}
	params.Set("metot", "dtDetayGetir")
	params.Set("dogrudanTeminId", dogrudanTeminID)
	params.Set("idareId", idareID)

	var resp struct {
		Detail *struct {
			DogrudanTeminBilgileri struct {
				Dtn                               string   `json:"Dtn"`
				IsinAdi                           string   `json:"IsinAdi"`
				Turu                              string   `json:"Turu"`
				YasaKapsamiTeminMaddesi           string   `json:"YasaKapsamiTeminMaddesi"`
				KismiTeklif                       any      `json:"KismiTeklif"`
				KisimSayisi                       any      `json:"KisimSayisi"`
				BransKodList                      []string `json:"BransKodList"`
				IlaninSekli                       string   `json:"IlaninSekli"`
				DtTarihSaati                      string   `json:"DtTarihSaati"`
				DtDurumu                          string   `json:"DtDurumu"`
				IptalNedeni                       string   `json:"IptalNedeni"`
				IptalTarihi                       string   `json:"IptalTarihi"`
				DogrudanTeminDuyurusuYapilacakMi  any      `json:"DogrudanTeminDuyurusuYapilacakMi"`
				EIhale                            any      `json:"EIhale"`
				DogrudanTeminSozlesmeTasarisiVarMi any     `json:"DogrudanTeminSozlesmeTasarisiVarMi"`
				IstisnaAliminDayanagi             string   `json:"IstisnaAliminDayanagi"`
				MevzuatDayanagi                   string   `json:"MevzuatDayanagi"`
			} `json:"DogrudanTeminBilgileri"`
			IdareBilgileri struct {
				EnUstIdare string `json:"EnUstIdare"`
				UstIdare   string `json:"UstIdare"`
				Idare      string `json:"Idare"`
				Ili        string `json:"Ili"`
			} `json:"IdareBilgileri"`
			IlanBilgileri struct {
				DogrudanTeminIlanBilgisiList []rawDirectAnnouncement `json:"DogrudanTeminIlanBilgisiList"`
				DuzeltmeIlanBilgisiList      []rawDirectAnnouncement `json:"DuzeltmeIlanBilgisiList"`
				IptalIlanBilgisiList         []rawDirectAnnouncement `json:"IptalIlanBilgisiList"`
				SonucIlanBilgisiList         []rawDirectAnnouncement `json:"SonucIlanBilgisiList"`
			} `json:"IlanBilgileri"`
			SozlesmeBilgileri struct {
				SozlesmeBilgisiList []map[string]any `json:"SozlesmeBilgisiList"`
			} `json:"SozlesmeBilgileri"`
		} `json:"dogrudanTeminDetayResult"`
	}
	if err := c.legacyGet(ctx, params, cookieHeader, &resp); err != nil {
		return nil, fmt.Errorf("direct procurement details failed: %w", err)
	}
	if resp.Detail == nil {
		return nil, ErrDirectProcurementNotFound
	}
	d := resp.Detail

	details := &DirectProcurementDetails{}
	details.Basic.DTNo = d.DogrudanTeminBilgileri.Dtn
	details.Basic.Name = d.DogrudanTeminBilgileri.IsinAdi
	details.Basic.Type = d.DogrudanTeminBilgileri.Turu
	details.Basic.ScopeArticle = d.DogrudanTeminBilgileri.YasaKapsamiTeminMaddesi
	details.Basic.PartialBid = d.DogrudanTeminBilgileri.KismiTeklif
	details.Basic.PartsCount = d.DogrudanTeminBilgileri.KisimSayisi
	details.Basic.OKASCodes = d.DogrudanTeminBilgileri.BransKodList
	details.Basic.AnnouncementForm = d.DogrudanTeminBilgileri.IlaninSekli
	details.Basic.DTDatetime = d.DogrudanTeminBilgileri.DtTarihSaati
	details.Basic.Status = d.DogrudanTeminBilgileri.DtDurumu
	details.Basic.CancelReason = d.DogrudanTeminBilgileri.IptalNedeni
	details.Basic.CancelDate = d.DogrudanTeminBilgileri.IptalTarihi
	details.Basic.WillAnnounce = d.DogrudanTeminBilgileri.DogrudanTeminDuyurusuYapilacakMi
	details.Basic.IsElectronic = d.DogrudanTeminBilgileri.EIhale
	details.Basic.HasContractDraft = d.DogrudanTeminBilgileri.DogrudanTeminSozlesmeTasarisiVarMi
	details.Basic.ExceptionBasis = d.DogrudanTeminBilgileri.IstisnaAliminDayanagi
	details.Basic.RegulationBasis = d.DogrudanTeminBilgileri.MevzuatDayanagi
	details.Authority.TopAuthority = d.IdareBilgileri.EnUstIdare
	details.Authority.ParentAuthority = d.IdareBilgileri.UstIdare
	details.Authority.Name = d.IdareBilgileri.Idare
	details.Authority.Province = d.IdareBilgileri.Ili
	details.Tokens.DogrudanTeminID = dogrudanTeminID
	details.Tokens.IdareID = idareID

	announcements := []DirectAnnouncementRef{}
	appendRefs := func(items []rawDirectAnnouncement, category string) {
		for _, it := range items {
			announcements = append(announcements, DirectAnnouncementRef{
				Category: category,
				Date:     it.IlanTarihi,
				TypeCode: it.IlanTipi,
				EncID:    it.EncIlanID,
			})
		}
	}
	appendRefs(d.IlanBilgileri.DogrudanTeminIlanBilgisiList, "ilan")
	appendRefs(d.IlanBilgileri.DuzeltmeIlanBilgisiList, "duzeltme")
	appendRefs(d.IlanBilgileri.IptalIlanBilgisiList, "iptal")
	appendRefs(d.IlanBilgileri.SonucIlanBilgisiList, "sonuc")
	details.Announcements = announcements

	if d.SozlesmeBilgileri.SozlesmeBilgisiList != nil {
		details.Contracts = d.SozlesmeBilgileri.SozlesmeBilgisiList
	} else {
		details.Contracts = []map[string]any{}
	}

	return details, nil
}

// DirectAuthority is one authority hit from the legacy idareAra and
// ustIdareAra lookups. Token is the value the search filters expect:
// an encrypted idareId for authorities, a "44|07" style code for
// parent authorities.
type DirectAuthority struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// DirectAuthorityResult is the formatted legacy authority lookup response.
type DirectAuthorityResult struct {
	Authorities   []DirectAuthority `json:"authorities"`
	ReturnedCount int               `json:"returned_count"`
	SearchTerm    string            `json:"search_term"`
}

// SearchDirectAuthorities searches authorities for the direct
// procurement filters (metot=idareAra).
func (c *Client) SearchDirectAuthorities(ctx context.Context, term, cookieHeader string) (*DirectAuthorityResult, error) {
	return c.legacyAuthoritySearch(ctx, "idareAra", "idareAramaResultList", term, cookieHeader)
}

// SearchDirectParentAuthorities searches parent authorities
// (metot=ustIdareAra); the tokens feed DirectSearchParams.ParentAuthorityCode.
func (c *Client) SearchDirectParentAuthorities(ctx context.Context, term, cookieHeader string) (*DirectAuthorityResult, error) {
	return c.legacyAuthoritySearch(ctx, "ustIdareAra", "ustIdareAramaResultList", term, cookieHeader)
}

func (c *Client) legacyAuthoritySearch(ctx context.Context, metot, listKey, term, cookieHeader string) (*DirectAuthorityResult, error) {
	params := url.Values{}
	params.Set("metot", metot)
	params.Set("aranan", term)
	params.Set("ES", "")
	params.Set("ihaleidListesi", "")

	var resp map[string][]struct {
		A string `json:"A"`
		D string `json:"D"`
	}
	if err := c.legacyGet(ctx, params, cookieHeader, &resp); err != nil {
		return nil, fmt.Errorf("legacy authority search failed: %w", err)
	}

	items := resp[listKey]
	authorities := make([]DirectAuthority, 0, len(items))
	for _, it := range items {
		authorities = append(authorities, DirectAuthority{Token: it.A, Name: it.D})
	}

	return &DirectAuthorityResult{
		Authorities:   authorities,
		ReturnedCount: len(authorities),
		SearchTerm:    term,
	}, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// safeInt decodes a JSON value that may be a number, a numeric string,
// null or absent.
func safeInt(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &v
		}
	}
	return nil
}

// truthy treats JSON true, nonzero numbers and non-empty strings
// (except "false" and "0") as true.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(strings.ToLower(s))
		return s != "" && s != "false" && s != "0"
	}
	return false
}
