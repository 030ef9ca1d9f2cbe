package ekap

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrTenderNotFound is returned when the details endpoint answers with
// an empty item for the requested tender id.
var ErrTenderNotFound = errors.New("tender details not found")

// TenderBasicInfo groups the headline fields of a tender detail record.
type TenderBasicInfo struct {
	IsElectronic      bool    `json:"is_electronic"`
	MethodCode        any     `json:"method_code"`
	MethodDescription string  `json:"method_description"`
	TypeDescription   string  `json:"type_description"`
	ScopeDescription  string  `json:"scope_description"`
	TenderDatetime    string  `json:"tender_datetime"`
	Location          string  `json:"location"`
	Venue             string  `json:"venue"`
	ComplaintFee      any     `json:"complaint_fee"`
	IsPartial         bool    `json:"is_partial"`
}

// TenderOKASCode is one OKAS reference attached to a tender.
type TenderOKASCode struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	FullDescription string `json:"full_description"`
}

// TenderAuthority describes the contracting authority of a tender.
type TenderAuthority struct {
	ID               *int64 `json:"id"`
	Name             string `json:"name"`
	Code1            string `json:"code1"`
	Code2            string `json:"code2"`
	Phone            string `json:"phone"`
	Fax              string `json:"fax"`
	ParentAuthority  string `json:"parent_authority"`
	TopAuthorityCode any    `json:"top_authority_code"`
	TopAuthorityName string `json:"top_authority_name"`
	Province         string `json:"province"`
	District         string `json:"district"`
}

// TenderProcessRules mirrors the islemlerKuralSeti block.
type TenderProcessRules struct {
	CanDownloadDocuments bool `json:"can_download_documents"`
	HasSubmittedBid      bool `json:"has_submitted_bid"`
	CanSubmitBid         bool `json:"can_submit_bid"`
	HasNonPriceFactors   bool `json:"has_non_price_factors"`
	ContractSigned       bool `json:"contract_signed"`
	IsElectronic         bool `json:"is_electronic"`
	IsOwnTender          bool `json:"is_own_tender"`
	ElectronicAuction    bool `json:"electronic_auction"`
}

// TenderFlags mirrors the visibility flags of the detail record.
type TenderFlags struct {
	IsAuthorityTender       bool `json:"is_authority_tender"`
	IsWithoutAnnouncement   bool `json:"is_without_announcement"`
	IsInvitationOnly        bool `json:"is_invitation_only"`
	ShowDetailDocuments     bool `json:"show_detail_documents"`
	ShowDocumentDownloaders bool `json:"show_document_downloaders"`
}

// DetailAnnouncement is one notice embedded in the detail record, with
// its HTML body rendered to markdown.
type DetailAnnouncement struct {
	ID              any             `json:"id"`
	Type            CodeDescription `json:"type"`
	Title           string          `json:"title"`
	Date            string          `json:"date"`
	Status          any             `json:"status"`
	MarkdownContent string          `json:"markdown_content,omitempty"`
	ContentPreview  string          `json:"content_preview,omitempty"`
}

// AnnouncementsSummary aggregates the notices of a tender detail record.
type AnnouncementsSummary struct {
	TotalCount     int                  `json:"total_count"`
	Announcements  []DetailAnnouncement `json:"announcements"`
	TypesAvailable []string             `json:"types_available"`
}

// CancellationInfo is present when the tender was cancelled.
type CancellationInfo struct {
	CancelledDate       string `json:"cancelled_date"`
	CancellationReason  string `json:"cancellation_reason"`
	CancellationArticle any    `json:"cancellation_article"`
}

// TenderDetails is the full formatted tender detail record.
type TenderDetails struct {
	TenderID         any                  `json:"tender_id"`
	IKN              string               `json:"ikn"`
	Name             string               `json:"name"`
	Status           CodeDescription      `json:"status"`
	BasicInfo        TenderBasicInfo      `json:"basic_info"`
	Characteristics  []string             `json:"characteristics"`
	OKASCodes        []TenderOKASCode     `json:"okas_codes"`
	Authority        TenderAuthority      `json:"authority"`
	ProcessRules     TenderProcessRules   `json:"process_rules"`
	Announcements    AnnouncementsSummary `json:"announcements_summary"`
	Flags            TenderFlags          `json:"flags"`
	DocumentCount    int                  `json:"document_count"`
	CancellationInfo *CancellationInfo    `json:"cancellation_info,omitempty"`
}

type detailResponse struct {
	Item *struct {
		ID         any    `json:"id"`
		IKN        string `json:"ikn"`
		IhaleAdi   string `json:"ihaleAdi"`
		IhaleDurum any    `json:"ihaleDurum"`
		EIhale     bool   `json:"eIhale"`
		IhaleUsul  any    `json:"ihaleUsul"`
		KismiIhale bool   `json:"kismiIhale"`

		IhaleKapsamAciklama string `json:"ihaleKapsamAciklama"`
		DokumanSayisi       int    `json:"dokumanSayisi"`

		IhaleOzellikList []struct {
			IhaleOzellik string `json:"ihaleOzellik"`
		} `json:"ihaleOzellikList"`

		IhaleBilgi struct {
			IhaleDurumAciklama           string `json:"ihaleDurumAciklama"`
			IhaleUsulAciklama            string `json:"ihaleUsulAciklama"`
			IhaleTipiAciklama            string `json:"ihaleTipiAciklama"`
			IhaleTarihSaat               string `json:"ihaleTarihSaat"`
			IsinYapilacagiYer            string `json:"isinYapilacagiYer"`
			IhaleYeri                    string `json:"ihaleYeri"`
			ItirazenSikayetBasvuruBedeli any    `json:"itirazenSikayetBasvuruBedeli"`
			IptalTarihi                  string `json:"iptalTarihi"`
			IptalNedeni                  string `json:"iptalNedeni"`
			IptalMadde                   any    `json:"iptalMadde"`
		} `json:"ihaleBilgi"`

		IhtiyacKalemiOkasList []struct {
			Kodu    string `json:"kodu"`
			Adi     string `json:"adi"`
			KoduAdi string `json:"koduAdi"`
		} `json:"ihtiyacKalemiOkasList"`

		Idare struct {
			ID            *int64 `json:"id"`
			Adi           string `json:"adi"`
			Kod1          string `json:"kod1"`
			Kod2          string `json:"kod2"`
			Telefon       string `json:"telefon"`
			Fax           string `json:"fax"`
			UstIdare      string `json:"ustIdare"`
			EnUstIdareKod any    `json:"enUstIdareKod"`
			EnUstIdareAdi string `json:"enUstIdareAdi"`
			Il            struct {
				Adi string `json:"adi"`
			} `json:"il"`
			Ilce struct {
				IlceAdi string `json:"ilceAdi"`
			} `json:"ilce"`
		} `json:"idare"`

		IslemlerKuralSeti struct {
			DokumanIndirmisMi    bool `json:"dokumanIndirmisMi"`
			TeklifteBulunmusMu   bool `json:"teklifteBulunmusMu"`
			TeklifVerilebilirMi  bool `json:"teklifVerilebilirMi"`
			FiyatDisiUnsurVarMi  bool `json:"fiyatDisiUnsurVarMi"`
			SozlesmeImzaliMi     bool `json:"sozlesmeImzaliMi"`
			EIhaleMi             bool `json:"eIhaleMi"`
			IdareKendiIhaleMi    bool `json:"idareKendiIhaleMi"`
			EEksiltmeYapilacakMi bool `json:"eEksiltmeYapilacakMi"`
		} `json:"islemlerKuralSeti"`

		IlanList []struct {
			ID         any    `json:"id"`
			IlanTip    any    `json:"ilanTip"`
			Baslik     string `json:"baslik"`
			IlanTarihi string `json:"ilanTarihi"`
			Status     any    `json:"status"`
			VeriHTML   string `json:"veriHtml"`
		} `json:"ilanList"`

		IhaleniIdaresiMi            bool `json:"ihaleniIdaresiMi"`
		IhaleIlansizMi              bool `json:"ihaleIlansizMi"`
		IhaleyeDavetEdilenMi        bool `json:"ihaleyeDavetEdilenMi"`
		IhaleDetayDokumaniGorsunMu  bool `json:"ihaleDetayDokumaniGorsunMu"`
		DokumanIndirenlerGosterilsin bool `json:"dokumanIndirenlerGosterilsinMi"`
	} `json:"item"`
}

// TenderDetails fetches and formats the full detail record of a tender.
func (c *Client) TenderDetails(ctx context.Context, tenderID int64) (*TenderDetails, error) {
	// The details endpoint wants the id as a string, unlike the rest.
	payload := map[string]any{"ihaleId": strconv.FormatInt(tenderID, 10)}

	var resp detailResponse
	if err := c.postJSON(ctx, detailsEndpoint, payload, &resp); err != nil {
		return nil, fmt.Errorf("tender details failed: %w", err)
	}
	if resp.Item == nil {
		return nil, fmt.Errorf("%w: tender %d", ErrTenderNotFound, tenderID)
	}
	item := resp.Item

	characteristics := make([]string, 0, len(item.IhaleOzellikList))
	for _, ch := range item.IhaleOzellikList {
		characteristics = append(characteristics, cleanCharacteristic(ch.IhaleOzellik))
	}

	okasCodes := make([]TenderOKASCode, 0, len(item.IhtiyacKalemiOkasList))
	for _, o := range item.IhtiyacKalemiOkasList {
		okasCodes = append(okasCodes, TenderOKASCode{
			Code:            o.Kodu,
			Name:            o.Adi,
			FullDescription: o.KoduAdi,
		})
	}

	announcements := make([]DetailAnnouncement, 0, len(item.IlanList))
	typesSeen := make(map[string]struct{})
	typesAvailable := []string{}
	for _, ilan := range item.IlanList {
		typeCode := fmt.Sprintf("%v", ilan.IlanTip)
		typeDesc, ok := AnnouncementTypes[typeCode]
		if !ok {
			typeDesc = "Type " + typeCode
		}
		if _, seen := typesSeen[typeDesc]; !seen {
			typesSeen[typeDesc] = struct{}{}
			typesAvailable = append(typesAvailable, typeDesc)
		}

		a := DetailAnnouncement{
			ID:     ilan.ID,
			Type:   CodeDescription{Code: ilan.IlanTip, Description: typeDesc},
			Title:  ilan.Baslik,
			Date:   ilan.IlanTarihi,
			Status: ilan.Status,
		}
		if ilan.VeriHTML != "" {
			a.MarkdownContent = c.converter.ToMarkdown(ilan.VeriHTML)
			a.ContentPreview = c.converter.Preview(ilan.VeriHTML, announcementPreviewLen)
		}
		announcements = append(announcements, a)
	}

	details := &TenderDetails{
		TenderID: item.ID,
		IKN:      item.IKN,
		Name:     item.IhaleAdi,
		Status: CodeDescription{
			Code:        item.IhaleDurum,
			Description: item.IhaleBilgi.IhaleDurumAciklama,
		},
		BasicInfo: TenderBasicInfo{
			IsElectronic:      item.EIhale,
			MethodCode:        item.IhaleUsul,
			MethodDescription: item.IhaleBilgi.IhaleUsulAciklama,
			TypeDescription:   item.IhaleBilgi.IhaleTipiAciklama,
			ScopeDescription:  item.IhaleKapsamAciklama,
			TenderDatetime:    item.IhaleBilgi.IhaleTarihSaat,
			Location:          item.IhaleBilgi.IsinYapilacagiYer,
			Venue:             item.IhaleBilgi.IhaleYeri,
			ComplaintFee:      item.IhaleBilgi.ItirazenSikayetBasvuruBedeli,
			IsPartial:         item.KismiIhale,
		},
		Characteristics: characteristics,
		OKASCodes:       okasCodes,
		Authority: TenderAuthority{
			ID:               item.Idare.ID,
			Name:             item.Idare.Adi,
			Code1:            item.Idare.Kod1,
			Code2:            item.Idare.Kod2,
			Phone:            item.Idare.Telefon,
			Fax:              item.Idare.Fax,
			ParentAuthority:  item.Idare.UstIdare,
			TopAuthorityCode: item.Idare.EnUstIdareKod,
			TopAuthorityName: item.Idare.EnUstIdareAdi,
			Province:         item.Idare.Il.Adi,
			District:         item.Idare.Ilce.IlceAdi,
		},
		ProcessRules: TenderProcessRules{
			CanDownloadDocuments: item.IslemlerKuralSeti.DokumanIndirmisMi,
			HasSubmittedBid:      item.IslemlerKuralSeti.TeklifteBulunmusMu,
			CanSubmitBid:         item.IslemlerKuralSeti.TeklifVerilebilirMi,
			HasNonPriceFactors:   item.IslemlerKuralSeti.FiyatDisiUnsurVarMi,
			ContractSigned:       item.IslemlerKuralSeti.SozlesmeImzaliMi,
			IsElectronic:         item.IslemlerKuralSeti.EIhaleMi,
			IsOwnTender:          item.IslemlerKuralSeti.IdareKendiIhaleMi,
			ElectronicAuction:    item.IslemlerKuralSeti.EEksiltmeYapilacakMi,
		},
		Announcements: AnnouncementsSummary{
			TotalCount:     len(announcements),
			Announcements:  announcements,
			TypesAvailable: typesAvailable,
		},
		Flags: TenderFlags{
			IsAuthorityTender:       item.IhaleniIdaresiMi,
			IsWithoutAnnouncement:   item.IhaleIlansizMi,
			IsInvitationOnly:        item.IhaleyeDavetEdilenMi,
			ShowDetailDocuments:     item.IhaleDetayDokumaniGorsunMu,
			ShowDocumentDownloaders: item.DokumanIndirenlerGosterilsin,
		},
		DocumentCount: item.DokumanSayisi,
	}

	if item.IhaleBilgi.IptalTarihi != "" {
		details.CancellationInfo = &CancellationInfo{
			CancelledDate:       item.IhaleBilgi.IptalTarihi,
			CancellationReason:  item.IhaleBilgi.IptalNedeni,
			CancellationArticle: item.IhaleBilgi.IptalMadde,
		}
	}

	return details, nil
}

// cleanCharacteristic turns a raw portal resource key like
// "TENDER_DETAIL.KISMI_TEKLIF_VERILEBILIR" into readable text.
func cleanCharacteristic(s string) string {
	if !strings.Contains(s, "TENDER_DETAIL.") {
		return s
	}
	s = strings.ReplaceAll(s, "TENDER_DETAIL.", "")
	s = strings.ReplaceAll(s, "_", " ")
	words := strings.Fields(s)
	for i, w := range words {
		// Uppercase the first rune, not the first byte: the keys carry
		// Turkish letters like Ş and Ü.
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
