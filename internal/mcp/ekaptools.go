package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ihalemcp/internal/ekap"
	"ihalemcp/internal/logging"
	"ihalemcp/internal/watchlist"
)

// EKAPServer exposes EKAP tender search over MCP stdio.
type EKAPServer struct {
	client *ekap.Client
	watch  *watchlist.Store
	logger *logging.AppLogger
	now    func() time.Time
	srv    *server.MCPServer
}

// NewEKAPServer wires the ihale-mcp server: EKAP tools plus watchlist
// saved searches as resources.
func NewEKAPServer(client *ekap.Client, watch *watchlist.Store, logger *logging.AppLogger) *EKAPServer {
	s := &EKAPServer{
		client: client,
		watch:  watch,
		logger: logger,
		now:    time.Now,
	}

	s.srv = server.NewMCPServer("ihale-mcp", serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Access Turkish government tender (ihale) data from the EKAP portal. All tender content is in Turkish."),
	)
	s.registerTools()
	s.registerWatchlist()
	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *EKAPServer) Serve() error {
	s.logger.Info("starting ihale-mcp server")
	return serveStdio(s.srv)
}

func (s *EKAPServer) registerTools() {
	s.srv.AddTool(searchTendersTool(), s.handleSearchTenders)
	s.srv.AddTool(mcp.Tool{
		Name:        "search_okas_codes",
		Description: "Search OKAS procurement classification codes. Item types: 1=Mal, 2=Hizmet, 3=Yapım. Search in Turkish for best results.",
		InputSchema: objectSchema(map[string]any{
			"search_term": strProp("Search term matched against OKAS descriptions"),
			"kalem_turu":  intProp("Item type filter: 1=Mal (goods), 2=Hizmet (service), 3=Yapım (construction)"),
			"limit":       intProp("Maximum number of results (1-500, default 50)"),
		}),
	}, s.handleSearchOKASCodes)
	s.srv.AddTool(mcp.Tool{
		Name:        "search_authorities",
		Description: "Search Turkish government authorities/institutions by name: ministries, municipalities, universities.",
		InputSchema: objectSchema(map[string]any{
			"search_term": strProp("Search term matched against authority names"),
			"limit":       intProp("Maximum number of results (1-500, default 50)"),
		}),
	}, s.handleSearchAuthorities)
	s.srv.AddTool(mcp.Tool{
		Name:        "get_recent_tenders",
		Description: "Get tenders announced in the last N days, newest first.",
		InputSchema: objectSchema(map[string]any{
			"days":         intProp("Days back to search (1-30, default 7)"),
			"tender_types": arrProp("integer", "Tender types: 1=Mal, 2=Yapım, 3=Hizmet, 4=Danışmanlık"),
			"limit":        intProp("Maximum number of results (1-100, default 20)"),
		}),
	}, s.handleRecentTenders)
	s.srv.AddTool(mcp.Tool{
		Name:        "get_tender_announcements",
		Description: "Get all announcements for a tender (Ön İlan, İhale İlanı, Sonuç İlanı, İptal İlanı...) with HTML converted to markdown.",
		InputSchema: objectSchema(map[string]any{
			"tender_id": intProp("The tender id"),
		}, "tender_id"),
	}, s.handleTenderAnnouncements)
	s.srv.AddTool(mcp.Tool{
		Name:        "get_tender_details",
		Description: "Get comprehensive tender details: basic info, characteristics, OKAS codes, authority, process rules, announcements summary, cancellation info if cancelled.",
		InputSchema: objectSchema(map[string]any{
			"tender_id": intProp("The tender id"),
		}, "tender_id"),
	}, s.handleTenderDetails)
	s.srv.AddTool(mcp.Tool{
		Name:        "get_tender_document_url",
		Description: "Resolve the download URL of a tender's document package.",
		InputSchema: objectSchema(map[string]any{
			"tender_id": intProp("The tender id"),
			"islem_id":  strProp("Operation id, defaults to \"1\""),
		}, "tender_id"),
	}, s.handleTenderDocumentURL)
	s.srv.AddTool(searchDirectProcurementsTool(), s.handleSearchDirectProcurements)
	s.srv.AddTool(mcp.Tool{
		Name:        "get_direct_procurement_details",
		Description: "Get Direct Procurement (Doğrudan Temin) details using the tokens returned by search_direct_procurements.",
		InputSchema: objectSchema(map[string]any{
			"dogrudan_temin_id": strProp("dogrudanTeminId token from the search list"),
			"idare_id":          strProp("idareId token from the search list"),
			"cookies":           strProp("Optional Cookie header for an existing EKAP session"),
		}, "dogrudan_temin_id", "idare_id"),
	}, s.handleDirectProcurementDetails)
	s.srv.AddTool(mcp.Tool{
		Name:        "search_direct_procurement_authorities",
		Description: "Search authorities (İdare) for Direct Procurement. Use the returned token as authority_id.",
		InputSchema: objectSchema(map[string]any{
			"search_term": strProp("Authority search term, e.g. 'antalya' or an institution name"),
			"cookies":     strProp("Optional Cookie header for an existing EKAP session"),
		}),
	}, s.handleDirectAuthorities)
	s.srv.AddTool(mcp.Tool{
		Name:        "search_direct_procurement_parent_authorities",
		Description: "Search parent authorities (Üst İdare). Pass the returned token as parent_authority_code.",
		InputSchema: objectSchema(map[string]any{
			"search_term": strProp("Parent authority search term"),
			"cookies":     strProp("Optional Cookie header for an existing EKAP session"),
		}),
	}, s.handleDirectParentAuthorities)
	s.srv.AddTool(mcp.Tool{
		Name:        "list_saved_searches",
		Description: "List the saved tender searches from the watchlist directory.",
		InputSchema: objectSchema(map[string]any{}),
	}, s.handleListSavedSearches)
	s.srv.AddTool(mcp.Tool{
		Name:        "save_search",
		Description: "Save a tender search to the watchlist directory so it can be re-run later. Existing files are never overwritten.",
		InputSchema: objectSchema(map[string]any{
			"file_name":   strProp("File name for the saved search, e.g. 'ankara-sulama.md'"),
			"description": strProp("What this search is for"),
			"name":        strProp("Optional display name"),
			"query":       strProp("Optional search text or filter summary to re-run"),
			"notes":       strProp("Optional markdown notes stored as the file body"),
		}, "file_name", "description"),
	}, s.handleSaveSearch)
}

func searchTendersTool() mcp.Tool {
	props := map[string]any{
		"search_text":              strProp("Text to search in tender titles, descriptions and specifications"),
		"ikn_year":                 intProp("IKN year, e.g. 2025"),
		"ikn_number":               intProp("IKN number"),
		"tender_types":             arrProp("integer", "Tender types: 1=Mal, 2=Yapım, 3=Hizmet, 4=Danışmanlık"),
		"tender_date_start":        strProp("Tender date range start (YYYY-MM-DD)"),
		"tender_date_end":          strProp("Tender date range end (YYYY-MM-DD)"),
		"announcement_date_start":  strProp("Announcement date range start (YYYY-MM-DD)"),
		"announcement_date_end":    strProp("Announcement date range end (YYYY-MM-DD)"),
		"announcement_date_filter": strProp("Set to 'today' to restrict announcements to today"),
		"tender_date_filter":       strProp("Set to 'from_today' to drop past tender dates"),
		"search_type":              strProp("'GirdigimGibi' (exact) or 'TumKelimeler' (all words)"),
		"order_by":                 strProp("Sort key: ihaleTarihi, ihaleAdi or idareAdi"),
		"sort_order":               strProp("'asc' or 'desc'"),
		"provinces":                arrProp("integer", "Province plate numbers 1-81 (6=Ankara, 34=İstanbul, 35=İzmir)"),
		"tender_statuses":          arrProp("integer", "Tender status ids"),
		"tender_methods":           arrProp("integer", "Tender method ids"),
		"tender_sub_methods":       arrProp("integer", "Tender sub-method ids"),
		"okas_codes":               arrProp("string", "OKAS classification codes"),
		"authority_ids":            arrProp("integer", "Authority ids"),
		"proposal_types":           arrProp("integer", "Proposal types: 1=Götürü, 2=Birim Fiyat, 3=Karma"),
		"announcement_types":       arrProp("integer", "Announcement type ids: 1=Ön İlan, 2=İhale İlanı..."),
		"limit":                    intProp("Maximum number of results (1-100, default 10)"),
		"skip":                     intProp("Results to skip for pagination"),
	}
	for name, desc := range map[string]string{
		"e_ihale":                  "electronic tenders (e-İhale)",
		"e_eksiltme_yapilacak_mi":  "electronic auction planned",
		"ortak_alim_mi":            "joint procurement",
		"kismi_teklif_mi":          "partial proposals allowed",
		"fiyat_disi_unsur_varmi":   "non-price factors present",
		"ekonomik_mali_yeterlilik_belgeleri_isteniyor_mu":  "economic/financial qualification documents required",
		"mesleki_teknik_yeterlilik_belgeleri_isteniyor_mu": "professional/technical qualification documents required",
		"is_deneyimi_gosteren_belgeler_isteniyor_mu":       "work experience documents required",
		"yerli_istekliye_fiyat_avantaji_uygulaniyor_mu":    "domestic bidder price advantage",
		"yabanci_isteklilere_izin_veriliyor_mu":            "foreign bidders allowed",
		"alternatif_teklif_verilebilir_mi":                 "alternative proposals allowed",
		"konsorsiyum_katilabilir_mi":                       "consortium participation allowed",
		"alt_yuklenici_calistirilabilir_mi":                "subcontractors allowed",
		"fiyat_farki_verilecek_mi":                         "price difference given",
		"avans_verilecek_mi":                               "advance payment given",
		"cerceve_anlasmasi_mi":                             "framework agreement",
		"personel_calistirilmasina_dayali_mi":              "personnel employment based",
	} {
		props[name] = boolProp("Filter for " + desc)
	}
	for name, desc := range map[string]string{
		"search_in_ikn":             "IKN",
		"search_in_title":           "tender title",
		"search_in_announcement":    "announcement",
		"search_in_tech_spec":       "technical specification",
		"search_in_admin_spec":      "administrative specification",
		"search_in_similar_work":    "similar work clause",
		"search_in_location":        "work location clause",
		"search_in_nature_quantity": "nature/quantity clause",
		"search_in_tender_info":     "tender information",
		"search_in_contract_draft":  "contract draft",
		"search_in_bid_form":        "bid form",
	} {
		props[name] = boolProp("Search in the " + desc + " (default true)")
	}

	return mcp.Tool{
		Name:        "search_tenders",
		Description: "Search Turkish government tenders on EKAP v2. Tender types: 1=Mal, 2=Yapım, 3=Hizmet, 4=Danışmanlık. Provinces use plate numbers. Dates are YYYY-MM-DD.",
		InputSchema: objectSchema(props),
	}
}

type searchTendersArgs struct {
	SearchText             string `json:"search_text"`
	IKNYear                *int   `json:"ikn_year"`
	IKNNumber              *int   `json:"ikn_number"`
	TenderTypes            []int  `json:"tender_types"`
	TenderDateStart        string `json:"tender_date_start"`
	TenderDateEnd          string `json:"tender_date_end"`
	AnnouncementDateStart  string `json:"announcement_date_start"`
	AnnouncementDateEnd    string `json:"announcement_date_end"`
	AnnouncementDateFilter string `json:"announcement_date_filter"`
	TenderDateFilter       string `json:"tender_date_filter"`
	SearchType             string `json:"search_type"`
	OrderBy                string `json:"order_by"`
	SortOrder              string `json:"sort_order"`

	EIhale                      *bool `json:"e_ihale"`
	EEksiltme                   *bool `json:"e_eksiltme_yapilacak_mi"`
	OrtakAlim                   *bool `json:"ortak_alim_mi"`
	KismiTeklif                 *bool `json:"kismi_teklif_mi"`
	FiyatDisiUnsur              *bool `json:"fiyat_disi_unsur_varmi"`
	EkonomikMaliYeterlilik      *bool `json:"ekonomik_mali_yeterlilik_belgeleri_isteniyor_mu"`
	MeslekiTeknikYeterlilik     *bool `json:"mesleki_teknik_yeterlilik_belgeleri_isteniyor_mu"`
	IsDeneyimiBelgeleri         *bool `json:"is_deneyimi_gosteren_belgeler_isteniyor_mu"`
	YerliIstekliyeFiyatAvantaji *bool `json:"yerli_istekliye_fiyat_avantaji_uygulaniyor_mu"`
	YabanciIstekliyeIzin        *bool `json:"yabanci_isteklilere_izin_veriliyor_mu"`
	AlternatifTeklif            *bool `json:"alternatif_teklif_verilebilir_mi"`
	KonsorsiyumKatilimi         *bool `json:"konsorsiyum_katilabilir_mi"`
	AltYuklenici                *bool `json:"alt_yuklenici_calistirilabilir_mi"`
	FiyatFarki                  *bool `json:"fiyat_farki_verilecek_mi"`
	Avans                       *bool `json:"avans_verilecek_mi"`
	CerceveAnlasma              *bool `json:"cerceve_anlasmasi_mi"`
	PersonelDayali              *bool `json:"personel_calistirilmasina_dayali_mi"`

	Provinces         []int    `json:"provinces"`
	TenderStatuses    []int    `json:"tender_statuses"`
	TenderMethods     []int    `json:"tender_methods"`
	TenderSubMethods  []int    `json:"tender_sub_methods"`
	OKASCodes         []string `json:"okas_codes"`
	AuthorityIDs      []int    `json:"authority_ids"`
	ProposalTypes     []int    `json:"proposal_types"`
	AnnouncementTypes []int    `json:"announcement_types"`

	SearchInIKN            *bool `json:"search_in_ikn"`
	SearchInTitle          *bool `json:"search_in_title"`
	SearchInAnnouncement   *bool `json:"search_in_announcement"`
	SearchInTechSpec       *bool `json:"search_in_tech_spec"`
	SearchInAdminSpec      *bool `json:"search_in_admin_spec"`
	SearchInSimilarWork    *bool `json:"search_in_similar_work"`
	SearchInLocation       *bool `json:"search_in_location"`
	SearchInNatureQuantity *bool `json:"search_in_nature_quantity"`
	SearchInTenderInfo     *bool `json:"search_in_tender_info"`
	SearchInContractDraft  *bool `json:"search_in_contract_draft"`
	SearchInBidForm        *bool `json:"search_in_bid_form"`

	Limit *int `json:"limit"`
	Skip  int  `json:"skip"`
}

func (s *EKAPServer) handleSearchTenders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args searchTendersArgs
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	params, err := s.buildSearchParams(args)
	if err != nil {
		return toolError(err)
	}

	result, err := s.client.SearchTenders(ctx, params)
	if err != nil {
		return toolError(err)
	}

	return jsonResult(map[string]any{
		"tenders":        result.Tenders,
		"total_count":    result.TotalCount,
		"returned_count": result.ReturnedCount,
		"search_params": map[string]any{
			"search_text": args.SearchText,
			"ikn_year":    args.IKNYear,
			"ikn_number":  args.IKNNumber,
			"tender_types": args.TenderTypes,
			"date_range": map[string]any{
				"tender_start":       params.TenderDateStart,
				"tender_end":         params.TenderDateEnd,
				"announcement_start": params.AnnouncementDateStart,
				"announcement_end":   params.AnnouncementDateEnd,
			},
		},
	})
}

func (s *EKAPServer) buildSearchParams(args searchTendersArgs) (ekap.SearchParams, error) {
	p := ekap.NewSearchParams()
	p.SearchText = args.SearchText
	p.IKNYear = args.IKNYear
	p.IKNNumber = args.IKNNumber
	p.TenderTypes = args.TenderTypes
	p.TenderDateStart = args.TenderDateStart
	p.TenderDateEnd = args.TenderDateEnd
	p.AnnouncementDateStart = args.AnnouncementDateStart
	p.AnnouncementDateEnd = args.AnnouncementDateEnd

	today := s.now().Format("2006-01-02")
	if args.AnnouncementDateFilter == "today" {
		p.AnnouncementDateStart = today
		p.AnnouncementDateEnd = today
	}
	if args.TenderDateFilter == "from_today" {
		p.TenderDateStart = today
		p.TenderDateEnd = ""
	}

	if args.SearchType != "" {
		p.SearchType = args.SearchType
	}
	if args.OrderBy != "" {
		p.OrderBy = args.OrderBy
	}
	if args.SortOrder != "" {
		p.SortOrder = args.SortOrder
	}

	p.EIhale = args.EIhale
	p.EEksiltme = args.EEksiltme
	p.OrtakAlim = args.OrtakAlim
	p.KismiTeklif = args.KismiTeklif
	p.FiyatDisiUnsur = args.FiyatDisiUnsur
	p.EkonomikMaliYeterlilik = args.EkonomikMaliYeterlilik
	p.MeslekiTeknikYeterlilik = args.MeslekiTeknikYeterlilik
	p.IsDeneyimiBelgeleri = args.IsDeneyimiBelgeleri
	p.YerliIstekliyeFiyatAvantaji = args.YerliIstekliyeFiyatAvantaji
	p.YabanciIstekliyeIzin = args.YabanciIstekliyeIzin
	p.AlternatifTeklif = args.AlternatifTeklif
	p.KonsorsiyumKatilimi = args.KonsorsiyumKatilimi
	p.AltYuklenici = args.AltYuklenici
	p.FiyatFarki = args.FiyatFarki
	p.Avans = args.Avans
	p.CerceveAnlasma = args.CerceveAnlasma
	p.PersonelCalistirilmasinaDayali = args.PersonelDayali

	// Plate numbers come from users; the API wants its own ids. Unknown
	// plates are dropped so they cannot widen the search.
	for _, plate := range args.Provinces {
		if id, ok := ekap.PlateToAPIID(plate); ok {
			p.ProvinceAPIIDs = append(p.ProvinceAPIIDs, id)
		}
	}
	p.TenderStatuses = args.TenderStatuses
	p.TenderMethods = args.TenderMethods
	p.TenderSubMethods = args.TenderSubMethods
	p.OKASCodes = args.OKASCodes
	p.AuthorityIDs = args.AuthorityIDs
	p.ProposalTypes = args.ProposalTypes
	p.AnnouncementTypes = args.AnnouncementTypes

	p.SearchInIKN = boolOr(args.SearchInIKN, true)
	p.SearchInTitle = boolOr(args.SearchInTitle, true)
	p.SearchInAnnouncement = boolOr(args.SearchInAnnouncement, true)
	p.SearchInTechSpec = boolOr(args.SearchInTechSpec, true)
	p.SearchInAdminSpec = boolOr(args.SearchInAdminSpec, true)
	p.SearchInSimilarWork = boolOr(args.SearchInSimilarWork, true)
	p.SearchInLocation = boolOr(args.SearchInLocation, true)
	p.SearchInNatureQuantity = boolOr(args.SearchInNatureQuantity, true)
	p.SearchInTenderInfo = boolOr(args.SearchInTenderInfo, true)
	p.SearchInContractDraft = boolOr(args.SearchInContractDraft, true)
	p.SearchInBidForm = boolOr(args.SearchInBidForm, true)

	p.Skip = args.Skip
	p.Limit = clampInt(intOr(args.Limit, 10), 1, 100)

	return p, nil
}

func (s *EKAPServer) handleSearchOKASCodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SearchTerm string `json:"search_term"`
		KalemTuru  int    `json:"kalem_turu"`
		Limit      *int   `json:"limit"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	result, err := s.client.SearchOKAS(ctx, args.SearchTerm, args.KalemTuru, intOr(args.Limit, 50))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(result)
}

func (s *EKAPServer) handleSearchAuthorities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SearchTerm string `json:"search_term"`
		Limit      *int   `json:"limit"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	result, err := s.client.SearchAuthorities(ctx, args.SearchTerm, intOr(args.Limit, 50))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(result)
}

func (s *EKAPServer) handleRecentTenders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Days        *int  `json:"days"`
		TenderTypes []int `json:"tender_types"`
		Limit       *int  `json:"limit"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	days := clampInt(intOr(args.Days, 7), 1, 30)
	end := s.now()
	start := end.AddDate(0, 0, -days)

	p := ekap.NewSearchParams()
	p.TenderTypes = args.TenderTypes
	p.AnnouncementDateStart = start.Format("2006-01-02")
	p.AnnouncementDateEnd = end.Format("2006-01-02")
	p.Limit = clampInt(intOr(args.Limit, 20), 1, 100)

	result, err := s.client.SearchTenders(ctx, p)
	if err != nil {
		return toolError(err)
	}

	return jsonResult(map[string]any{
		"recent_tenders": result.Tenders,
		"total_count":    result.TotalCount,
		"date_range": map[string]any{
			"start":     p.AnnouncementDateStart,
			"end":       p.AnnouncementDateEnd,
			"days_back": days,
		},
		"filters_applied": map[string]any{
			"tender_types": args.TenderTypes,
			"limit":        p.Limit,
		},
	})
}

func (s *EKAPServer) handleTenderAnnouncements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TenderID int64 `json:"tender_id"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}
	if args.TenderID == 0 {
		return toolError(fmt.Errorf("tender_id is required"))
	}

	result, err := s.client.TenderAnnouncements(ctx, args.TenderID)
	if err != nil {
		return toolError(err)
	}

	types := make([]string, 0, len(result.Announcements))
	seen := map[string]struct{}{}
	for _, ann := range result.Announcements {
		desc := ann.Type.Description
		if desc == "" {
			desc = "Unknown"
		}
		if _, dup := seen[desc]; dup {
			continue
		}
		seen[desc] = struct{}{}
		types = append(types, desc)
	}

	return jsonResult(map[string]any{
		"announcements":            result.Announcements,
		"total_announcements":      result.ReturnedCount,
		"tender_id":                args.TenderID,
		"announcement_types_found": types,
	})
}

func (s *EKAPServer) handleTenderDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TenderID int64 `json:"tender_id"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}
	if args.TenderID == 0 {
		return toolError(fmt.Errorf("tender_id is required"))
	}

	details, err := s.client.TenderDetails(ctx, args.TenderID)
	if err != nil {
		return toolError(err)
	}

	return jsonResult(map[string]any{
		"tender_details": details,
		"summary": map[string]any{
			"tender_name":           details.Name,
			"ikn":                   details.IKN,
			"status":                details.Status.Description,
			"authority":             details.Authority.Name,
			"location":              details.BasicInfo.Location,
			"is_electronic":         details.BasicInfo.IsElectronic,
			"characteristics_count": len(details.Characteristics),
			"okas_codes_count":      len(details.OKASCodes),
			"announcements_count":   details.Announcements.TotalCount,
		},
	})
}

func (s *EKAPServer) handleTenderDocumentURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TenderID int64  `json:"tender_id"`
		IslemID  string `json:"islem_id"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}
	if args.TenderID == 0 {
		return toolError(fmt.Errorf("tender_id is required"))
	}

	doc, err := s.client.TenderDocumentURL(ctx, args.TenderID, args.IslemID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(doc)
}

func searchDirectProcurementsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_direct_procurements",
		Description: "Search Direct Procurements (Doğrudan Temin) on EKAP. Returns dt_no, title, authority, type, due date, announcement date, province plate and document flags.",
		InputSchema: objectSchema(map[string]any{
			"search_text":           strProp("Search term"),
			"page_index":            intProp("Page index, 1-based (default 1)"),
			"order_by":              intProp("Sort key, e.g. 10=DT No descending (default 10)"),
			"year":                  intProp("DT year, e.g. 2025"),
			"dt_no":                 strProp("Combined DT reference, e.g. 25DT1493794"),
			"dt_number":             intProp("DT number, e.g. 1493794"),
			"dt_type":               intProp("DT type: 1=Mal, 2=Yapım, 3=Hizmet, 4=Danışmanlık"),
			"e_price_offer":         boolProp("Filter for electronic price offers (E-Fiyat Teklifi)"),
			"status_id":             intProp("Status id: 202, 3, 4, 5 or 15"),
			"status_text":           strProp("Status text, e.g. 'Teklifler Değerlendiriliyor' or 'open'"),
			"date_start":            strProp("Offer due date start (YYYY-MM-DD)"),
			"date_end":              strProp("Offer due date end (YYYY-MM-DD)"),
			"province_plate":        intProp("Authority province plate number 1-81"),
			"province_name":         strProp("Authority province name, e.g. 'Antalya'"),
			"scope_id":              intProp("Scope id: 101, 102 or 103"),
			"scope_text":            strProp("Scope text, e.g. '4734 Kapsamında'"),
			"authority_id":          intProp("Authority token from search_direct_procurement_authorities"),
			"parent_authority_code": strProp("Parent authority token (ustIdareKod)"),
			"top_authority_code":    strProp("Top authority token (enUstIdareKod)"),
			"cookies":               strProp("Optional Cookie header for an existing EKAP session"),
		}),
	}
}

func (s *EKAPServer) handleSearchDirectProcurements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SearchText          string `json:"search_text"`
		PageIndex           *int   `json:"page_index"`
		OrderBy             *int   `json:"order_by"`
		Year                *int   `json:"year"`
		DTNo                string `json:"dt_no"`
		DTNumber            *int   `json:"dt_number"`
		DTType              *int   `json:"dt_type"`
		EPriceOffer         *bool  `json:"e_price_offer"`
		StatusID            *int   `json:"status_id"`
		StatusText          string `json:"status_text"`
		DateStart           string `json:"date_start"`
		DateEnd             string `json:"date_end"`
		ProvincePlate       *int   `json:"province_plate"`
		ProvinceName        string `json:"province_name"`
		ScopeID             *int   `json:"scope_id"`
		ScopeText           string `json:"scope_text"`
		AuthorityID         *int   `json:"authority_id"`
		ParentAuthorityCode string `json:"parent_authority_code"`
		TopAuthorityCode    string `json:"top_authority_code"`
		Cookies             string `json:"cookies"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	p := ekap.NewDirectSearchParams()
	p.SearchText = args.SearchText
	if args.PageIndex != nil {
		p.PageIndex = *args.PageIndex
	}
	if args.OrderBy != nil {
		p.OrderBy = *args.OrderBy
	}
	p.Year = args.Year
	p.DTNo = args.DTNo
	p.DTNumber = args.DTNumber
	p.DTType = args.DTType
	p.EPriceOffer = args.EPriceOffer
	p.StatusID = args.StatusID
	p.StatusText = args.StatusText
	p.DateStart = args.DateStart
	p.DateEnd = args.DateEnd
	p.ProvincePlate = args.ProvincePlate
	p.ProvinceName = args.ProvinceName
	p.ScopeID = args.ScopeID
	p.ScopeText = args.ScopeText
	p.AuthorityID = args.AuthorityID
	p.ParentAuthorityCode = args.ParentAuthorityCode
	p.TopAuthorityCode = args.TopAuthorityCode
	p.Cookies = args.Cookies

	result, err := s.client.SearchDirectProcurements(ctx, p)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(result)
}

func (s *EKAPServer) handleDirectProcurementDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		DogrudanTeminID string `json:"dogrudan_temin_id"`
		IdareID         string `json:"idare_id"`
		Cookies         string `json:"cookies"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}
	if args.DogrudanTeminID == "" || args.IdareID == "" {
		return toolError(fmt.Errorf("dogrudan_temin_id and idare_id are required"))
	}

	details, err := s.client.DirectProcurementDetails(ctx, args.DogrudanTeminID, args.IdareID, args.Cookies)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(details)
}

func (s *EKAPServer) handleDirectAuthorities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SearchTerm string `json:"search_term"`
		Cookies    string `json:"cookies"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	result, err := s.client.SearchDirectAuthorities(ctx, args.SearchTerm, args.Cookies)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(result)
}

func (s *EKAPServer) handleDirectParentAuthorities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SearchTerm string `json:"search_term"`
		Cookies    string `json:"cookies"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	result, err := s.client.SearchDirectParentAuthorities(ctx, args.SearchTerm, args.Cookies)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(result)
}

func (s *EKAPServer) handleListSavedSearches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.watch.List()
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{
		"saved_searches": entries,
		"count":          len(entries),
	})
}

func (s *EKAPServer) handleSaveSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		FileName    string `json:"file_name"`
		Description string `json:"description"`
		Name        string `json:"name"`
		Query       string `json:"query"`
		Notes       string `json:"notes"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}
	if args.FileName == "" || args.Description == "" {
		return toolError(fmt.Errorf("file_name and description are required"))
	}

	if err := s.watch.Save(args.FileName, args.Description, args.Name, args.Query, args.Notes); err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{
		"saved":     true,
		"file_name": args.FileName,
	})
}

// registerWatchlist exposes saved searches as watchlist:// resources.
func (s *EKAPServer) registerWatchlist() {
	entries, err := s.watch.List()
	if err != nil {
		s.logger.Warn("watchlist scan failed", "error", err)
		return
	}

	for _, entry := range entries {
		entry := entry
		uri := "watchlist://" + entry.FileName
		resource := mcp.NewResource(uri, entry.FileName,
			mcp.WithResourceDescription(entry.Description),
			mcp.WithMIMEType("text/markdown"),
		)
		s.srv.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			current, err := s.watch.Get(entry.FileName)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     current.Body,
				},
			}, nil
		})
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
