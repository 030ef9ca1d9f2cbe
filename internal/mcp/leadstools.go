package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ihalemcp/internal/leads"
	"ihalemcp/internal/logging"
	"ihalemcp/internal/places"
	"ihalemcp/internal/sheets"
)

// autoExportEnv turns on Sheets export for every lead search.
const autoExportEnv = "GOOGLE_SHEETS_AUTO_EXPORT"

// AppenderFactory builds a Sheets appender on demand; exports stay
// best-effort and must not fail the lead search itself.
type AppenderFactory func(ctx context.Context, spreadsheetID string) (*sheets.Appender, error)

// LeadsServer exposes Google Places lead generation over MCP stdio.
type LeadsServer struct {
	client      *places.Client
	logger      *logging.AppLogger
	newAppender AppenderFactory
	srv         *server.MCPServer
}

// NewLeadsServer wires the maps-mcp server. newAppender may be nil, in
// which case the default service-account appender is used.
func NewLeadsServer(client *places.Client, logger *logging.AppLogger, newAppender AppenderFactory) *LeadsServer {
	s := &LeadsServer{
		client:      client,
		logger:      logger,
		newAppender: newAppender,
	}
	if s.newAppender == nil {
		s.newAppender = func(ctx context.Context, spreadsheetID string) (*sheets.Appender, error) {
			return sheets.NewAppender(ctx, spreadsheetID, logger)
		}
	}

	s.srv = server.NewMCPServer("maps-mcp", serverVersion,
		server.WithToolCapabilities(false),
		server.WithInstructions("Find Turkish business leads via Google Places Text Search. Results are filtered to the requested province and can be exported to Google Sheets."),
	)
	s.srv.AddTool(findBusinessLeadsTool(), s.handleFindBusinessLeads)
	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *LeadsServer) Serve() error {
	s.logger.Info("starting maps-mcp server")
	return serveStdio(s.srv)
}

func findBusinessLeadsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_business_leads",
		Description: "Search businesses with Google Places Text Search and turn them into a sales lead list. Results are filtered to the given province; set GOOGLE_SHEETS_AUTO_EXPORT=true to export every search.",
		InputSchema: objectSchema(map[string]any{
			"keyword":         strProp("Search keyword, e.g. 'tarım makinaları bayileri'"),
			"location_text":   strProp("Search location: province or district, e.g. 'Samsun' or 'Atakum, Samsun'"),
			"radius_meters":   intProp("Search radius in meters (default 5000)"),
			"limit":           intProp("Maximum number of leads (1-120, default 50)"),
			"include_details": boolProp("Enrich leads with phone/website details (default true)"),

			"min_rating":               numProp("Minimum rating filter"),
			"min_user_ratings_total":   intProp("Minimum number of ratings filter"),
			"types_include":            arrProp("string", "Keep only leads with at least one of these place types"),
			"types_exclude":            arrProp("string", "Drop leads with any of these place types"),
			"require_phone_or_website": boolProp("Keep only leads with a phone or website"),
			"only_open_now":            boolProp("Keep only leads currently open"),
			"business_status_in":       arrProp("string", "Allowed business statuses, e.g. ['OPERATIONAL']"),

			"output_format": strProp("'json' (default) or 'csv'"),
			"csv_columns":   arrProp("string", "CSV column subset; defaults to all columns"),
			"dedupe_by":     strProp("'place_id' (default) or 'name_address'"),

			"export_to_google_sheets":      boolProp("Export the leads to Google Sheets"),
			"google_sheets_spreadsheet_id": strProp("Spreadsheet id override for the export"),
		}, "keyword", "location_text"),
	}
}

type findBusinessLeadsArgs struct {
	Keyword        string `json:"keyword"`
	LocationText   string `json:"location_text"`
	RadiusMeters   *int   `json:"radius_meters"`
	Limit          *int   `json:"limit"`
	IncludeDetails *bool  `json:"include_details"`

	MinRating             *float64 `json:"min_rating"`
	MinUserRatingsTotal   *int     `json:"min_user_ratings_total"`
	TypesInclude          []string `json:"types_include"`
	TypesExclude          []string `json:"types_exclude"`
	RequirePhoneOrWebsite bool     `json:"require_phone_or_website"`
	OnlyOpenNow           bool     `json:"only_open_now"`
	BusinessStatusIn      []string `json:"business_status_in"`

	OutputFormat string   `json:"output_format"`
	CSVColumns   []string `json:"csv_columns"`
	DedupeBy     string   `json:"dedupe_by"`

	ExportToGoogleSheets bool   `json:"export_to_google_sheets"`
	SpreadsheetID        string `json:"google_sheets_spreadsheet_id"`
}

func (s *LeadsServer) handleFindBusinessLeads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args findBusinessLeadsArgs
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}
	if args.Keyword == "" || args.LocationText == "" {
		return toolError(fmt.Errorf("keyword and location_text are required"))
	}

	limit := clampInt(intOr(args.Limit, 50), 1, 120)
	raw, err := s.client.SearchLeads(ctx,
		args.Keyword, args.LocationText,
		intOr(args.RadiusMeters, 5000), limit,
		boolOr(args.IncludeDetails, true), "tr")
	if err != nil {
		return toolError(err)
	}

	flat := leads.FromPlaces(raw.Places)
	filtered := leads.Filter(flat, leads.FilterOptions{
		ProvinceText:        args.LocationText,
		MinRating:           args.MinRating,
		MinUserRatingsTotal: args.MinUserRatingsTotal,
		TypesInclude:        args.TypesInclude,
		TypesExclude:        args.TypesExclude,
		RequirePhoneOrSite:  args.RequirePhoneOrWebsite,
		OnlyOpenNow:         args.OnlyOpenNow,
		BusinessStatusIn:    args.BusinessStatusIn,
	})

	dedupeBy := leads.DedupeByPlaceID
	if args.DedupeBy == string(leads.DedupeByNameAddress) {
		dedupeBy = leads.DedupeByNameAddress
	}
	unique := leads.Dedupe(filtered, dedupeBy)

	meta := map[string]any{
		"query":    raw.Query,
		"location": raw.Location,
		"note":     raw.Note,
		"filters": map[string]any{
			"min_rating":               args.MinRating,
			"min_user_ratings_total":   args.MinUserRatingsTotal,
			"types_include":            args.TypesInclude,
			"types_exclude":            args.TypesExclude,
			"require_phone_or_website": args.RequirePhoneOrWebsite,
			"only_open_now":            args.OnlyOpenNow,
			"business_status_in":       args.BusinessStatusIn,
			"dedupe_by":                string(dedupeBy),
		},
	}

	if args.OutputFormat == "csv" {
		columns := validCSVColumns(args.CSVColumns)
		csvText, err := leads.ToCSV(unique, columns)
		if err != nil {
			return toolError(err)
		}
		out := map[string]any{
			"total":        len(unique),
			"columns":      columnsOrDefault(columns),
			"csv":          csvText,
			"content_type": "text/csv; charset=utf-8",
		}
		for k, v := range meta {
			out[k] = v
		}
		return jsonResult(out)
	}

	out := map[string]any{
		"leads": unique,
		"total": len(unique),
	}
	for k, v := range meta {
		out[k] = v
	}

	if args.ExportToGoogleSheets || autoExportEnabled() {
		out["google_sheets"] = s.exportToSheets(ctx, unique, args)
	}

	return jsonResult(out)
}

// exportToSheets writes the leads to Google Sheets, reporting failures
// in the result instead of failing the search.
func (s *LeadsServer) exportToSheets(ctx context.Context, unique []leads.Lead, args findBusinessLeadsArgs) map[string]any {
	auto := autoExportEnabled()

	appender, err := s.newAppender(ctx, args.SpreadsheetID)
	if err != nil {
		return map[string]any{"ok": false, "auto_export": auto, "error": err.Error()}
	}

	result, err := appender.ExportLeads(ctx, unique, args.LocationText, args.Keyword)
	if err != nil {
		return map[string]any{"ok": false, "auto_export": auto, "error": err.Error()}
	}

	return map[string]any{
		"ok":             true,
		"auto_export":    auto,
		"spreadsheet_id": result.SpreadsheetID,
		"sheet_name":     result.SheetName,
		"updated_range":  result.UpdatedRange,
		"updated_rows":   result.UpdatedRows,
		"rows_sent":      len(unique),
	}
}

func autoExportEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(autoExportEnv))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// validCSVColumns keeps only known column names, preserving order.
func validCSVColumns(requested []string) []string {
	if len(requested) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(leads.DefaultCSVColumns))
	for _, col := range leads.DefaultCSVColumns {
		known[col] = struct{}{}
	}
	var cols []string
	for _, col := range requested {
		if _, ok := known[col]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

func columnsOrDefault(cols []string) []string {
	if len(cols) == 0 {
		return leads.DefaultCSVColumns
	}
	return cols
}
