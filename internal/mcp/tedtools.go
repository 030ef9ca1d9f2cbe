package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ihalemcp/internal/logging"
	"ihalemcp/internal/ted"
)

// tedDaysBack widens the publication window so tenders whose deadline
// is still open are not cut off by a narrow search.
const tedDaysBack = 120

// TEDServer exposes EU TED tender search over MCP stdio.
type TEDServer struct {
	client *ted.Client
	logger *logging.AppLogger
	now    func() time.Time
	srv    *server.MCPServer
}

// NewTEDServer wires the ted-mcp server.
func NewTEDServer(client *ted.Client, logger *logging.AppLogger) *TEDServer {
	s := &TEDServer{
		client: client,
		logger: logger,
		now:    time.Now,
	}

	s.srv = server.NewMCPServer("ted-mcp", serverVersion,
		server.WithToolCapabilities(false),
		server.WithInstructions("Search EU public procurement notices on Tenders Electronic Daily (TED). Results favour notices whose submission deadline is still open."),
	)
	s.srv.AddTool(mcp.Tool{
		Name:        "search_ted_tenders",
		Description: "Search EU public tenders on TED. Synonyms for drone/UAV terms are expanded automatically; notices with open deadlines are listed first.",
		InputSchema: objectSchema(map[string]any{
			"search_text":   strProp("Free-text search, e.g. 'drone' or 'unmanned aerial vehicle'"),
			"country_codes": arrProp("string", "ISO 3166-1 alpha-2 country codes, e.g. ['DE', 'FR']"),
			"limit":         intProp("Maximum number of results (1-250, default 10)"),
			"page":          intProp("Page number, 1-based"),
		}, "search_text"),
	}, s.handleSearchTenders)

	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *TEDServer) Serve() error {
	s.logger.Info("starting ted-mcp server")
	return serveStdio(s.srv)
}

func (s *TEDServer) handleSearchTenders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SearchText   string   `json:"search_text"`
		CountryCodes []string `json:"country_codes"`
		Limit        *int     `json:"limit"`
		Page         int      `json:"page"`
	}
	if err := req.BindArguments(&args); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err))
	}

	resp, err := s.client.SearchTenders(ctx, ted.SearchOptions{
		SearchText:   args.SearchText,
		CountryCodes: args.CountryCodes,
		Limit:        intOr(args.Limit, 10),
		Page:         args.Page,
		DaysBack:     tedDaysBack,
		Scope:        "ACTIVE",
	})
	if err != nil {
		return toolError(err)
	}

	filtered := ted.FilterOpen(resp, s.now())
	return jsonResult(filtered)
}
