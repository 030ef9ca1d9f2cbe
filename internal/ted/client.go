package ted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ihalemcp/internal/logging"
)

const (
	defaultBaseURL = "https://api.ted.europa.eu/v3/notices/search"
	noticeURLBase  = "https://ted.europa.eu/en/notice/-/detail/"
	userAgent      = "Public Procurement Watcher / 1.0"
	requestTimeout = 30 * time.Second
)

// SearchOptions control a TED notice search.
type SearchOptions struct {
	SearchText   string
	CountryCodes []string // ISO2 or ISO3
	Limit        int      // clamped to 1..250
	Page         int
	DaysBack     int    // publication date window
	Scope        string // ACTIVE | LATEST | ALL
}

// Client queries the TED v3 notice search API. An API key is optional;
// anonymous requests get a lower rate limit.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *logging.AppLogger
	now     func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API URL (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a TED search client. apiKey may be empty.
func NewClient(apiKey string, logger *logging.AppLogger, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: requestTimeout},
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchTenders runs an expert-syntax search against the notice API and
// normalizes the loosely-typed response.
func (c *Client) SearchTenders(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 1
	} else if opts.Limit > 250 {
		opts.Limit = 250
	}
	if opts.DaysBack <= 0 {
		opts.DaysBack = 30
	}
	if opts.Scope == "" {
		opts.Scope = "ACTIVE"
	}

	today := c.now().UTC()
	query := buildExpertQuery(opts.SearchText, opts.CountryCodes, opts.DaysBack, today)

	payload := map[string]any{
		"query": query,
		"fields": []string{
			"publication-number",
			"notice-title",
			"publication-date",
			"place-of-performance",
			"buyer-name",
			"deadline-receipt-tender-date-lot",
			"deadline-date-lot",
			"deadline-date-part",
			"deadline-time-lot",
			"deadline-time-part",
			"public-opening-date-lot",
		},
		"page":             opts.Page,
		"limit":            opts.Limit,
		"scope":            opts.Scope,
		"checkQuerySyntax": false,
		"paginationMode":   "PAGE_NUMBER",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode TED request: %w", err)
	}

	c.logger.Debug("TED search", "query", query, "page", opts.Page, "limit", opts.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build TED request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TED request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("TED API returned status %d: %s", resp.StatusCode, snippet)
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode TED response: %w", err)
	}

	return c.parseResponse(data, opts.Page, today), nil
}

func (c *Client) parseResponse(data map[string]any, page int, today time.Time) *SearchResponse {
	items, ok := data["notices"].([]any)
	if !ok || len(items) == 0 {
		items, _ = data["items"].([]any)
	}

	tenders := make([]Tender, 0, len(items))
	for _, raw := range items {
		n, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		pubNo := firstText(pick(n, "publication-number", "ND"))
		if pubNo == "" {
			continue
		}

		title := firstText(pick(n, "notice-title", "TI"))
		if title == "" {
			title = "No Title Found"
		}

		pubDate := today
		if d, ok := parseISODate(firstText(pick(n, "publication-date", "PD"))); ok {
			pubDate = d
		}

		buyer := firstText(n["buyer-name"])
		if buyer == "" {
			buyer = "Not specified"
		}

		deadlineVal := pick(n,
			"deadline-receipt-tender-date-lot",
			"deadline-date-lot",
			"deadline-date-part",
			"deadline-time-lot",
			"deadline-time-part",
			"public-opening-date-lot",
		)

		tenders = append(tenders, Tender{
			ID:              pubNo,
			Title:           title,
			PublicationDate: Date{pubDate},
			CountryCode:     pickCountryCode(pick(n, "place-of-performance", "CY")),
			BuyerName:       buyer,
			Deadline:        findFirstDate(deadlineVal),
			CPVCodes:        []string{},
			URL:             noticeURLBase + pubNo,
		})
	}

	total := len(tenders)
	if v, ok := asInt(data["totalNoticeCount"]); ok {
		total = v
	} else if v, ok := asInt(data["total"]); ok {
		total = v
	}

	return &SearchResponse{TotalFound: total, Tenders: tenders, Page: page}
}

// pick returns the first present key.
func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstText extracts a display string from TED's multilingual values:
// plain strings, {lang: [text]} maps (English preferred) or lists.
func firstText(val any) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(strings.TrimSuffix(fmt.Sprintf("%v", v), ".0"))
	case map[string]any:
		for _, lang := range []string{"eng", "en", "EN"} {
			if lv, ok := v[lang]; ok {
				if s := firstText(lv); s != "" {
					return s
				}
			}
		}
		for _, lv := range v {
			if s := firstText(lv); s != "" {
				return s
			}
		}
	case []any:
		if len(v) > 0 {
			return firstText(v[0])
		}
	}
	return ""
}

func parseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02-07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// dateOnly drops the time-of-day and zone, keeping the calendar date as
// the notice stated it.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// deadline values hide inside lot/part structures under varying key
// names; findFirstDate walks the value and returns the first date found.
var deadlineKeys = []string{
	"deadline", "deadline-date", "deadlineDate",
	"time-limit", "time-limit-receipt-tenders", "timeLimitReceiptTenders",
	"date", "value",
}

func findFirstDate(val any) *Date {
	switch v := val.(type) {
	case string:
		if t, ok := parseISODate(v); ok {
			return &Date{t}
		}
	case []any:
		for _, item := range v {
			if d := findFirstDate(item); d != nil {
				return d
			}
		}
	case map[string]any:
		for _, key := range deadlineKeys {
			if inner, ok := v[key]; ok {
				if d := findFirstDate(inner); d != nil {
					return d
				}
			}
		}
		for _, inner := range v {
			if d := findFirstDate(inner); d != nil {
				return d
			}
		}
	}
	return nil
}

// pickCountryCode prefers a 3-letter alpha code from the
// place-of-performance value, falling back to the first value seen.
func pickCountryCode(val any) string {
	var vals []string
	switch v := val.(type) {
	case string:
		vals = []string{v}
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok {
				vals = append(vals, s)
			}
		}
	case map[string]any:
		for _, x := range v {
			switch inner := x.(type) {
			case string:
				vals = append(vals, inner)
			case []any:
				for _, y := range inner {
					if s, ok := y.(string); ok {
						vals = append(vals, s)
					}
				}
			}
		}
	}

	for _, v := range vals {
		v = strings.TrimSpace(v)
		if len(v) == 3 && isAlpha(v) {
			return strings.ToUpper(v)
		}
	}
	if len(vals) > 0 {
		return strings.ToUpper(vals[0])
	}
	return "N/A"
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}
