// Package ekap implements clients for the Turkish public procurement
// portals: the EKAP v2 JSON API (tender search, OKAS codes, authorities,
// announcements, details, document URLs) and the legacy EKAP endpoint
// used for direct procurement (Doğrudan Temin).
package ekap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"ihalemcp/internal/htmlmd"
	"ihalemcp/internal/logging"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://ekapv2.kik.gov.tr"
	defaultLegacyURL  = "https://ekap.kik.gov.tr/EKAP/Ortak/YeniIhaleAramaData.ashx"
	legacySearchPagePath = "/EKAP/YeniIhaleArama.aspx"
	legacySearchPage     = "https://ekap.kik.gov.tr" + legacySearchPagePath
	legacyErrorPage      = "/EKAP/error_page.html"
	requestTimeout    = 30 * time.Second
	browserUserAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

	tenderEndpoint        = "/b_ihalearama/api/Ihale/GetListByParameters"
	okasEndpoint          = "/b_ihalearama/api/IhtiyacKalemleri/GetAll"
	authorityEndpoint     = "/b_idare/api/DetsisKurumBirim/DetsisAgaci"
	announcementsEndpoint = "/b_ihalearama/api/Ilan/GetList"
	detailsEndpoint       = "/b_ihalearama/api/IhaleDetay/GetByIhaleIdIhaleDetay"
	documentURLEndpoint   = "/b_ihalearama/api/EkapDokumanYonlendirme/GetDokumanUrl"
)

// APIError reports a non-2xx response from either portal.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ekap: %s returned status %d", e.Endpoint, e.StatusCode)
}

// Client talks to EKAP v2 and the legacy EKAP portal.
type Client struct {
	baseURL    string
	legacyURL  string
	legacyPage string
	httpc      *http.Client
	legacyc   *http.Client
	limiter   *rate.Limiter
	converter *htmlmd.Converter
	logger    *logging.AppLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the EKAP v2 base URL (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLegacyURL overrides the legacy search endpoint URL (tests). The
// warm-up page moves to the same host.
func WithLegacyURL(u string) Option {
	return func(c *Client) {
		c.legacyURL = u
		if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
			c.legacyPage = parsed.Scheme + "://" + parsed.Host + legacySearchPagePath
		}
	}
}

// WithHTTPClient replaces the EKAP v2 API client (tests). The legacy
// client keeps its cookie jar and manual redirect handling.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// NewClient creates a client for both EKAP portals. The portals sit behind
// aging middleboxes: they need browser-like headers and negotiate TLS
// configurations a default Go client rejects, so the transport accepts
// legacy protocol versions and skips verification like the browsers that
// the portal was built for effectively do.
func NewClient(logger *logging.AppLogger, opts ...Option) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS10,
			InsecureSkipVerify: true,
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		ForceAttemptHTTP2:   false,
	}

	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL:    defaultBaseURL,
		legacyURL:  defaultLegacyURL,
		legacyPage: legacySearchPage,
		httpc: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
		legacyc: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
			Jar:       jar,
			// Redirects are handled manually so the error-page 302 can
			// trigger the warm-up path.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter:   rate.NewLimiter(rate.Every(200*time.Millisecond), 3),
		converter: htmlmd.NewConverter(),
		logger:    logger,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// postJSON sends a JSON POST to an EKAP v2 endpoint and decodes the response.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setAPIHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(snippet)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) setAPIHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "null")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/ekap/search")
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("api-version", "v1")
	req.Header.Set("sec-ch-ua", `"Chromium";v="140", "Not=A?Brand";v="24", "Google Chrome";v="140"`)
	req.Header.Set("sec-ch-ua-mobile", "?0")
	req.Header.Set("sec-ch-ua-platform", `"macOS"`)
}

// legacyGet queries the legacy YeniIhaleAramaData.ashx endpoint. A 302 to
// the EKAP error page means the session lacks cookies; one warm-up pass
// against the search pages fills the jar, then the request is retried.
// An explicit cookie header bypasses the jar entirely.
func (c *Client) legacyGet(ctx context.Context, params url.Values, cookieHeader string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.doLegacy(ctx, params, cookieHeader)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusFound &&
		strings.Contains(resp.Header.Get("Location"), legacyErrorPage) &&
		cookieHeader == "" {
		resp.Body.Close()
		c.logger.Debug("Legacy EKAP redirected to error page, warming up session")
		c.warmupLegacy(ctx)
		if resp, err = c.doLegacy(ctx, params, ""); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: "YeniIhaleAramaData.ashx", Body: string(snippet)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode legacy response: %w", err)
	}
	return nil
}

func (c *Client) doLegacy(ctx context.Context, params url.Values, cookieHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.legacyURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build legacy request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Referer", c.legacyPage)
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("sec-ch-ua", `"Chromium";v="140", "Not=A?Brand";v="24", "Google Chrome";v="140"`)
	req.Header.Set("sec-ch-ua-mobile", "?0")
	req.Header.Set("sec-ch-ua-platform", `"macOS"`)
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := c.legacyc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("legacy request failed: %w", err)
	}
	return resp, nil
}

// warmupLegacy hits the legacy search page and the data endpoint once so
// the portal issues session cookies into the jar. Failures are tolerated;
// the retry will report the real error.
func (c *Client) warmupLegacy(ctx context.Context) {
	pages := []struct {
		url    string
		params url.Values
		accept string
	}{
		{c.legacyPage, nil, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		{c.legacyURL, url.Values{"metot": {"idareAra"}, "aranan": {"a"}}, "application/json, text/plain, */*"},
	}

	for _, p := range pages {
		u := p.url
		if p.params != nil {
			u += "?" + p.params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			continue
		}
		req.Header.Set("Accept", p.accept)
		req.Header.Set("Accept-Language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7")
		req.Header.Set("User-Agent", browserUserAgent)

		// Follow redirects during warm-up so cookies from intermediate hops land
		warmClient := &http.Client{
			Timeout:   requestTimeout,
			Transport: c.legacyc.Transport,
			Jar:       c.legacyc.Jar,
		}
		if resp, err := warmClient.Do(req); err == nil {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
		}
	}
}

// loadOptionsPayload builds the DevExpress loadOptions envelope the OKAS
// and authority endpoints expect. The inner filter object always carries
// the full set of empty option arrays; the filter conditions are only
// set when a search term produced some.
func loadOptionsPayload(filters []any, take int) map[string]any {
	filterEnvelope := map[string]any{
		"sort":         []any{},
		"group":        []any{},
		"filter":       []any{},
		"totalSummary": []any{},
		"groupSummary": []any{},
		"select":       []any{},
		"preSelect":    []any{},
		"primaryKey":   []any{},
	}
	if len(filters) > 0 {
		filterEnvelope["filter"] = filters
	}
	return map[string]any{
		"loadOptions": map[string]any{
			"filter": filterEnvelope,
			"take":   take,
		},
	}
}

// formatDateForAPI converts YYYY-MM-DD to the DD.MM.YYYY format EKAP
// expects. Unparseable or empty input yields an empty string.
func formatDateForAPI(date string) string {
	if date == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.Format("02.01.2006")
}
