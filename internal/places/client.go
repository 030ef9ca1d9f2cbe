package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ihalemcp/internal/logging"
)

const (
	geocodeURL    = "https://maps.googleapis.com/maps/api/geocode/json"
	textSearchURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	detailsURL    = "https://maps.googleapis.com/maps/api/place/details/json"

	requestTimeout = 20 * time.Second

	// Google activates a next_page_token only after a short delay;
	// paging faster returns INVALID_REQUEST.
	pageInterval = 2200 * time.Millisecond

	detailsConcurrency = 5
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceDetails is the enrichment subset fetched per place.
type PlaceDetails struct {
	FormattedPhoneNumber     string        `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string        `json:"international_phone_number,omitempty"`
	Website                  string        `json:"website,omitempty"`
	OpeningHours             *OpeningHours `json:"opening_hours,omitempty"`
}

// OpeningHours carries the open-now flag from place details.
type OpeningHours struct {
	OpenNow *bool `json:"open_now,omitempty"`
}

// Place is one Text Search result, optionally enriched with details.
type Place struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location LatLng `json:"location"`
	} `json:"geometry"`
	PlaceID          string        `json:"place_id"`
	Types            []string      `json:"types"`
	Rating           *float64      `json:"rating,omitempty"`
	UserRatingsTotal *int          `json:"user_ratings_total,omitempty"`
	BusinessStatus   string        `json:"business_status,omitempty"`
	Details          *PlaceDetails `json:"details,omitempty"`
}

// LeadsQuery echoes the search parameters back in the result.
type LeadsQuery struct {
	Keyword        string `json:"keyword"`
	LocationText   string `json:"location_text"`
	RadiusMeters   int    `json:"radius_meters"`
	IncludeDetails bool   `json:"include_details"`
}

// LeadsResult is the raw outcome of a lead search.
type LeadsResult struct {
	Places   []Place    `json:"leads_raw"`
	Total    int        `json:"total"`
	Query    LeadsQuery `json:"query"`
	Location LatLng     `json:"location"`
	Note     string     `json:"note"`
}

// GeocodeError reports a location that could not be resolved.
type GeocodeError struct {
	LocationText string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("could not geocode location %q", e.LocationText)
}

// StatusError reports a non-OK Places API status.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return "places API returned status " + e.Status
}

// Client wraps the legacy Google Geocoding, Text Search and Place
// Details web services.
type Client struct {
	apiKey      string
	httpc       *http.Client
	pageLimiter *rate.Limiter
	logger      *logging.AppLogger

	geocodeURL    string
	textSearchURL string
	detailsURL    string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithBaseURL points all three services at one base URL (tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.geocodeURL = base + "/maps/api/geocode/json"
		c.textSearchURL = base + "/maps/api/place/textsearch/json"
		c.detailsURL = base + "/maps/api/place/details/json"
	}
}

// WithPageInterval overrides the pagination pacing (tests).
func WithPageInterval(d time.Duration) Option {
	return func(c *Client) { c.pageLimiter = rate.NewLimiter(rate.Every(d), 1) }
}

// NewClient creates a Places client.
func NewClient(apiKey string, logger *logging.AppLogger, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		httpc:         &http.Client{Timeout: requestTimeout},
		pageLimiter:   rate.NewLimiter(rate.Every(pageInterval), 1),
		logger:        logger,
		geocodeURL:    geocodeURL,
		textSearchURL: textSearchURL,
		detailsURL:    detailsURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build places request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode places response: %w", err)
	}
	return nil
}

// Geocode resolves free-form location text to a coordinate. Bare city
// names get ", Türkiye" appended so results stay in Turkey.
func (c *Client) Geocode(ctx context.Context, locationText, language string) (*LatLng, error) {
	query := strings.TrimSpace(locationText)
	low := strings.ToLower(query)
	if query != "" && !strings.Contains(low, "türkiye") && !strings.Contains(low, "turkey") {
		if !strings.Contains(query, ",") && len(strings.Fields(query)) <= 3 {
			query += ", Türkiye"
		}
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", c.apiKey)
	params.Set("language", language)
	params.Set("region", "tr")

	var resp struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location LatLng `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.geocodeURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		c.logger.Debug("Geocode miss", "location", locationText, "status", resp.Status)
		return nil, &GeocodeError{LocationText: locationText}
	}

	loc := resp.Results[0].Geometry.Location
	return &loc, nil
}

// TextSearchResponse is one page of Text Search results.
type TextSearchResponse struct {
	Status        string  `json:"status"`
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token"`
}

// TextSearch runs one Places Text Search page.
func (c *Client) TextSearch(ctx context.Context, query string, location *LatLng, radiusMeters int, pageToken, language string) (*TextSearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	params.Set("language", language)
	params.Set("region", "tr")
	if location != nil {
		params.Set("location", fmt.Sprintf("%.7f,%.7f", location.Lat, location.Lng))
	}
	if radiusMeters > 0 {
		params.Set("radius", strconv.Itoa(radiusMeters))
	}
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	}

	var resp TextSearchResponse
	if err := c.getJSON(ctx, c.textSearchURL, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlaceDetails fetches the contact-info subset for one place. Fields are
// kept modest to limit quota usage.
func (c *Client) PlaceDetails(ctx context.Context, placeID, language string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", c.apiKey)
	params.Set("language", language)
	params.Set("fields", "formatted_phone_number,international_phone_number,website,opening_hours")

	var resp struct {
		Status string       `json:"status"`
		Result PlaceDetails `json:"result"`
	}
	if err := c.getJSON(ctx, c.detailsURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, &StatusError{Status: resp.Status}
	}
	return &resp.Result, nil
}

// SearchLeads geocodes the location, pages through Text Search until the
// limit is reached and optionally enriches each hit with place details.
// Detail failures are tolerated; a lead without a phone number is still
// a lead.
func (c *Client) SearchLeads(ctx context.Context, keyword, locationText string, radiusMeters, limit int, includeDetails bool, language string) (*LeadsResult, error) {
	loc, err := c.Geocode(ctx, locationText, language)
	if err != nil {
		return nil, err
	}

	var collected []Place
	var nextToken string
	for len(collected) < limit {
		if nextToken != "" {
			if err := c.pageLimiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		page, err := c.TextSearch(ctx, keyword, loc, radiusMeters, nextToken, language)
		if err != nil {
			return nil, err
		}
		if page.Status != "OK" && page.Status != "ZERO_RESULTS" {
			return nil, &StatusError{Status: page.Status}
		}

		for _, item := range page.Results {
			if len(collected) >= limit {
				break
			}
			collected = append(collected, item)
		}

		nextToken = page.NextPageToken
		if nextToken == "" || len(collected) >= limit || page.Status == "ZERO_RESULTS" {
			break
		}
	}

	if includeDetails && len(collected) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(detailsConcurrency)
		for i := range collected {
			g.Go(func() error {
				place := &collected[i]
				if place.PlaceID == "" {
					return nil
				}
				details, err := c.PlaceDetails(gctx, place.PlaceID, language)
				if err != nil {
					c.logger.Debug("Place details enrichment failed", "placeID", place.PlaceID, "error", err)
					return nil
				}
				place.Details = details
				return nil
			})
		}
		g.Wait()
	}

	return &LeadsResult{
		Places: collected,
		Total:  len(collected),
		Query: LeadsQuery{
			Keyword:        keyword,
			LocationText:   locationText,
			RadiusMeters:   radiusMeters,
			IncludeDetails: includeDetails,
		},
		Location: *loc,
		Note:     "Kaynak: Google Places Text Search",
	}, nil
}
