package ekap

import (
	"context"
	"fmt"
	"strings"
)

// Authority is one node from the DETSİS public-institution registry.
type Authority struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Level    int    `json:"level"`
	HasItems bool   `json:"has_items"`
	DetsisNo *int64 `json:"detsis_no"`
	IdareID  *int64 `json:"idare_id"`
}

// AuthorityResult is the formatted authority search response.
type AuthorityResult struct {
	Authorities   []Authority `json:"authorities"`
	ReturnedCount int         `json:"returned_count"`
}

type rawAuthority struct {
	ID                   int64  `json:"id"`
	Ad                   string `json:"ad"`
	ParentIdareKimlikKod *int64 `json:"parentIdareKimlikKodu"`
	Seviye               int    `json:"seviye"`
	HasItems             bool   `json:"hasItems"`
	DetsisNo             *int64 `json:"detsisNo"`
	IdareID              *int64 `json:"idareId"`
}

type authorityResponse struct {
	LoadResult struct {
		Data []rawAuthority `json:"data"`
	} `json:"loadResult"`
}

// SearchAuthorities searches contracting authorities by name in the
// DETSİS tree. The returned ids feed SearchParams.AuthorityIDs.
func (c *Client) SearchAuthorities(ctx context.Context, term string, limit int) (*AuthorityResult, error) {
	if limit < 1 {
		limit = 1
	} else if limit > 500 {
		limit = 500
	}

	var filters []any
	if term = strings.TrimSpace(term); term != "" {
		filters = []any{[]any{"ad", "contains", term}}
	}
	payload := loadOptionsPayload(filters, limit)

	var resp authorityResponse
	if err := c.postJSON(ctx, authorityEndpoint, payload, &resp); err != nil {
		return nil, fmt.Errorf("authority search failed: %w", err)
	}

	authorities := make([]Authority, 0, len(resp.LoadResult.Data))
	for _, raw := range resp.LoadResult.Data {
		authorities = append(authorities, Authority{
			ID:       raw.ID,
			Name:     raw.Ad,
			ParentID: raw.ParentIdareKimlikKod,
			Level:    raw.Seviye,
			HasItems: raw.HasItems,
			DetsisNo: raw.DetsisNo,
			IdareID:  raw.IdareID,
		})
	}

	return &AuthorityResult{Authorities: authorities, ReturnedCount: len(authorities)}, nil
}
