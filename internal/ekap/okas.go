package ekap

import (
	"context"
	"fmt"
	"strings"
)

// OKASItem is one entry from the common procurement vocabulary tree.
type OKASItem struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	NameEN     string `json:"name_en,omitempty"`
	ItemType   int    `json:"item_type"`
	Level      int    `json:"level"`
	ParentID   *int64 `json:"parent_id"`
	HasItems   bool   `json:"has_items"`
	ChildCount int    `json:"child_count"`
}

// OKASResult is the formatted OKAS catalog search response.
type OKASResult struct {
	Items         []OKASItem `json:"items"`
	ReturnedCount int        `json:"returned_count"`
}

type rawOKASItem struct {
	ID          int64  `json:"id"`
	Kod         string `json:"kod"`
	KalemAdi    string `json:"kalemAdi"`
	KalemAdiEng string `json:"kalemAdiEng"`
	KalemTuru   int    `json:"kalemTuru"`
	KodLevel    int    `json:"kodLevel"`
	ParentID    *int64 `json:"parentId"`
	HasItem     bool   `json:"hasItem"`
	ChildCount  int    `json:"childCount"`
}

type okasResponse struct {
	LoadResult struct {
		Data []rawOKASItem `json:"data"`
	} `json:"loadResult"`
}

// SearchOKAS looks up OKAS goods/services codes by name. itemType filters
// the results client side (0 keeps everything); the server-side kalemTuru
// filter is broken upstream and answers with a 500.
func (c *Client) SearchOKAS(ctx context.Context, term string, itemType, limit int) (*OKASResult, error) {
	if limit < 1 {
		limit = 1
	} else if limit > 500 {
		limit = 500
	}

	// Match against both the Turkish and English item names. The
	// server-side kalemTuru filter is left out on purpose, see above.
	var filters []any
	if term = strings.TrimSpace(term); term != "" {
		filters = []any{
			[]any{"kalemAdi", "contains", term},
			"or",
			[]any{"kalemAdiEng", "contains", term},
		}
	}
	payload := loadOptionsPayload(filters, limit)

	var resp okasResponse
	if err := c.postJSON(ctx, okasEndpoint, payload, &resp); err != nil {
		return nil, fmt.Errorf("OKAS search failed: %w", err)
	}

	items := make([]OKASItem, 0, len(resp.LoadResult.Data))
	for _, raw := range resp.LoadResult.Data {
		if itemType != 0 && raw.KalemTuru != itemType {
			continue
		}
		items = append(items, OKASItem{
			ID:         raw.ID,
			Code:       raw.Kod,
			Name:       raw.KalemAdi,
			NameEN:     raw.KalemAdiEng,
			ItemType:   raw.KalemTuru,
			Level:      raw.KodLevel,
			ParentID:   raw.ParentID,
			HasItems:   raw.HasItem,
			ChildCount: raw.ChildCount,
		})
	}

	return &OKASResult{Items: items, ReturnedCount: len(items)}, nil
}
