package ekap

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoDocumentURL is returned when the portal has no download URL for
// the requested tender.
var ErrNoDocumentURL = errors.New("no document URL found")

// DocumentURL is the resolved download location for a tender's
// document bundle.
type DocumentURL struct {
	URL      string `json:"document_url"`
	TenderID int64  `json:"tender_id"`
	IslemID  string `json:"islem_id"`
}

// TenderDocumentURL resolves the document download URL for a tender.
// islemID selects the portal operation; "1" is the document bundle.
func (c *Client) TenderDocumentURL(ctx context.Context, tenderID int64, islemID string) (*DocumentURL, error) {
	if islemID == "" {
		islemID = "1"
	}
	payload := map[string]any{
		"islemId": islemID,
		"ihaleId": tenderID,
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.postJSON(ctx, documentURLEndpoint, payload, &resp); err != nil {
		return nil, fmt.Errorf("document URL lookup failed: %w", err)
	}
	if resp.URL == "" {
		return nil, fmt.Errorf("%w: tender %d", ErrNoDocumentURL, tenderID)
	}

	return &DocumentURL{URL: resp.URL, TenderID: tenderID, IslemID: islemID}, nil
}
