package ekap

import (
	"context"
	"fmt"
)

const announcementPreviewLen = 200

// Announcement is one published notice attached to a tender.
type Announcement struct {
	ID              int64           `json:"id"`
	Type            CodeDescription `json:"type"`
	Title           string          `json:"title"`
	PublicationDate string          `json:"publication_date"`
	Status          any             `json:"status"`
	TenderID        int64           `json:"tender_id"`
	ContractID      *int64          `json:"contract_id"`
	BidderName      string          `json:"bidder_name,omitempty"`
	Content         string          `json:"content,omitempty"`
	ContentPreview  string          `json:"content_preview,omitempty"`
}

// AnnouncementsResult is the formatted announcement listing for a tender.
type AnnouncementsResult struct {
	TenderID      int64          `json:"tender_id"`
	Announcements []Announcement `json:"announcements"`
	ReturnedCount int            `json:"returned_count"`
}

type rawAnnouncement struct {
	ID         int64  `json:"id"`
	IlanTip    string `json:"ilanTip"`
	Baslik     string `json:"baslik"`
	IlanTarihi string `json:"ilanTarihi"`
	Status     any    `json:"status"`
	IhaleID    int64  `json:"ihaleId"`
	SozlesmeID *int64 `json:"sozlesmeId"`
	IstekliAdi string `json:"istekliAdi"`
	VeriHTML   string `json:"veriHtml"`
}

type announcementsResponse struct {
	List []rawAnnouncement `json:"list"`
}

// TenderAnnouncements fetches the notices published for a tender. Notice
// bodies arrive as HTML; each announcement carries both the markdown
// rendering and a short plain-text preview.
func (c *Client) TenderAnnouncements(ctx context.Context, tenderID int64) (*AnnouncementsResult, error) {
	payload := map[string]any{"ihaleId": tenderID}

	var resp announcementsResponse
	if err := c.postJSON(ctx, announcementsEndpoint, payload, &resp); err != nil {
		return nil, fmt.Errorf("announcement listing failed: %w", err)
	}

	announcements := make([]Announcement, 0, len(resp.List))
	for _, r := range resp.List {
		a := Announcement{
			ID:              r.ID,
			Type:            CodeDescription{Code: r.IlanTip, Description: announcementTypeName(r.IlanTip)},
			Title:           r.Baslik,
			PublicationDate: r.IlanTarihi,
			Status:          r.Status,
			TenderID:        r.IhaleID,
			ContractID:      r.SozlesmeID,
			BidderName:      r.IstekliAdi,
		}
		if r.VeriHTML != "" {
			a.Content = c.converter.ToMarkdown(r.VeriHTML)
			a.ContentPreview = c.converter.Preview(r.VeriHTML, announcementPreviewLen)
		}
		announcements = append(announcements, a)
	}

	return &AnnouncementsResult{
		TenderID:      tenderID,
		Announcements: announcements,
		ReturnedCount: len(announcements),
	}, nil
}

func announcementTypeName(code string) string {
	if name, ok := AnnouncementTypes[code]; ok {
		return name
	}
	return "Type " + code
}
