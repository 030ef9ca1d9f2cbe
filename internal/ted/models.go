package ted

import (
	"sort"
	"strings"
	"time"
)

// Date is a calendar date that marshals as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Tender is one TED notice, reduced to the fields the search returns.
type Tender struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	PublicationDate Date     `json:"publication_date"`
	CountryCode     string   `json:"country_code"`
	BuyerName       string   `json:"buyer_name"`
	Deadline        *Date    `json:"deadline"`
	CPVCodes        []string `json:"cpv_codes"`
	URL             string   `json:"url"`
}

// SearchResponse is a page of TED search results.
type SearchResponse struct {
	TotalFound       int      `json:"total_found"`
	Tenders          []Tender `json:"tenders"`
	Page             int      `json:"page"`
	ResultsAreRecent *bool    `json:"results_are_recent,omitempty"`
}

// FilterOpen reduces a result page to notices worth showing: notices
// whose deadline is still ahead, sorted soonest first. When no deadline
// survived it falls back to notices published in the last 30 days, and
// failing that to the unfiltered page. ResultsAreRecent reports whether
// either filter applied.
func FilterOpen(resp *SearchResponse, today time.Time) *SearchResponse {
	today = dateOnly(today)

	var open []Tender
	for _, t := range resp.Tenders {
		if t.Deadline != nil && !t.Deadline.Before(today) {
			open = append(open, t)
		}
	}

	var final []Tender
	recent := true
	if len(open) > 0 {
		final = open
		sort.SliceStable(final, func(i, j int) bool {
			return final[i].Deadline.Before(final[j].Deadline.Time)
		})
	} else {
		thirtyDaysAgo := today.AddDate(0, 0, -30)
		for _, t := range resp.Tenders {
			pd := t.PublicationDate.Time
			if !pd.Before(thirtyDaysAgo) && !pd.After(today) {
				final = append(final, t)
			}
		}
		if final == nil {
			final = resp.Tenders
			recent = false
		}
	}

	return &SearchResponse{
		TotalFound:       len(final),
		Tenders:          final,
		Page:             resp.Page,
		ResultsAreRecent: &recent,
	}
}
