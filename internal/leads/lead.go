// Package leads normalizes Google Places results into sales leads:
// flattening, province filtering, deduplication and CSV output.
package leads

import (
	"ihalemcp/internal/places"
)

// Lead is one flattened business lead.
type Lead struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	PlaceID          string   `json:"place_id"`
	Types            []string `json:"types"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	BusinessStatus   string   `json:"business_status"`
	Phone            string   `json:"phone"`
	PhoneIntl        string   `json:"phone_intl"`
	Website          string   `json:"website"`
	OpenNow          *bool    `json:"open_now"`
}

// FromPlaces flattens raw places into leads, folding the details
// enrichment into top-level fields.
func FromPlaces(raw []places.Place) []Lead {
	out := make([]Lead, 0, len(raw))
	for _, p := range raw {
		lat, lng := p.Geometry.Location.Lat, p.Geometry.Location.Lng
		lead := Lead{
			Name:             p.Name,
			FormattedAddress: p.FormattedAddress,
			Latitude:         &lat,
			Longitude:        &lng,
			PlaceID:          p.PlaceID,
			Types:            p.Types,
			Rating:           p.Rating,
			UserRatingsTotal: p.UserRatingsTotal,
			BusinessStatus:   p.BusinessStatus,
		}
		if lead.Types == nil {
			lead.Types = []string{}
		}
		if d := p.Details; d != nil {
			lead.Phone = d.FormattedPhoneNumber
			lead.PhoneIntl = d.InternationalPhoneNumber
			lead.Website = d.Website
			if d.OpeningHours != nil {
				lead.OpenNow = d.OpeningHours.OpenNow
			}
		}
		out = append(out, lead)
	}
	return out
}
