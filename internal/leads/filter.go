package leads

import "strings"

// FilterOptions narrow a lead list. Zero values disable each filter.
type FilterOptions struct {
	// ProvinceText is the search location; leads whose address resolves
	// to a different province are dropped.
	ProvinceText string

	MinRating            *float64
	MinUserRatingsTotal  *int
	TypesInclude         []string
	TypesExclude         []string
	RequirePhoneOrSite   bool
	OnlyOpenNow          bool
	BusinessStatusIn     []string
}

// DedupeKey selects the identity used for deduplication.
type DedupeKey string

const (
	DedupeByPlaceID     DedupeKey = "place_id"
	DedupeByNameAddress DedupeKey = "name_address"
)

// Filter applies the options to a lead list, preserving order.
func Filter(items []Lead, opts FilterOptions) []Lead {
	wantIL := ILFromLocationText(opts.ProvinceText)

	typesInclude := lowerSet(opts.TypesInclude)
	typesExclude := lowerSet(opts.TypesExclude)
	statusIn := upperSet(opts.BusinessStatusIn)

	out := make([]Lead, 0, len(items))
	for _, lead := range items {
		if !passes(lead, wantIL, typesInclude, typesExclude, statusIn, opts) {
			continue
		}
		out = append(out, lead)
	}
	return out
}

func passes(lead Lead, wantIL string, typesInclude, typesExclude, statusIn map[string]struct{}, opts FilterOptions) bool {
	if !MatchesProvince(lead.FormattedAddress, wantIL) {
		return false
	}
	if opts.MinRating != nil {
		if lead.Rating == nil || *lead.Rating < *opts.MinRating {
			return false
		}
	}
	if opts.MinUserRatingsTotal != nil {
		if lead.UserRatingsTotal == nil || *lead.UserRatingsTotal < *opts.MinUserRatingsTotal {
			return false
		}
	}
	if len(typesInclude) > 0 && !intersects(lead.Types, typesInclude) {
		return false
	}
	if len(typesExclude) > 0 && intersects(lead.Types, typesExclude) {
		return false
	}
	if opts.RequirePhoneOrSite && lead.Phone == "" && lead.Website == "" {
		return false
	}
	if opts.OnlyOpenNow && (lead.OpenNow == nil || !*lead.OpenNow) {
		return false
	}
	if len(statusIn) > 0 {
		if _, ok := statusIn[strings.ToUpper(lead.BusinessStatus)]; !ok {
			return false
		}
	}
	return true
}

// Dedupe removes duplicate leads, keeping the first occurrence.
func Dedupe(items []Lead, key DedupeKey) []Lead {
	seen := make(map[string]struct{}, len(items))
	out := make([]Lead, 0, len(items))
	for _, lead := range items {
		var k string
		if key == DedupeByNameAddress {
			k = strings.ToLower(strings.TrimSpace(lead.Name)) + "\x00" +
				strings.ToLower(strings.TrimSpace(lead.FormattedAddress))
		} else {
			k = lead.PlaceID
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, lead)
	}
	return out
}

func intersects(types []string, set map[string]struct{}) bool {
	for _, t := range types {
		if _, ok := set[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

func lowerSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

func upperSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[strings.ToUpper(s)] = struct{}{}
	}
	return set
}
