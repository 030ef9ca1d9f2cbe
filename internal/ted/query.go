package ted

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// iso3ByISO2 maps EU member-state ISO2 codes to the ISO3 codes the TED
// place-of-performance field stores.
var iso3ByISO2 = map[string]string{
	"DE": "DEU", "FR": "FRA", "IT": "ITA", "ES": "ESP", "PL": "POL",
	"RO": "ROU", "NL": "NLD", "BE": "BEL", "GR": "GRC", "CZ": "CZE",
	"PT": "PRT", "HU": "HUN", "SE": "SWE", "AT": "AUT", "BG": "BGR",
	"DK": "DNK", "FI": "FIN", "SK": "SVK", "IE": "IRL", "HR": "HRV",
	"LT": "LTU", "SI": "SVN", "LV": "LVA", "EE": "EST", "CY": "CYP",
	"LU": "LUX", "MT": "MLT",
}

var uavKeywords = []string{"drone", "uav", "uas", "rpas", "unmanned"}

// expandTerms returns the search term plus UAV synonyms when the query
// looks drone related, deduplicated case-insensitively in order.
func expandTerms(searchText string) []string {
	s := strings.TrimSpace(searchText)
	if s == "" {
		return nil
	}

	terms := []string{s}
	low := strings.ToLower(s)
	for _, kw := range uavKeywords {
		if strings.Contains(low, kw) {
			terms = append(terms, "drone", "UAV", "UAS", "RPAS", "unmanned")
			break
		}
	}

	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ftOrClause builds an OR-joined full-text clause; phrases with
// whitespace are quoted.
func ftOrClause(terms []string) string {
	if len(terms) == 0 {
		return ""
	}

	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if strings.IndexFunc(t, unicode.IsSpace) >= 0 {
			t = `"` + t + `"`
		}
		parts = append(parts, "FT~("+t+")")
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// buildExpertQuery assembles the TED expert-syntax query: full text,
// place-of-performance, a publication-date floor and newest-first order.
func buildExpertQuery(searchText string, countryCodes []string, daysBack int, today time.Time) string {
	var parts []string

	if ft := ftOrClause(expandTerms(searchText)); ft != "" {
		parts = append(parts, ft)
	}

	if len(countryCodes) > 0 {
		iso3 := make([]string, 0, len(countryCodes))
		for _, c := range countryCodes {
			c = strings.ToUpper(strings.TrimSpace(c))
			if mapped, ok := iso3ByISO2[c]; ok {
				c = mapped
			}
			iso3 = append(iso3, c)
		}
		parts = append(parts, "(place-of-performance IN ("+strings.Join(iso3, " ")+"))")
	}

	fromDate := today.AddDate(0, 0, -daysBack).Format("20060102")
	parts = append(parts, fmt.Sprintf("(PD>=%s)", fromDate))

	return strings.Join(parts, " AND ") + " SORT BY publication-date DESC"
}
