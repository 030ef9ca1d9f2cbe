// Package sheets exports leads to a Google Sheets spreadsheet through a
// service account. Rows follow a fixed Turkish sales-sheet layout.
package sheets

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"ihalemcp/internal/leads"
)

// SheetHeader is the fixed column layout of the Leads tab.
var SheetHeader = []string{
	"Kategori",
	"Bayi Adı",
	"İl",
	"İlçe",
	"Cep Telefonu",
	"Normal Telefon",
	"E-posta",
}

// builtinCategories maps keyword substrings to sheet categories. ASCII
// variants cover users typing without Turkish keyboards.
var builtinCategories = map[string]string{
	"tarım makina": "Tarım Makina",
	"tarim makina": "Tarım Makina",
	"tarım makine": "Tarım Makina",
	"tarim makine": "Tarım Makina",
	"makina":       "Tarım Makina",
	"makine":       "Tarım Makina",

	"ilaç bayi": "İlaç Bayi",
	"ilac bayi": "İlaç Bayi",
	"ilaç":      "İlaç Bayi",
	"ilac":      "İlaç Bayi",

	"ziraat odası":   "Ziraat Odaları",
	"ziraat odasi":   "Ziraat Odaları",
	"ziraat odaları": "Ziraat Odaları",
	"ziraat odalari": "Ziraat Odaları",

	"çiftçi kooperatifi": "Çiftçi Kooperatifi",
	"ciftci kooperatifi": "Çiftçi Kooperatifi",
	"kooperatif":         "Çiftçi Kooperatifi",
	"kooparatif":         "Çiftçi Kooperatifi",
}

const defaultCategory = "Genel Tarım"

// categoryMapEnv lets users extend the keyword mapping with a JSON
// object, e.g. {"gübre": "Gübre Bayi"}.
const categoryMapEnv = "GOOGLE_SHEETS_KEYWORD_CATEGORY_MAP"

// CategoryForKeyword picks the sheet category for a search keyword.
// Longer substrings win so "ilaç bayi" is not shadowed by "ilaç".
func CategoryForKeyword(keyword string) string {
	k := strings.ToLower(strings.TrimSpace(keyword))

	categories := builtinCategories
	if raw := strings.TrimSpace(os.Getenv(categoryMapEnv)); raw != "" {
		var userMap map[string]string
		if err := json.Unmarshal([]byte(raw), &userMap); err == nil {
			merged := make(map[string]string, len(builtinCategories)+len(userMap))
			for sub, cat := range builtinCategories {
				merged[sub] = cat
			}
			for sub, cat := range userMap {
				sub, cat = strings.TrimSpace(strings.ToLower(sub)), strings.TrimSpace(cat)
				if sub != "" && cat != "" {
					merged[sub] = cat
				}
			}
			categories = merged
		}
	}

	subs := make([]string, 0, len(categories))
	for sub := range categories {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if len(subs[i]) != len(subs[j]) {
			return len(subs[i]) > len(subs[j])
		}
		return subs[i] < subs[j]
	})

	for _, sub := range subs {
		if strings.Contains(k, sub) {
			return categories[sub]
		}
	}
	return defaultCategory
}

// emailForLead is a placeholder: the Places API carries no email, and
// scraping the website for one is out of scope for now.
func emailForLead(leads.Lead) string {
	return leads.Missing
}

// LeadsToSheetRows converts leads into spreadsheet rows matching
// SheetHeader. locationText is the search location used to validate
// each address's province, keyword selects the category column.
func LeadsToSheetRows(items []leads.Lead, locationText, keyword string) [][]any {
	category := CategoryForKeyword(keyword)

	rows := make([][]any, 0, len(items))
	for _, lead := range items {
		il, ilce := leads.ParseILIlce(lead.FormattedAddress, locationText)
		cep, normal := leads.SplitPhone(lead.Phone, lead.PhoneIntl)

		rows = append(rows, []any{
			category,
			orMissing(lead.Name),
			orMissing(il),
			orMissing(ilce),
			cep,
			normal,
			emailForLead(lead),
		})
	}
	return rows
}

func orMissing(s string) string {
	if s == "" {
		return leads.Missing
	}
	return s
}
