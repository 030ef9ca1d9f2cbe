package leads

import (
	"regexp"
	"strings"
)

// ilByPostalPrefix maps the first two digits of a Turkish postal code to
// the province. Postal prefixes equal plate numbers, so this doubles as
// the most reliable way to pin an address to a province.
var ilByPostalPrefix = map[string]string{
	"01": "adana", "02": "adiyaman", "03": "afyonkarahisar", "04": "agri", "05": "amasya",
	"06": "ankara", "07": "antalya", "08": "artvin", "09": "aydin", "10": "balikesir",
	"11": "bilecik", "12": "bingol", "13": "bitlis", "14": "bolu", "15": "burdur",
	"16": "bursa", "17": "canakkale", "18": "cankiri", "19": "corum", "20": "denizli",
	"21": "diyarbakir", "22": "edirne", "23": "elazig", "24": "erzincan", "25": "erzurum",
	"26": "eskisehir", "27": "gaziantep", "28": "giresun", "29": "gumushane", "30": "hakkari",
	"31": "hatay", "32": "isparta", "33": "mersin", "34": "istanbul", "35": "izmir",
	"36": "kars", "37": "kastamonu", "38": "kayseri", "39": "kirklareli", "40": "kirsehir",
	"41": "kocaeli", "42": "konya", "43": "kutahya", "44": "malatya", "45": "manisa",
	"46": "kahramanmaras", "47": "mardin", "48": "mugla", "49": "mus", "50": "nevsehir",
	"51": "nigde", "52": "ordu", "53": "rize", "54": "sakarya", "55": "samsun",
	"56": "siirt", "57": "sinop", "58": "sivas", "59": "tekirdag", "60": "tokat",
	"61": "trabzon", "62": "tunceli", "63": "sanliurfa", "64": "usak", "65": "van",
	"66": "yozgat", "67": "zonguldak", "68": "aksaray", "69": "bayburt", "70": "karaman",
	"71": "kirikkale", "72": "batman", "73": "sirnak", "74": "bartin", "75": "ardahan",
	"76": "igdir", "77": "yalova", "78": "karabuk", "79": "kilis", "80": "osmaniye",
	"81": "duzce",
}

var (
	postalCodeRe        = regexp.MustCompile(`\b(\d{5})\b`)
	leadingPostalCodeRe = regexp.MustCompile(`^\d{5}\s*`)
	anyPostalCodeRe     = regexp.MustCompile(`\d{5}\s*`)
)

var ilNameFolder = strings.NewReplacer(
	"ı", "i", "ğ", "g", "ü", "u", "ş", "s", "ö", "o", "ç", "c",
	"İ", "i", "Ğ", "g", "Ü", "u", "Ş", "s", "Ö", "o", "Ç", "c",
)

// NormalizeIL folds a province name for comparison: lowercase with
// Turkish diacritics stripped.
func NormalizeIL(il string) string {
	return ilNameFolder.Replace(strings.ToLower(strings.TrimSpace(il)))
}

// ExtractPostalCode pulls the first 5-digit postal code out of an
// address, if any.
func ExtractPostalCode(address string) string {
	if m := postalCodeRe.FindStringSubmatch(address); m != nil {
		return m[1]
	}
	return ""
}

// ILFromPostalCode resolves a postal code to its province name.
func ILFromPostalCode(postalCode string) string {
	if len(postalCode) < 2 {
		return ""
	}
	return ilByPostalPrefix[postalCode[:2]]
}

// ILFromLocationText extracts the province from a search location like
// "Atakum, Samsun" or "Sinop, Türkiye".
func ILFromLocationText(locationText string) string {
	if locationText == "" {
		return ""
	}
	clean := strings.ReplaceAll(locationText, "Türkiye", "")
	clean = strings.ReplaceAll(clean, "turkey", "")
	clean = strings.TrimSpace(clean)

	parts := strings.Split(clean, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return ""
}

// ILFromAddress parses the province out of a formatted address alone.
// The postal code wins when present; otherwise the trailing address
// segment is used, handling the "İlçe/İl" convention.
func ILFromAddress(address string) string {
	if address == "" {
		return ""
	}

	if code := ExtractPostalCode(address); code != "" {
		if il := ILFromPostalCode(code); il != "" {
			return il
		}
	}

	parts := strings.Split(address, ",")
	if len(parts) == 0 {
		return ""
	}

	last := strings.TrimSpace(parts[len(parts)-1])
	last = strings.ReplaceAll(last, "Türkiye", "")
	last = strings.ReplaceAll(last, "turkey", "")
	last = strings.TrimSpace(anyPostalCodeRe.ReplaceAllString(last, ""))

	if last == "" && len(parts) >= 2 {
		secondLast := strings.TrimSpace(parts[len(parts)-2])
		if !postalCodeRe.MatchString(secondLast) && len(strings.Fields(secondLast)) <= 3 {
			last = secondLast
		}
	}

	parsed := last
	if idx := strings.Index(last, "/"); idx >= 0 {
		segments := strings.Split(last, "/")
		if len(segments) >= 2 {
			parsed = strings.TrimSpace(segments[1])
		} else {
			parsed = strings.TrimSpace(segments[0])
		}
	}

	parsed = strings.TrimSpace(parsed)
	if parsed == "" {
		return ""
	}

	// Prefer the canonical spelling when the parse matches a known
	// province.
	parsedNorm := NormalizeIL(parsed)
	for _, il := range ilByPostalPrefix {
		if NormalizeIL(il) == parsedNorm {
			return il
		}
	}
	return parsed
}

// ParseILIlce extracts province and district from a formatted address,
// cross-checked against the search location. A postal code that points
// to a different province overrides the parse: the search location's
// province wins and the district is discarded as untrustworthy.
func ParseILIlce(address, locationText string) (il, ilce string) {
	locationIL := ILFromLocationText(locationText)

	if address == "" {
		return locationIL, ""
	}

	postalIL := ILFromPostalCode(ExtractPostalCode(address))

	parts := strings.Split(address, ",")
	last := strings.TrimSpace(parts[len(parts)-1])

	var parsedIL, parsedIlce string
	if strings.Contains(last, "/") {
		segments := strings.Split(last, "/")
		if len(segments) >= 2 {
			parsedIL = strings.TrimSpace(segments[1])
			parsedIlce = strings.TrimSpace(leadingPostalCodeRe.ReplaceAllString(strings.TrimSpace(segments[0]), ""))
		} else {
			parsedIL = strings.TrimSpace(segments[0])
		}
	} else {
		parsedIL = last
	}

	if parsedIlce == "" && len(parts) >= 2 {
		secondLast := strings.TrimSpace(parts[len(parts)-2])
		if !postalCodeRe.MatchString(secondLast) && len(strings.Fields(secondLast)) <= 3 {
			parsedIlce = secondLast
		}
	}

	finalIL, finalIlce := parsedIL, parsedIlce
	if locationIL != "" {
		locNorm := NormalizeIL(locationIL)
		switch {
		case postalIL != "":
			if locNorm != NormalizeIL(postalIL) {
				finalIL, finalIlce = locationIL, ""
			} else if parsedIL == "" || locNorm != NormalizeIL(parsedIL) {
				finalIL = locationIL
			}
		case parsedIL != "":
			parsedNorm := NormalizeIL(parsedIL)
			if !strings.Contains(parsedNorm, locNorm) && !strings.Contains(locNorm, parsedNorm) {
				finalIL, finalIlce = locationIL, ""
			}
		default:
			finalIL = locationIL
		}
	}

	// A district is only as trustworthy as the postal code backing it.
	if finalIL != "" && finalIlce != "" && postalIL != "" &&
		NormalizeIL(postalIL) != NormalizeIL(finalIL) {
		finalIlce = ""
	}

	return finalIL, finalIlce
}

// MatchesProvince reports whether an address belongs to the wanted
// province. The postal code is authoritative; an address whose postal
// code cannot be resolved is rejected rather than guessed at.
func MatchesProvince(address, wantIL string) bool {
	if wantIL == "" {
		return true
	}
	if address == "" {
		return true
	}

	wantNorm := NormalizeIL(wantIL)

	if code := ExtractPostalCode(address); code != "" {
		postalIL := ILFromPostalCode(code)
		if postalIL == "" {
			return false
		}
		return NormalizeIL(postalIL) == wantNorm
	}

	if parsed := ILFromAddress(address); parsed != "" {
		return NormalizeIL(parsed) == wantNorm
	}

	return strings.Contains(strings.ToLower(address), wantNorm)
}
