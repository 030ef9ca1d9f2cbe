package leads

import (
	"regexp"
	"strings"
)

// Missing is the placeholder for absent contact fields in sheet rows.
const Missing = "-----"

var phoneJunkRe = regexp.MustCompile(`[\s\-\(\)]`)

// mobile number prefixes assigned to Turkish carriers
var turkishMobilePrefixes = map[string]struct{}{
	"0505": {}, "0506": {}, "0507": {},
	"0530": {}, "0531": {}, "0532": {}, "0533": {}, "0534": {},
	"0535": {}, "0536": {}, "0537": {}, "0538": {}, "0539": {},
	"0541": {}, "0542": {}, "0543": {}, "0544": {}, "0545": {}, "0546": {},
	"0549": {},
	"0551": {}, "0552": {}, "0553": {}, "0554": {}, "0555": {},
}

// normalizePhone strips the +90 country prefix, spaces, dashes and
// parentheses.
func normalizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, "+90", "")
	phone = strings.ReplaceAll(phone, "+ 90", "")
	phone = strings.TrimSpace(phone)
	return phoneJunkRe.ReplaceAllString(phone, "")
}

// isTurkishMobile reports whether a normalized number is a Turkish
// mobile number: 11 digits, 05XX prefix from a carrier block.
func isTurkishMobile(normalized string) bool {
	if len(normalized) != 11 || !strings.HasPrefix(normalized, "05") {
		return false
	}
	_, ok := turkishMobilePrefixes[normalized[:4]]
	return ok
}

// SplitPhone sorts a lead's numbers into mobile (cep) and landline
// (normal) slots, keeping the original formatting. The international
// number is classified first. Empty slots get the Missing placeholder.
func SplitPhone(phone, phoneIntl string) (cep, normal string) {
	if phoneIntl != "" {
		if isTurkishMobile(normalizePhone(phoneIntl)) {
			cep = phoneIntl
		} else {
			normal = phoneIntl
		}
	}

	if phone != "" && cep == "" {
		if isTurkishMobile(normalizePhone(phone)) {
			cep = phone
		} else {
			normal = phone
		}
	}

	if cep == "" {
		cep = Missing
	}
	if normal == "" {
		normal = Missing
	}
	return cep, normal
}
