package ekap

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lookup tables for the EKAP portals. Tender and direct-procurement type
// codes are shared; statuses and scopes only apply to direct procurement
// (Doğrudan Temin) on the legacy portal.

// TenderTypes maps EKAP tender type codes to their Turkish names.
var TenderTypes = map[int]string{
	1: "Mal",
	2: "Yapım",
	3: "Hizmet",
	4: "Danışmanlık",
}

// OKASItemTypes maps OKAS kalemTuru codes to bilingual descriptions.
var OKASItemTypes = map[int]string{
	1: "Mal (Goods)",
	2: "Hizmet (Service)",
	3: "Yapım (Construction)",
}

// AnnouncementTypes maps ilanTip codes to their Turkish names.
var AnnouncementTypes = map[string]string{
	"1": "Ön İlan",
	"2": "İhale İlanı",
	"3": "İptal İlanı",
	"4": "Sonuç İlanı",
	"5": "Ön Yeterlik İlanı",
	"6": "Düzeltme İlanı",
}

// DirectProcurementTypes maps DT type codes to their Turkish names.
var DirectProcurementTypes = map[int]string{
	1: "Mal",
	2: "Yapım",
	3: "Hizmet",
	4: "Danışmanlık",
}

// DirectProcurementStatuses maps legacy dtDurum ids to display texts.
var DirectProcurementStatuses = map[int]string{
	202: "Teklif Verilebilir",
	3:   "Teklifler Değerlendiriliyor",
	4:   "Sonuçlanmış",
	5:   "İptal Edilmiş",
	15:  "Sözleşme İmzalanmış",
}

// directProcurementStatusAliases accepts common English and shorthand
// spellings for status filters.
var directProcurementStatusAliases = map[string]int{
	"open":                    202,
	"open for bids":           202,
	"bids under evaluation":   3,
	"under evaluation":        3,
	"concluded":               4,
	"finished":                4,
	"cancelled":               5,
	"canceled":                5,
	"iptal":                   5,
	"contract signed":         15,
	"sozlesme imzalanmis":     15,
	"sözleşme imzalanmış":     15,
	"teklif verilebilir":      202,
	"teklifler degerlendiriliyor": 3,
}

// DirectProcurementScopes maps legacy dtKapsami ids to display texts.
var DirectProcurementScopes = map[int]string{
	101: "4734 Kapsamında",
	102: "İstisna Kapsamında",
	103: "Kanun Kapsamı Dışında",
}

var directProcurementScopeAliases = map[string]int{
	"within law 4734":    101,
	"4734":               101,
	"exception":          102,
	"istisna":            102,
	"outside the law":    103,
	"kanun kapsami disi": 103,
}

// provincePlates maps uppercase province names to their plate numbers
// (1-81). Plate numbers double as the first two digits of postal codes.
var provincePlates = map[string]int{
	"ADANA": 1, "ADIYAMAN": 2, "AFYONKARAHİSAR": 3, "AĞRI": 4, "AMASYA": 5,
	"ANKARA": 6, "ANTALYA": 7, "ARTVİN": 8, "AYDIN": 9, "BALIKESİR": 10,
	"BİLECİK": 11, "BİNGÖL": 12, "BİTLİS": 13, "BOLU": 14, "BURDUR": 15,
	"BURSA": 16, "ÇANAKKALE": 17, "ÇANKIRI": 18, "ÇORUM": 19, "DENİZLİ": 20,
	"DİYARBAKIR": 21, "EDİRNE": 22, "ELAZIĞ": 23, "ERZİNCAN": 24, "ERZURUM": 25,
	"ESKİŞEHİR": 26, "GAZİANTEP": 27, "GİRESUN": 28, "GÜMÜŞHANE": 29, "HAKKARİ": 30,
	"HATAY": 31, "ISPARTA": 32, "MERSİN": 33, "İSTANBUL": 34, "İZMİR": 35,
	"KARS": 36, "KASTAMONU": 37, "KAYSERİ": 38, "KIRKLARELİ": 39, "KIRŞEHİR": 40,
	"KOCAELİ": 41, "KONYA": 42, "KÜTAHYA": 43, "MALATYA": 44, "MANİSA": 45,
	"KAHRAMANMARAŞ": 46, "MARDİN": 47, "MUĞLA": 48, "MUŞ": 49, "NEVŞEHİR": 50,
	"NİĞDE": 51, "ORDU": 52, "RİZE": 53, "SAKARYA": 54, "SAMSUN": 55,
	"SİİRT": 56, "SİNOP": 57, "SİVAS": 58, "TEKİRDAĞ": 59, "TOKAT": 60,
	"TRABZON": 61, "TUNCELİ": 62, "ŞANLIURFA": 63, "UŞAK": 64, "VAN": 65,
	"YOZGAT": 66, "ZONGULDAK": 67, "AKSARAY": 68, "BAYBURT": 69, "KARAMAN": 70,
	"KIRIKKALE": 71, "BATMAN": 72, "ŞIRNAK": 73, "BARTIN": 74, "ARDAHAN": 75,
	"IĞDIR": 76, "YALOVA": 77, "KARABÜK": 78, "KİLİS": 79, "OSMANİYE": 80,
	"DÜZCE": 81,
}

// turkishUpper uppercases with Turkish casing rules, so "istanbul"
// becomes "İSTANBUL" and not "ISTANBUL".
var turkishUpper = cases.Upper(language.Turkish)

// PlateForProvince resolves a province name (case-insensitive, Turkish
// characters expected) to its plate number.
func PlateForProvince(name string) (int, bool) {
	plate, ok := provincePlates[turkishUpper.String(strings.TrimSpace(name))]
	return plate, ok
}

// PlateToAPIID converts a province plate number (1-81) to the id the
// EKAP v2 search API expects. The lookup rejects out-of-range plates so
// bad filters never produce an accidental empty-filter search.
func PlateToAPIID(plate int) (int, bool) {
	if plate < 1 || plate > 81 {
		return 0, false
	}
	return plate, true
}

// StatusIDForText resolves a direct-procurement status filter given as
// free text: a numeric string, the canonical Turkish display text, or a
// known alias.
func StatusIDForText(text string) (int, bool) {
	return resolveIDForText(text, DirectProcurementStatuses, directProcurementStatusAliases)
}

// ScopeIDForText resolves a direct-procurement scope filter given as free
// text, like StatusIDForText.
func ScopeIDForText(text string) (int, bool) {
	return resolveIDForText(text, DirectProcurementScopes, directProcurementScopeAliases)
}

func resolveIDForText(text string, canonical map[int]string, aliases map[string]int) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	if id, err := strconv.Atoi(s); err == nil {
		return id, true
	}

	for id, display := range canonical {
		if strings.ToLower(display) == s {
			return id, true
		}
	}

	id, ok := aliases[s]
	return id, ok
}
