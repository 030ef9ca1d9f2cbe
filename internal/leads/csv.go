package leads

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// DefaultCSVColumns is the column order used when the caller does not
// ask for a subset.
var DefaultCSVColumns = []string{
	"name", "formatted_address", "latitude", "longitude", "place_id",
	"types", "rating", "user_ratings_total", "business_status",
	"phone", "phone_intl", "website",
}

// ToCSV renders leads as CSV with a header row. An empty columns slice
// selects DefaultCSVColumns; unknown column names are an error.
func ToCSV(items []Lead, columns []string) (string, error) {
	if len(columns) == 0 {
		columns = DefaultCSVColumns
	}
	for _, col := range columns {
		if !knownCSVColumn(col) {
			return "", fmt.Errorf("unknown csv column %q", col)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return "", err
	}
	for _, lead := range items {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = csvValue(lead, col)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func knownCSVColumn(col string) bool {
	for _, known := range DefaultCSVColumns {
		if col == known {
			return true
		}
	}
	return false
}

func csvValue(lead Lead, col string) string {
	switch col {
	case "name":
		return lead.Name
	case "formatted_address":
		return lead.FormattedAddress
	case "latitude":
		return formatFloat(lead.Latitude)
	case "longitude":
		return formatFloat(lead.Longitude)
	case "place_id":
		return lead.PlaceID
	case "types":
		return strings.Join(lead.Types, ";")
	case "rating":
		return formatFloat(lead.Rating)
	case "user_ratings_total":
		if lead.UserRatingsTotal == nil {
			return ""
		}
		return strconv.Itoa(*lead.UserRatingsTotal)
	case "business_status":
		return lead.BusinessStatus
	case "phone":
		return lead.Phone
	case "phone_intl":
		return lead.PhoneIntl
	case "website":
		return lead.Website
	}
	return ""
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
