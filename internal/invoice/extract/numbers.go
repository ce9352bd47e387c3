package extract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parseDecimalBR parses a monetary or numeric value written in the
// Brazilian convention: "." groups thousands and "," marks the decimal
// place ("1.234,56"). Values without a comma are treated as plain
// integers once grouping dots are removed.
func parseDecimalBR(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, ".,")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		return decimal.NewFromString(s)
	}
	// No decimal comma: every dot is a grouping separator when it is
	// followed by exactly three digits (e.g. "1.234" or "12.345.678").
	if i := strings.LastIndex(s, "."); i >= 0 && len(s)-i-1 == 3 {
		s = strings.ReplaceAll(s, ".", "")
	}
	return decimal.NewFromString(s)
}

func parseFloatBR(raw string) (float64, error) {
	d, err := parseDecimalBR(raw)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// dateLayouts are tried in order; the first layout that parses the
// whole token wins. Day-first is the dominant form on the documents.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

func parseDateBR(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
