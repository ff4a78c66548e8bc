package resolver

import "strings"

var unitKeywords = []string{"unit", "apt", "apartment", "room", "number"}

// DetectUnitColumn picks the header naming the unit. Preference order:
// an exact "bldg/unit", a header mentioning both bldg and unit, any unit-like
// keyword, then the first column.
func DetectUnitColumn(columns []string) string {
	if len(columns) == 0 {
		return ""
	}

	for _, c := range columns {
		if strings.EqualFold(strings.TrimSpace(c), "bldg/unit") {
			return c
		}
	}
	for _, c := range columns {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "bldg") && strings.Contains(lower, "unit") {
			return c
		}
	}
	for _, c := range columns {
		lower := strings.ToLower(c)
		if containsAny(lower, skipKeywords) {
			continue
		}
		if containsAny(lower, unitKeywords) {
			return c
		}
	}
	return columns[0]
}

// DetectLeakColumns finds the per-fixture leak severity headers.
func DetectLeakColumns(columns []string) LeakColumns {
	var l LeakColumns
	for _, c := range columns {
		lower := strings.ToLower(c)
		if !strings.Contains(lower, "leak") {
			continue
		}
		switch {
		case l.Tub == "" && (strings.Contains(lower, "tub") || strings.Contains(lower, "diverter")):
			l.Tub = c
		case l.Kitchen == "" && strings.Contains(lower, "kitchen"):
			l.Kitchen = c
		case l.Bath == "" && strings.Contains(lower, "bath"):
			l.Bath = c
		}
	}
	return l
}
