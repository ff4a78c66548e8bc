package sheet

import (
	"strings"
)

const maxQuantity = 1_000_000

var notMeaningful = map[string]struct{}{
	"":     {},
	"0":    {},
	"no":   {},
	"n/a":  {},
	"na":   {},
	"none": {},
	"nan":  {},
}

// IsMeaningful reports whether a cell records something other than an empty
// or negative marker.
func IsMeaningful(value string) bool {
	_, blank := notMeaningful[strings.ToLower(strings.TrimSpace(value))]
	return !blank
}

// ParseQuantity reads the leading integer of a cell ("2", "1.0", "3 units").
// Unparseable and negative values count as zero.
func ParseQuantity(value string) int {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0
	}

	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}

	n, ok := LeadingInt(s)
	if !ok || neg || n > maxQuantity {
		return 0
	}
	return n
}

// LeadingInt returns the integer prefix of s and whether one was present.
func LeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if digits > 18 {
			break
		}
	}
	return n, digits > 0
}
