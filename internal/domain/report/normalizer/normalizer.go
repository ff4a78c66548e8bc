// Package normalizer turns raw unit cells into unique, display-ready unit keys.
package normalizer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

// TitleCase upper-cases the first letter of each word and lower-cases the
// rest. Words starting with a digit are upper-cased whole so unit codes such
// as "5b" read "5B".
func TitleCase(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	lower := cases.Lower(language.Und)
	upper := cases.Upper(language.Und)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		if unicode.IsDigit(first) {
			words[i] = upper.String(w)
			continue
		}
		words[i] = string(unicode.ToTitle(first)) + lower.String(w[size:])
	}
	return strings.Join(words, " ")
}

// Key returns the canonical, un-numbered key for a raw unit cell.
func Key(raw string) string {
	return TitleCase(strings.TrimSpace(raw))
}

// Normalize assigns every row its final unit key. Names that occur more than
// once are numbered in row order starting at 1 ("Office 1", "Office 2"), and
// the key is written into every unit-like column of the row.
func Normalize(rows []sheet.Row, unitColumn string) []sheet.Row {
	return normalize(rows, unitColumn, true)
}

// Canonicalize title-cases unit keys without numbering duplicates, so rows
// that name the same unit can be consolidated together.
func Canonicalize(rows []sheet.Row, unitColumn string) []sheet.Row {
	return normalize(rows, unitColumn, false)
}

func normalize(rows []sheet.Row, unitColumn string, number bool) []sheet.Row {
	base := make([]string, len(rows))
	counts := make(map[string]int, len(rows))
	for i, r := range rows {
		base[i] = Key(r.Value(unitColumn))
		counts[base[i]]++
	}

	seen := make(map[string]int, len(counts))
	out := make([]sheet.Row, len(rows))
	for i, r := range rows {
		key := base[i]
		if number && counts[key] > 1 {
			seen[key]++
			key = key + " " + strconv.Itoa(seen[key])
		}

		out[i] = withKey(r, unitColumn, key)
	}
	return out
}

// Append normalizes added rows onto rows that already carry final keys. The
// existing keys never change: an added row whose name is taken gets the next
// free ordinal ("101" becomes "101 2", "Office" after "Office 1" and
// "Office 2" becomes "Office 3").
func Append(rows, added []sheet.Row, unitColumn string) []sheet.Row {
	taken := make(map[string]bool, len(rows)+len(added))
	for _, r := range rows {
		taken[r.Value(unitColumn)] = true
	}

	out := append(make([]sheet.Row, 0, len(rows)+len(added)), rows...)
	for _, r := range added {
		base := Key(r.Value(unitColumn))
		key := base
		if taken[base] || taken[base+" 1"] {
			n := 2
			for taken[base+" "+strconv.Itoa(n)] {
				n++
			}
			key = base + " " + strconv.Itoa(n)
		}
		taken[key] = true
		out = append(out, withKey(r, unitColumn, key))
	}
	return out
}

func withKey(r sheet.Row, unitColumn, key string) sheet.Row {
	row := r.Clone()
	for col := range row.Cells {
		if strings.EqualFold(col, "unit") {
			row.Cells[col] = key
		}
	}
	row.Cells[unitColumn] = key
	return row
}
