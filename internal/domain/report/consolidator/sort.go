package consolidator

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

// Comparer orders unit names: numerically when both names start with
// different integers, otherwise with a numeric-aware, case-insensitive
// collation ("Unit 2" before "Unit 10").
type Comparer struct {
	collator *collate.Collator
}

// NewComparer returns a Comparer for the given language tag.
func NewComparer(tag language.Tag) *Comparer {
	return &Comparer{collator: collate.New(tag, collate.Numeric, collate.IgnoreCase)}
}

// Compare returns -1, 0 or 1.
func (c *Comparer) Compare(a, b string) int {
	na, aok := sheet.LeadingInt(a)
	nb, bok := sheet.LeadingInt(b)
	if aok && bok && na != nb {
		if na < nb {
			return -1
		}
		return 1
	}
	return c.collator.CompareString(a, b)
}

// SortUnits orders units by display name. The slice is sorted in place.
func SortUnits(units []Unit) {
	c := NewComparer(language.English)
	sort.SliceStable(units, func(i, j int) bool {
		return c.Compare(units[i].DisplayUnit, units[j].DisplayUnit) < 0
	})
}

// SortKeys orders unit names in place.
func SortKeys(keys []string) {
	c := NewComparer(language.English)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.Compare(keys[i], keys[j]) < 0
	})
}

var toiletHeaderPrefixes = []string{"toilets installed", "toilets replaced", "toilet installed", "toilet replaced"}

var headerCount = regexp.MustCompile(`:\s*(\d+)`)

// ToiletTotal returns the number of toilets installed at the property. A
// count embedded in a header ("Toilets Installed: 361") takes precedence over
// the sum of per-unit quantities.
func ToiletTotal(columns []string, units []Unit) int {
	for _, c := range columns {
		lower := strings.ToLower(strings.TrimSpace(c))
		for _, p := range toiletHeaderPrefixes {
			if !strings.HasPrefix(lower, p) {
				continue
			}
			if m := headerCount.FindStringSubmatch(lower); m != nil {
				if n, ok := sheet.LeadingInt(m[1]); ok {
					return n
				}
			}
		}
	}

	total := 0
	for _, u := range units {
		total += u.ToiletQuantity
	}
	return total
}
