package resolver

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Match is a strategy's verdict on a single header.
type Match struct {
	Pattern  string
	Distance int
}

// Strategy decides whether a header name belongs to a pattern set.
type Strategy interface {
	Match(name string, patterns []string) (Match, bool)
}

// SubstringStrategy accepts a header that equals, contains or is contained in
// a pattern, compared case-insensitively.
type SubstringStrategy struct{}

// Match implements Strategy.
func (SubstringStrategy) Match(name string, patterns []string) (Match, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return Match{}, false
	}
	for _, p := range patterns {
		p = strings.ToLower(p)
		if lower == p || strings.Contains(lower, p) || strings.Contains(p, lower) {
			return Match{Pattern: p}, true
		}
	}
	return Match{}, false
}

// FuzzyStrategy extends substring matching with subsequence matches such as
// "Kitchn Aerator" or "Bath Aertr", ranked by edit distance.
type FuzzyStrategy struct {
	// MaxDistance bounds the accepted Levenshtein distance.
	MaxDistance int
}

// NewFuzzyStrategy returns a fuzzy strategy with a sensible distance bound.
func NewFuzzyStrategy() FuzzyStrategy {
	return FuzzyStrategy{MaxDistance: 4}
}

// Match implements Strategy.
func (f FuzzyStrategy) Match(name string, patterns []string) (Match, bool) {
	if m, ok := (SubstringStrategy{}).Match(name, patterns); ok {
		return m, true
	}

	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return Match{}, false
	}

	best := Match{Distance: -1}
	for _, p := range patterns {
		for _, d := range []int{fuzzy.RankMatchFold(name, p), fuzzy.RankMatchFold(p, name)} {
			if d < 0 || d > f.MaxDistance {
				continue
			}
			if best.Distance < 0 || d < best.Distance {
				best = Match{Pattern: p, Distance: d}
			}
		}
	}
	if best.Distance < 0 {
		return Match{}, false
	}
	return best, true
}
