// Package resolver maps loosely named spreadsheet headers onto the fixture
// categories a report tracks.
package resolver

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

const maxSamples = 5

// skipKeywords mark leak/issue columns, which never hold installation counts.
var skipKeywords = []string{"leak", "issue"}

// Candidate is a column that matched a category's patterns.
type Candidate struct {
	Name            string   `json:"name"`
	Index           int      `json:"index"`
	MeaningfulCount int      `json:"meaningful_count"`
	SampleValues    []string `json:"sample_values,omitempty"`
	// Distance is the strategy's match distance; 0 for direct matches.
	Distance int `json:"distance"`
}

// Ambiguity records a tie broken by column order.
type Ambiguity struct {
	Category Category `json:"category"`
	Chosen   string   `json:"chosen"`
	Tied     []string `json:"tied"`
	Count    int      `json:"count"`
}

// Resolution is the column layout inferred for one sheet.
type Resolution struct {
	UnitColumn  string                `json:"unit_column"`
	Columns     map[Category][]string `json:"columns"`
	Leaks       LeakColumns           `json:"leaks"`
	Ambiguities []Ambiguity           `json:"ambiguities,omitempty"`
}

// Column returns the first resolved column for a category.
func (r Resolution) Column(c Category) string {
	if cols := r.Columns[c]; len(cols) > 0 {
		return cols[0]
	}
	return ""
}

// InstallationColumns returns every resolved category column.
func (r Resolution) InstallationColumns() []string {
	var out []string
	for _, spec := range DefaultSpecs() {
		out = append(out, r.Columns[spec.Category]...)
	}
	return out
}

// Resolver ranks header candidates by how much real data they carry.
type Resolver struct {
	strategy Strategy
	specs    []Spec
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStrategy swaps the header matching strategy.
func WithStrategy(s Strategy) Option {
	return func(r *Resolver) {
		r.strategy = s
	}
}

// WithSpecs replaces the category patterns.
func WithSpecs(specs []Spec) Option {
	return func(r *Resolver) {
		r.specs = specs
	}
}

// WithLogger sets the logger used for tie reporting.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver using substring matching and the default specs.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		strategy: SubstringStrategy{},
		specs:    DefaultSpecs(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Candidates returns every column matching the spec, best first.
func (r *Resolver) Candidates(columns []string, rows []sheet.Row, spec Spec, unitColumn string) []Candidate {
	var out []Candidate
	for i, name := range columns {
		if !r.eligible(name, spec, unitColumn) {
			continue
		}
		m, ok := r.strategy.Match(name, spec.Patterns)
		if !ok {
			continue
		}

		c := Candidate{Name: name, Index: i, Distance: m.Distance}
		for _, row := range rows {
			v := row.Value(name)
			if !sheet.IsMeaningful(v) {
				continue
			}
			c.MeaningfulCount++
			if len(c.SampleValues) < maxSamples {
				c.SampleValues = append(c.SampleValues, v)
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MeaningfulCount != b.MeaningfulCount {
			return a.MeaningfulCount > b.MeaningfulCount
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.Index < b.Index
	})
	return out
}

// Resolve picks the single best column for a spec. Ties go to the column
// encountered first and are reported through the returned Ambiguity.
func (r *Resolver) Resolve(columns []string, rows []sheet.Row, spec Spec, unitColumn string) (Candidate, *Ambiguity, bool) {
	candidates := r.Candidates(columns, rows, spec, unitColumn)
	if len(candidates) == 0 {
		return Candidate{}, nil, false
	}

	best := candidates[0]
	var tied []string
	for _, c := range candidates[1:] {
		if c.MeaningfulCount == best.MeaningfulCount && c.Distance == best.Distance {
			tied = append(tied, c.Name)
		}
	}
	if len(tied) == 0 {
		return best, nil, true
	}

	amb := &Ambiguity{
		Category: spec.Category,
		Chosen:   best.Name,
		Tied:     tied,
		Count:    best.MeaningfulCount,
	}
	r.logger.Debug("ambiguous column resolution",
		slog.String("category", string(spec.Category)),
		slog.String("chosen", best.Name),
		slog.Any("tied", tied),
		slog.Int("meaningful_count", best.MeaningfulCount),
	)
	return best, amb, true
}

// ResolveAll returns every matching column in sheet order.
func (r *Resolver) ResolveAll(columns []string, rows []sheet.Row, spec Spec, unitColumn string) []Candidate {
	candidates := r.Candidates(columns, rows, spec, unitColumn)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Index < candidates[j].Index
	})
	return candidates
}

// ResolveSheet infers the unit column, every category column and the leak
// columns of a sheet. An empty forcedUnit triggers detection.
func (r *Resolver) ResolveSheet(s *sheet.Sheet, forcedUnit string) Resolution {
	res := Resolution{Columns: make(map[Category][]string)}
	if s == nil || len(s.Columns) == 0 {
		return res
	}

	res.UnitColumn = forcedUnit
	if res.UnitColumn == "" || s.ColumnIndex(res.UnitColumn) < 0 {
		res.UnitColumn = DetectUnitColumn(s.Columns)
	}

	for _, spec := range r.specs {
		if spec.Multi {
			for _, c := range r.ResolveAll(s.Columns, s.Rows, spec, res.UnitColumn) {
				res.Columns[spec.Category] = append(res.Columns[spec.Category], c.Name)
			}
			continue
		}

		best, amb, ok := r.Resolve(s.Columns, s.Rows, spec, res.UnitColumn)
		if !ok {
			r.logger.Debug("no column for category", slog.String("category", string(spec.Category)))
			continue
		}
		res.Columns[spec.Category] = []string{best.Name}
		if amb != nil {
			res.Ambiguities = append(res.Ambiguities, *amb)
		}
	}

	res.Leaks = DetectLeakColumns(s.Columns)
	return res
}

func (r *Resolver) eligible(name string, spec Spec, unitColumn string) bool {
	if strings.TrimSpace(name) == "" || name == unitColumn {
		return false
	}
	lower := strings.ToLower(name)
	if containsAny(lower, skipKeywords) {
		return false
	}
	for _, k := range spec.Require {
		if !strings.Contains(lower, k) {
			return false
		}
	}
	return !containsAny(lower, spec.Exclude)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
