// Package validator decides which spreadsheet rows describe real units.
package validator

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

// leadingColumns is how many columns are scanned for summary keywords.
const leadingColumns = 5

// DefaultKeywords mark summary rows appended beneath the unit list.
var DefaultKeywords = []string{
	"total", "sum", "average", "avg", "count", "header",
	"grand total", "subtotal", "summary", "totals", "grand", "sub total",
}

// Reason explains why a row was dropped.
type Reason string

const (
	ReasonBlankMerged    Reason = "blank_merged_unit"
	ReasonSummaryUnit    Reason = "summary_unit"
	ReasonSummaryLeading Reason = "summary_leading_column"
)

// Skip records a dropped row.
type Skip struct {
	GridRow int    `json:"grid_row"`
	Reason  Reason `json:"reason"`
	Value   string `json:"value,omitempty"`
}

// Result is the outcome of filtering a sheet.
type Result struct {
	Rows    []sheet.Row `json:"-"`
	Skipped []Skip      `json:"skipped,omitempty"`
	// StoppedAt is the grid row of the blank unit cell that ended the unit
	// list, or -1 when every row was inspected.
	StoppedAt int `json:"stopped_at"`
}

// Validator filters rows using a keyword automaton.
type Validator struct {
	keywords []string
	logger   *slog.Logger

	// Match on the automaton is not safe for concurrent use.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

// Option configures a Validator.
type Option func(*Validator)

// WithKeywords replaces the summary keyword list.
func WithKeywords(keywords []string) Option {
	return func(v *Validator) {
		v.keywords = keywords
	}
}

// WithLogger sets the validator logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// New builds a validator with the default keyword list.
func New(opts ...Option) *Validator {
	v := &Validator{
		keywords: DefaultKeywords,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}

	lowered := make([]string, len(v.keywords))
	for i, k := range v.keywords {
		lowered[i] = strings.ToLower(k)
	}
	v.keywords = lowered
	v.matcher = ahocorasick.NewStringMatcher(lowered)
	return v
}

// IsSummaryValue reports whether a cell names a total/summary row.
func (v *Validator) IsSummaryValue(value string) bool {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return false
	}

	v.mu.Lock()
	hits := v.matcher.Match([]byte(s))
	v.mu.Unlock()
	return len(hits) > 0
}

// Filter walks the sheet top to bottom and keeps unit rows. Merged unit cells
// inherit their top-left value; a blank unmerged unit cell ends the list.
func (v *Validator) Filter(s *sheet.Sheet, res resolver.Resolution) Result {
	out := Result{StoppedAt: -1}
	if s.Empty() || res.UnitColumn == "" {
		return out
	}

	unitCol := s.ColumnIndex(res.UnitColumn)
	dataColumns := append(res.InstallationColumns(), res.Leaks.Names()...)

	for _, row := range s.Rows {
		unit := row.Value(res.UnitColumn)

		merge, merged := s.MergeAt(row.GridRow, unitCol)
		if merged && unit == "" {
			unit = s.CellAt(merge.StartRow, merge.StartCol)
		}

		if unit == "" {
			if merged {
				out.Skipped = append(out.Skipped, Skip{GridRow: row.GridRow, Reason: ReasonBlankMerged})
				continue
			}
			out.StoppedAt = row.GridRow
			v.logger.Debug("blank unit cell ends unit list", slog.Int("grid_row", row.GridRow))
			break
		}

		if v.IsSummaryValue(unit) && !hasData(row, dataColumns) {
			out.Skipped = append(out.Skipped, Skip{GridRow: row.GridRow, Reason: ReasonSummaryUnit, Value: unit})
			continue
		}

		if col, ok := v.summaryInLeadingColumns(s, row, res.UnitColumn); ok {
			out.Skipped = append(out.Skipped, Skip{GridRow: row.GridRow, Reason: ReasonSummaryLeading, Value: col})
			continue
		}

		kept := row.Clone()
		kept.Cells[res.UnitColumn] = unit
		out.Rows = append(out.Rows, kept)
	}

	v.logger.Debug("rows filtered",
		slog.Int("kept", len(out.Rows)),
		slog.Int("skipped", len(out.Skipped)),
		slog.Int("stopped_at", out.StoppedAt),
	)
	return out
}

func (v *Validator) summaryInLeadingColumns(s *sheet.Sheet, row sheet.Row, unitColumn string) (string, bool) {
	limit := leadingColumns
	if len(s.Columns) < limit {
		limit = len(s.Columns)
	}
	for _, c := range s.Columns[:limit] {
		if c == unitColumn {
			continue
		}
		if v.IsSummaryValue(row.Value(c)) {
			return c, true
		}
	}
	return "", false
}

func hasData(row sheet.Row, columns []string) bool {
	for _, c := range columns {
		if sheet.IsMeaningful(row.Value(c)) {
			return true
		}
	}
	return false
}
