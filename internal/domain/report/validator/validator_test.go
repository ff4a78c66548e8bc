package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

func newSheet(columns []string, values ...[]string) *sheet.Sheet {
	s := &sheet.Sheet{Columns: columns}
	for i, v := range values {
		cells := make(map[string]string, len(columns))
		for j, c := range columns {
			if j < len(v) {
				cells[c] = v[j]
			}
		}
		s.Rows = append(s.Rows, sheet.Row{GridRow: i + 1, Cells: cells})
	}
	return s
}

func units(rows []sheet.Row, column string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Value(column))
	}
	return out
}

func TestFilter_StopsAtBlankUnmergedUnit(t *testing.T) {
	s := newSheet([]string{"Unit", "Kitchen Aerator"},
		[]string{"101", "1"},
		[]string{"102", "1"},
		[]string{"", ""},
		[]string{"103", "1"},
	)
	res := resolver.New().ResolveSheet(s, "")

	got := New().Filter(s, res)
	assert.Equal(t, []string{"101", "102"}, units(got.Rows, "Unit"))
	assert.Equal(t, 3, got.StoppedAt)
}

func TestFilter_MergedUnitInheritsTopLeft(t *testing.T) {
	s := newSheet([]string{"Unit", "Kitchen Aerator"},
		[]string{"5B", "1"},
		[]string{"", "1"},
		[]string{"", ""},
		[]string{"6A", "1"},
	)
	s.Merges = []sheet.MergeRange{{StartRow: 1, EndRow: 3, StartCol: 0, EndCol: 0}}
	res := resolver.New().ResolveSheet(s, "")

	got := New().Filter(s, res)
	assert.Equal(t, []string{"5B", "5B", "5B", "6A"}, units(got.Rows, "Unit"))
	assert.Equal(t, -1, got.StoppedAt)
}

func TestFilter_BlankMergedUnitIsSkipped(t *testing.T) {
	s := newSheet([]string{"Unit", "Kitchen Aerator"},
		[]string{"101", "1"},
		[]string{"", "1"},
		[]string{"", "1"},
		[]string{"102", "1"},
	)
	// A merge whose top-left cell is itself blank.
	s.Merges = []sheet.MergeRange{{StartRow: 2, EndRow: 3, StartCol: 0, EndCol: 1}}
	res := resolver.New().ResolveSheet(s, "")

	got := New().Filter(s, res)
	assert.Equal(t, []string{"101", "102"}, units(got.Rows, "Unit"))
	require.Len(t, got.Skipped, 2)
	assert.Equal(t, ReasonBlankMerged, got.Skipped[0].Reason)
}

func TestFilter_SummaryRows(t *testing.T) {
	s := newSheet([]string{"Unit", "Kitchen Aerator", "Leak Issue Kitchen Faucet"},
		[]string{"101", "1", ""},
		[]string{"Total", "", ""},
		[]string{"Grand Total", "", ""},
		[]string{"Sum Row 7", "1", ""},
		[]string{"Summary Suite", "", "Light"},
	)
	res := resolver.New().ResolveSheet(s, "")

	got := New().Filter(s, res)
	assert.Equal(t, []string{"101", "Sum Row 7", "Summary Suite"}, units(got.Rows, "Unit"))
	require.Len(t, got.Skipped, 2)
	assert.Equal(t, ReasonSummaryUnit, got.Skipped[0].Reason)
	assert.Equal(t, "Total", got.Skipped[0].Value)
}

func TestFilter_SummaryInLeadingColumns(t *testing.T) {
	s := newSheet([]string{"Unit", "Building", "Kitchen Aerator"},
		[]string{"101", "A", "1"},
		[]string{"102", "Totals", "40"},
	)
	res := resolver.New().ResolveSheet(s, "")

	got := New().Filter(s, res)
	assert.Equal(t, []string{"101"}, units(got.Rows, "Unit"))
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, ReasonSummaryLeading, got.Skipped[0].Reason)
	assert.Equal(t, "Building", got.Skipped[0].Value)
}

func TestFilter_EmptyInput(t *testing.T) {
	got := New().Filter(&sheet.Sheet{}, resolver.Resolution{})
	assert.Empty(t, got.Rows)
	assert.Equal(t, -1, got.StoppedAt)
}

func TestIsSummaryValue(t *testing.T) {
	v := New()
	tests := []struct {
		value string
		want  bool
	}{
		{"TOTAL", true},
		{"  subtotal ", true},
		{"Average", true},
		{"Avg.", true},
		{"101", false},
		{"", false},
		{"Office", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsSummaryValue(tt.value))
		})
	}
}

func TestWithKeywords(t *testing.T) {
	v := New(WithKeywords([]string{"Vacant"}))
	assert.True(t, v.IsSummaryValue("vacant unit"))
	assert.False(t, v.IsSummaryValue("total"))
}
