package resolver

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

func rows(columns []string, values ...[]string) []sheet.Row {
	out := make([]sheet.Row, 0, len(values))
	for i, v := range values {
		cells := make(map[string]string, len(columns))
		for j, c := range columns {
			if j < len(v) {
				cells[c] = v[j]
			}
		}
		out = append(out, sheet.Row{GridRow: i + 1, Cells: cells})
	}
	return out
}

func TestResolve_PicksColumnWithMostMeaningfulValues(t *testing.T) {
	columns := []string{"Unit", "Kitchen", "Kitchen Aerator"}
	data := rows(columns,
		[]string{"101", "", "1"},
		[]string{"102", "no", "1"},
		[]string{"103", "1", "1"},
	)

	r := New()
	best, amb, ok := r.Resolve(columns, data, Spec{Category: Kitchen, Patterns: []string{"kitchen aerator", "kitchen"}}, "Unit")
	require.True(t, ok)
	assert.Nil(t, amb)
	assert.Equal(t, "Kitchen Aerator", best.Name)
	assert.Equal(t, 3, best.MeaningfulCount)
	assert.Equal(t, []string{"1", "1", "1"}, best.SampleValues)
}

func TestResolve_TieGoesToFirstColumnAndIsReported(t *testing.T) {
	columns := []string{"Unit", "Kitchen A", "Kitchen B"}
	data := rows(columns,
		[]string{"101", "1", "1"},
	)

	best, amb, ok := New().Resolve(columns, data, Spec{Category: Kitchen, Patterns: []string{"kitchen"}}, "Unit")
	require.True(t, ok)
	assert.Equal(t, "Kitchen A", best.Name)
	require.NotNil(t, amb)
	assert.Equal(t, []string{"Kitchen B"}, amb.Tied)
	assert.Equal(t, "Kitchen A", amb.Chosen)
}

func TestResolve_SkipsLeakAndIssueColumns(t *testing.T) {
	columns := []string{"Unit", "Leak Issue Kitchen Faucet", "Kitchen Issue Notes"}
	data := rows(columns, []string{"101", "Light", "drips"})

	_, _, ok := New().Resolve(columns, data, Spec{Category: Kitchen, Patterns: []string{"kitchen"}}, "Unit")
	assert.False(t, ok)
}

func TestResolve_PatternContainsHeader(t *testing.T) {
	columns := []string{"Unit", "Aerator"}
	data := rows(columns, []string{"101", "1"})

	best, _, ok := New().Resolve(columns, data, Spec{Category: Kitchen, Patterns: []string{"kitchen aerator"}}, "Unit")
	require.True(t, ok)
	assert.Equal(t, "Aerator", best.Name)
}

func TestResolve_NoCandidates(t *testing.T) {
	columns := []string{"Unit", "Notes"}
	_, _, ok := New().Resolve(columns, nil, Spec{Category: Toilet, Patterns: []string{"toilet"}}, "Unit")
	assert.False(t, ok)
}

func TestResolveSheet(t *testing.T) {
	columns := []string{
		"Bldg/Unit",
		"Kitchen Aerator",
		"Bathroom Aerator Guest",
		"Bathroom Aerator Master",
		"ADA Shower Head",
		"Shower Head",
		"Toilets Installed: 361",
		"Leak Issue Kitchen Faucet",
		"Leak Issue Bath Faucet",
		"Tub Spout/Diverter Leak Issue",
		"Notes",
	}
	s := &sheet.Sheet{
		Columns: columns,
		Rows: rows(columns,
			[]string{"101", "1", "1", "1", "", "1", "1", "", "", "", ""},
			[]string{"102", "1", "1", "", "1", "", "2", "Light", "", "", ""},
		),
	}

	res := New().ResolveSheet(s, "")

	assert.Equal(t, "Bldg/Unit", res.UnitColumn)
	assert.Equal(t, "Kitchen Aerator", res.Column(Kitchen))
	assert.Equal(t, []string{"Bathroom Aerator Guest", "Bathroom Aerator Master"}, res.Columns[Bathroom])
	assert.Equal(t, "ADA Shower Head", res.Column(ShowerADA))
	assert.Equal(t, "Shower Head", res.Column(ShowerRegular))
	assert.Equal(t, "Toilets Installed: 361", res.Column(Toilet))
	assert.Equal(t, LeakColumns{
		Kitchen: "Leak Issue Kitchen Faucet",
		Bath:    "Leak Issue Bath Faucet",
		Tub:     "Tub Spout/Diverter Leak Issue",
	}, res.Leaks)
}

func TestResolveSheet_BathroomNeedsAeratorHeader(t *testing.T) {
	columns := []string{"Unit", "Bathrooms", "Bathroom Aerator", "Bathroom Shower Head"}
	s := &sheet.Sheet{
		Columns: columns,
		Rows:    rows(columns, []string{"101", "2", "1", "1"}),
	}

	res := New().ResolveSheet(s, "")

	assert.Equal(t, []string{"Bathroom Aerator"}, res.Columns[Bathroom])
	assert.Equal(t, "Bathroom Shower Head", res.Column(ShowerRegular))
}

func TestResolveSheet_IgnoresAnnotationColumns(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		values   []string
		category Category
		want     string
	}{
		{
			name:     "toilet notes",
			columns:  []string{"Unit", "Toilet Notes", "Toilet"},
			values:   []string{"101", "runs constantly", ""},
			category: Toilet,
			want:     "Toilet",
		},
		{
			name:     "kitchen comments",
			columns:  []string{"Unit", "Kitchen Comments", "Kitchen"},
			values:   []string{"101", "tenant absent", ""},
			category: Kitchen,
			want:     "Kitchen",
		},
		{
			name:     "kitchen leak",
			columns:  []string{"Unit", "Kitchen Leak", "Kitchen Aerator"},
			values:   []string{"101", "Light", ""},
			category: Kitchen,
			want:     "Kitchen Aerator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sheet.Sheet{Columns: tt.columns, Rows: rows(tt.columns, tt.values)}
			res := New().ResolveSheet(s, "")
			assert.Equal(t, []string{tt.want}, res.Columns[tt.category])
		})
	}
}

func TestResolve_TieIsLoggedAtDebug(t *testing.T) {
	columns := []string{"Unit", "Kitchen A", "Kitchen B"}
	data := rows(columns, []string{"101", "1", "1"})
	spec := Spec{Category: Kitchen, Patterns: []string{"kitchen"}}

	var info bytes.Buffer
	r := New(WithLogger(slog.New(slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}))))
	_, amb, ok := r.Resolve(columns, data, spec, "Unit")
	require.True(t, ok)
	require.NotNil(t, amb)
	assert.Empty(t, info.String())

	var debug bytes.Buffer
	r = New(WithLogger(slog.New(slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	_, _, _ = r.Resolve(columns, data, spec, "Unit")
	assert.Contains(t, debug.String(), "ambiguous column resolution")
	assert.Contains(t, debug.String(), "level=DEBUG")
}

func TestResolveSheet_Empty(t *testing.T) {
	res := New().ResolveSheet(&sheet.Sheet{}, "")
	assert.Empty(t, res.UnitColumn)
	assert.Empty(t, res.Columns)
}

func TestDetectUnitColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{"exact bldg/unit", []string{"Unit", "BLDG/UNIT"}, "BLDG/UNIT"},
		{"bldg and unit", []string{"Apt", "Bldg - Unit"}, "Bldg - Unit"},
		{"keyword", []string{"Date", "Apartment #"}, "Apartment #"},
		{"room", []string{"Floor", "Room"}, "Room"},
		{"fallback first", []string{"Location", "Kitchen"}, "Location"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectUnitColumn(tt.columns))
		})
	}
}

func TestFuzzyStrategy(t *testing.T) {
	f := NewFuzzyStrategy()

	m, ok := f.Match("Kitchen Aeratr", []string{"kitchen aerator"})
	require.True(t, ok)
	assert.Equal(t, 1, m.Distance)

	m, ok = f.Match("Kitchen Aerator", []string{"kitchen aerator"})
	require.True(t, ok)
	assert.Equal(t, 0, m.Distance)

	_, ok = f.Match("Notes", []string{"kitchen aerator"})
	assert.False(t, ok)
}

func TestFuzzyStrategy_RanksCloserHeaderFirst(t *testing.T) {
	columns := []string{"Unit", "Showr Hed", "Shower Hed"}
	data := rows(columns, []string{"101", "1", "1"})

	r := New(WithStrategy(NewFuzzyStrategy()))
	best, amb, ok := r.Resolve(columns, data, Spec{Category: ShowerRegular, Patterns: []string{"shower head"}}, "Unit")
	require.True(t, ok)
	assert.Nil(t, amb)
	assert.Equal(t, "Shower Hed", best.Name)
}
