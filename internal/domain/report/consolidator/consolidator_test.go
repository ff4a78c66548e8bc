package consolidator

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

func resolution() resolver.Resolution {
	return resolver.Resolution{
		UnitColumn: "Unit",
		Columns: map[resolver.Category][]string{
			resolver.Kitchen:       {"Kitchen Aerator"},
			resolver.Bathroom:      {"Bathroom Aerator Guest", "Bathroom Aerator Master"},
			resolver.ShowerADA:     {"ADA Shower Head"},
			resolver.ShowerRegular: {"Shower Head"},
			resolver.Toilet:        {"Toilets Installed"},
		},
	}
}

func row(cells map[string]string) sheet.Row {
	return sheet.Row{Cells: cells}
}

func TestConsolidate_EndToEndMergesRowsOfOneUnit(t *testing.T) {
	rows := []sheet.Row{
		row(map[string]string{"Unit": "101", "Kitchen Aerator": "1", "Bathroom Aerator Guest": "1"}),
		row(map[string]string{"Unit": "101", "Bathroom Aerator Master": "1"}),
	}

	units := Consolidate(rows, resolution(), DefaultRatings(), nil)
	require.Len(t, units, 1)

	u := units[0]
	assert.Equal(t, "101", u.Unit)
	assert.Equal(t, 1, u.KitchenAeratorQuantity)
	assert.Equal(t, 2, u.BathroomAeratorQuantity)
	assert.Equal(t, "1.0 GPM", u.Kitchen)
	assert.Equal(t, "1.0 GPM (2)", u.Bathroom)
	assert.Equal(t, Unable, u.Shower)
	assert.Equal(t, "", u.Toilet)
}

func TestConsolidate_KitchenIsBinary(t *testing.T) {
	rows := []sheet.Row{
		row(map[string]string{"Unit": "101", "Kitchen Aerator": "3"}),
		row(map[string]string{"Unit": "101", "Kitchen Aerator": "yes"}),
	}

	units := Consolidate(rows, resolution(), DefaultRatings(), nil)
	require.Len(t, units, 1)
	assert.Equal(t, 1, units[0].KitchenAeratorQuantity)
}

func TestConsolidate_ShowersAndToilets(t *testing.T) {
	rows := []sheet.Row{
		row(map[string]string{"Unit": "201", "Shower Head": "2", "ADA Shower Head": "1.0", "Toilets Installed": "1"}),
		row(map[string]string{"Unit": "201", "Shower Head": "n/a", "Toilets Installed": "2"}),
		row(map[string]string{"Unit": "202", "Shower Head": "abc", "Toilets Installed": "1"}),
	}

	units := Consolidate(rows, resolution(), DefaultRatings(), nil)
	require.Len(t, units, 2)

	assert.Equal(t, 2, units[0].ShowerHeadQuantity)
	assert.Equal(t, 1, units[0].AdaShowerQuantity)
	assert.Equal(t, 3, units[0].ToiletQuantity)
	assert.Equal(t, "1.75 GPM (2), 1.5 GPM (1)", units[0].Shower)
	assert.Equal(t, "0.8 GPF (3)", units[0].Toilet)

	assert.Equal(t, 0, units[1].ShowerHeadQuantity)
	assert.Equal(t, Unable, units[1].Shower)
	assert.Equal(t, "0.8 GPF", units[1].Toilet)
}

func TestConsolidate_UnresolvedColumnsYieldZero(t *testing.T) {
	rows := []sheet.Row{row(map[string]string{"Unit": "101", "Whatever": "1"})}

	units := Consolidate(rows, resolver.Resolution{UnitColumn: "Unit"}, DefaultRatings(), nil)
	require.Len(t, units, 1)
	assert.Zero(t, units[0].Total())
	assert.Equal(t, Unable, units[0].Kitchen)
	assert.Equal(t, Unable, units[0].Bathroom)
	assert.Equal(t, Unable, units[0].Shower)
	assert.Empty(t, units[0].Toilet)
}

func TestConsolidate_NotesAreDeduplicated(t *testing.T) {
	rows := []sheet.Row{
		row(map[string]string{"Unit": "101"}),
		row(map[string]string{"Unit": "101"}),
		row(map[string]string{"Unit": "102"}),
	}
	noteFor := func(r sheet.Row) string {
		if r.Value("Unit") == "101" {
			return "Light leak from kitchen faucet."
		}
		return ""
	}

	units := Consolidate(rows, resolution(), DefaultRatings(), noteFor)
	require.Len(t, units, 2)
	assert.Equal(t, []string{"Light leak from kitchen faucet."}, units[0].Notes)
	assert.Empty(t, units[1].Notes)
}

func TestConsolidate_EmptyInput(t *testing.T) {
	assert.Empty(t, Consolidate(nil, resolution(), DefaultRatings(), nil))
}

func TestConsolidate_QuantitiesAreNonNegative(t *testing.T) {
	faker := gofakeit.New(7)
	values := []string{"", "0", "1", "2", "-3", "no", "n/a", "1.5", "x", "NaN", "12"}

	var rows []sheet.Row
	for i := 0; i < 300; i++ {
		rows = append(rows, row(map[string]string{
			"Unit":                    faker.RandomString([]string{"101", "102", "103"}),
			"Kitchen Aerator":         faker.RandomString(values),
			"Bathroom Aerator Guest":  faker.RandomString(values),
			"Bathroom Aerator Master": faker.RandomString(values),
			"ADA Shower Head":         faker.RandomString(values),
			"Shower Head":             faker.RandomString(values),
			"Toilets Installed":       faker.RandomString(values),
		}))
	}

	for _, u := range Consolidate(rows, resolution(), DefaultRatings(), nil) {
		assert.GreaterOrEqual(t, u.KitchenAeratorQuantity, 0)
		assert.LessOrEqual(t, u.KitchenAeratorQuantity, 1)
		assert.GreaterOrEqual(t, u.BathroomAeratorQuantity, 0)
		assert.GreaterOrEqual(t, u.AdaShowerQuantity, 0)
		assert.GreaterOrEqual(t, u.ShowerHeadQuantity, 0)
		assert.GreaterOrEqual(t, u.ToiletQuantity, 0)
	}
}

func TestApplyOverrides_CategoryIndependence(t *testing.T) {
	rows := []sheet.Row{
		row(map[string]string{"Unit": "101", "Kitchen Aerator": "1", "Bathroom Aerator Guest": "1"}),
	}
	units := Consolidate(rows, resolution(), DefaultRatings(), nil)

	overrides := map[string]string{FieldKitchen: "Tenant refused"}
	ApplyOverrides(units, func(unit, field string) (string, bool) {
		v, ok := overrides[field]
		return v, ok && unit == "101"
	})

	assert.Equal(t, "Tenant refused", units[0].Kitchen)
	assert.Equal(t, "1.0 GPM", units[0].Bathroom)
	assert.Equal(t, Unable, units[0].Shower)
}

func TestDisplay_CustomRatings(t *testing.T) {
	r := DefaultRatings()
	r.Kitchen = decimal.RequireFromString("1.5")
	r.Toilet = decimal.RequireFromString("1")

	assert.Equal(t, "1.5 GPM", KitchenDisplay(1, r))
	assert.Equal(t, "1.0 GPF (2)", ToiletDisplay(2, r))
	assert.Equal(t, "1.0 GPM", BathroomDisplay(1, r))
	assert.Equal(t, "1.5 GPM (2)", ShowerDisplay(0, 2, r))
}
