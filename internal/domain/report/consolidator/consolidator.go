// Package consolidator aggregates filtered rows into one installation summary
// per unit.
package consolidator

import (
	"github.com/FACorreiaa/fixture-report/internal/domain/report/normalizer"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/sheet"
)

// Unit is the consolidated installation record for one unit key.
type Unit struct {
	Unit        string `json:"unit" csv:"-"`
	DisplayUnit string `json:"display_unit" csv:"Unit"`

	KitchenAeratorQuantity  int `json:"kitchen_aerator_quantity" csv:"Kitchen Aerators"`
	BathroomAeratorQuantity int `json:"bathroom_aerator_quantity" csv:"Bathroom Aerators"`
	AdaShowerQuantity       int `json:"ada_shower_quantity" csv:"ADA Shower Heads"`
	ShowerHeadQuantity      int `json:"shower_head_quantity" csv:"Shower Heads"`
	ToiletQuantity          int `json:"toilet_quantity" csv:"Toilets"`

	Notes []string `json:"notes,omitempty" csv:"-"`

	Kitchen  string `json:"kitchen" csv:"Kitchen"`
	Bathroom string `json:"bathroom" csv:"Bathroom"`
	Shower   string `json:"shower" csv:"Shower"`
	Toilet   string `json:"toilet" csv:"Toilet"`
}

// Total returns the number of fixtures installed in the unit.
func (u Unit) Total() int {
	return u.KitchenAeratorQuantity + u.BathroomAeratorQuantity +
		u.AdaShowerQuantity + u.ShowerHeadQuantity + u.ToiletQuantity
}

// NoteFunc compiles the narrative note of a single row.
type NoteFunc func(row sheet.Row) string

// Consolidate groups rows by unit key and sums their fixtures. Units are
// returned in order of first appearance with default display strings.
func Consolidate(rows []sheet.Row, res resolver.Resolution, ratings Ratings, noteFor NoteFunc) []Unit {
	if len(rows) == 0 || res.UnitColumn == "" {
		return nil
	}

	kitchen := res.Column(resolver.Kitchen)
	bathrooms := res.Columns[resolver.Bathroom]
	ada := res.Column(resolver.ShowerADA)
	shower := res.Column(resolver.ShowerRegular)
	toilet := res.Column(resolver.Toilet)

	index := make(map[string]int)
	var units []Unit
	for _, row := range rows {
		key := normalizer.Key(row.Value(res.UnitColumn))
		if key == "" {
			continue
		}

		i, ok := index[key]
		if !ok {
			i = len(units)
			index[key] = i
			units = append(units, Unit{Unit: key, DisplayUnit: key})
		}
		u := &units[i]

		if kitchen != "" && sheet.IsMeaningful(row.Value(kitchen)) {
			u.KitchenAeratorQuantity = 1
		}
		for _, col := range bathrooms {
			if sheet.IsMeaningful(row.Value(col)) {
				u.BathroomAeratorQuantity++
			}
		}
		if ada != "" {
			u.AdaShowerQuantity += sheet.ParseQuantity(row.Value(ada))
		}
		if shower != "" {
			u.ShowerHeadQuantity += sheet.ParseQuantity(row.Value(shower))
		}
		if toilet != "" {
			u.ToiletQuantity += sheet.ParseQuantity(row.Value(toilet))
		}

		if noteFor != nil {
			if note := noteFor(row); note != "" {
				u.Notes = appendUnique(u.Notes, note)
			}
		}
	}

	for i := range units {
		units[i].applyDefaultDisplay(ratings)
	}
	return units
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
