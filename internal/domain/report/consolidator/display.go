package consolidator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unable is shown when a fixture could not be installed.
const Unable = "Unable"

// Display fields that can be overridden per unit.
const (
	FieldKitchen  = "kitchen"
	FieldBathroom = "bathroom"
	FieldShower   = "shower"
	FieldToilet   = "toilet"
)

// Ratings are the flow ratings of the installed fixtures.
type Ratings struct {
	Kitchen   decimal.Decimal
	Bathroom  decimal.Decimal
	Shower    decimal.Decimal
	ADAShower decimal.Decimal
	Toilet    decimal.Decimal
}

// DefaultRatings returns the standard fixture ratings.
func DefaultRatings() Ratings {
	return Ratings{
		Kitchen:   decimal.RequireFromString("1.0"),
		Bathroom:  decimal.RequireFromString("1.0"),
		Shower:    decimal.RequireFromString("1.75"),
		ADAShower: decimal.RequireFromString("1.5"),
		Toilet:    decimal.RequireFromString("0.8"),
	}
}

// OverrideLookup returns a user-entered display value for a unit field.
type OverrideLookup func(unit, field string) (string, bool)

// ApplyOverrides replaces computed display strings with overrides.
func ApplyOverrides(units []Unit, lookup OverrideLookup) {
	if lookup == nil {
		return
	}
	for i := range units {
		u := &units[i]
		if v, ok := lookup(u.Unit, FieldKitchen); ok {
			u.Kitchen = v
		}
		if v, ok := lookup(u.Unit, FieldBathroom); ok {
			u.Bathroom = v
		}
		if v, ok := lookup(u.Unit, FieldShower); ok {
			u.Shower = v
		}
		if v, ok := lookup(u.Unit, FieldToilet); ok {
			u.Toilet = v
		}
	}
}

func (u *Unit) applyDefaultDisplay(r Ratings) {
	u.Kitchen = KitchenDisplay(u.KitchenAeratorQuantity, r)
	u.Bathroom = BathroomDisplay(u.BathroomAeratorQuantity, r)
	u.Shower = ShowerDisplay(u.ShowerHeadQuantity, u.AdaShowerQuantity, r)
	u.Toilet = ToiletDisplay(u.ToiletQuantity, r)
}

// KitchenDisplay renders the kitchen aerator cell.
func KitchenDisplay(qty int, r Ratings) string {
	if qty > 0 {
		return rate(r.Kitchen, "GPM")
	}
	return Unable
}

// BathroomDisplay renders the bathroom aerator cell.
func BathroomDisplay(qty int, r Ratings) string {
	switch {
	case qty <= 0:
		return Unable
	case qty == 1:
		return rate(r.Bathroom, "GPM")
	default:
		return fmt.Sprintf("%s (%d)", rate(r.Bathroom, "GPM"), qty)
	}
}

// ShowerDisplay renders regular and ADA shower heads in one cell.
func ShowerDisplay(regular, ada int, r Ratings) string {
	var parts []string
	if regular > 0 {
		parts = append(parts, fmt.Sprintf("%s (%d)", rate(r.Shower, "GPM"), regular))
	}
	if ada > 0 {
		parts = append(parts, fmt.Sprintf("%s (%d)", rate(r.ADAShower, "GPM"), ada))
	}
	if len(parts) == 0 {
		return Unable
	}
	return strings.Join(parts, ", ")
}

// ToiletDisplay renders the toilet cell; units without toilets stay blank.
func ToiletDisplay(qty int, r Ratings) string {
	switch {
	case qty <= 0:
		return ""
	case qty == 1:
		return rate(r.Toilet, "GPF")
	default:
		return fmt.Sprintf("%s (%d)", rate(r.Toilet, "GPF"), qty)
	}
}

func rate(d decimal.Decimal, unit string) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + " " + unit
}
