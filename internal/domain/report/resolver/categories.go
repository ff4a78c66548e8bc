package resolver

// Category names an installation fixture tracked per unit.
type Category string

const (
	Kitchen       Category = "kitchen"
	Bathroom      Category = "bathroom"
	ShowerRegular Category = "shower"
	ShowerADA     Category = "ada_shower"
	Toilet        Category = "toilet"
)

// Spec describes how a category finds its source column(s).
type Spec struct {
	Category Category
	Patterns []string
	// Require keeps only candidates whose name contains every keyword.
	Require []string
	// Exclude drops candidates whose name contains any of these keywords.
	Exclude []string
	// Multi categories consume every matching column instead of the best one.
	Multi bool
}

// annotationKeywords mark free-text columns that mention a fixture by name.
var annotationKeywords = []string{"leak", "note", "comment"}

// DefaultSpecs returns the header patterns observed across vendor templates.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Category: Kitchen,
			Patterns: []string{"kitchen aerator", "kitchen aerators", "kitchen"},
			Exclude:  annotationKeywords,
		},
		{
			Category: Bathroom,
			Patterns: []string{"bathroom aerator", "bathroom aerators", "bath aerator"},
			Require:  []string{"bath", "aerator"},
			Exclude:  []string{"shower", "toilet", "kitchen"},
			Multi:    true,
		},
		{
			Category: ShowerADA,
			Patterns: []string{"ada shower head", "ada shower", "ada showerhead"},
			Require:  []string{"ada"},
		},
		{
			Category: ShowerRegular,
			Patterns: []string{"shower head", "showerhead", "shower heads"},
			Exclude:  []string{"ada"},
		},
		{
			Category: Toilet,
			Patterns: []string{"toilets installed", "toilet installed", "toilets replaced", "toilet"},
			Exclude:  annotationKeywords,
		},
	}
}

// LeakColumns are the headers carrying leak severity per fixture.
type LeakColumns struct {
	Kitchen string
	Bath    string
	Tub     string
}

// Any reports whether at least one leak column was found.
func (l LeakColumns) Any() bool {
	return l.Kitchen != "" || l.Bath != "" || l.Tub != ""
}

// Names returns the non-empty leak column names.
func (l LeakColumns) Names() []string {
	var out []string
	for _, n := range []string{l.Kitchen, l.Bath, l.Tub} {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
