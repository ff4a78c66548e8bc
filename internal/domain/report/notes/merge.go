package notes

// Overrides exposes the user edits relevant to notes and details.
type Overrides interface {
	Note(unit string) (string, bool)
	Detail(unit string) (string, bool)
	NoteExcluded(unit string) bool
	DetailExcluded(unit string) bool
}

// Entry is the merged note and detail text of a unit.
type Entry struct {
	Unit        string `json:"unit"`
	DisplayUnit string `json:"display_unit"`
	Note        string `json:"note"`
	Detail      string `json:"detail"`

	NoteOverridden   bool `json:"note_overridden"`
	DetailOverridden bool `json:"detail_overridden"`
	NoteExcluded     bool `json:"-"`
	DetailExcluded   bool `json:"-"`
}

// Merge combines compiled notes with overrides for the given units, keeping
// their order. Note and detail overrides are independent; a unit without an
// override falls back to its compiled note in both views.
func Merge(units []string, compiled map[string]string, o Overrides) []Entry {
	out := make([]Entry, 0, len(units))
	for _, unit := range units {
		e := Entry{
			Unit:        unit,
			DisplayUnit: unit,
			Note:        compiled[unit],
			Detail:      compiled[unit],
		}
		if o != nil {
			if v, ok := o.Note(unit); ok {
				e.Note = v
				e.NoteOverridden = true
			}
			if v, ok := o.Detail(unit); ok {
				e.Detail = v
				e.DetailOverridden = true
			}
			e.NoteExcluded = o.NoteExcluded(unit)
			e.DetailExcluded = o.DetailExcluded(unit)
		}
		out = append(out, e)
	}
	return out
}

// NotesView returns the entries shown on the notes page: not deleted there
// and carrying text.
func NotesView(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.NoteExcluded || e.Note == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// DetailsView returns the entries shown in the unit detail table.
func DetailsView(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.DetailExcluded {
			continue
		}
		out = append(out, e)
	}
	return out
}
